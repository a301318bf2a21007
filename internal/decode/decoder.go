// Package decode implements a single-pass 8086 machine-code disassembler.
// The emitted listing is NASM-syntax text that re-assembles byte-for-byte
// to the original input, which is the correctness oracle for the whole
// package.
package decode

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"reasm/internal/disasm"
)

// Decoder runs one forward pass over a byte stream, classifying each leading
// byte among the 8086 instruction families and rendering one text line per
// decoded unit. No state crosses instruction boundaries except the one-shot
// prefix state and the append-only label table.
type Decoder struct {
	cur    *Cursor
	prefix prefixState
	labels *labelTable
	insts  disasm.Listing
	starts map[int]bool
	logger *log.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger attaches a logger used for unknown-opcode diagnostics and the
// decode summary.
func WithLogger(l *log.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// New returns a decoder over data. Each decoder is good for exactly one Run;
// nothing is shared between decoders, so concurrent decodes cannot
// interfere.
func New(data []byte, opts ...Option) *Decoder {
	d := &Decoder{
		cur:    NewCursor(data),
		labels: newLabelTable(),
		starts: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Disassemble decodes data and returns the full listing text.
func Disassemble(data []byte, opts ...Option) (string, error) {
	prog, err := New(data, opts...).Run()
	if err != nil {
		return "", err
	}
	return prog.String(), nil
}

// Run decodes the whole stream. Decoding is best-effort for unrecognized
// leading bytes, which become diagnostic comment lines; missing operand
// bytes or a sentinel mismatch abort with an error.
func (d *Decoder) Run() (*Program, error) {
	for d.cur.More() {
		start := d.cur.Pos()
		b1, err := d.cur.NextByte()
		if err != nil {
			return nil, err
		}

		// Prefix bytes fold into the unit they modify: the unit keeps the
		// prefix's start offset and renders as a single line.
		for {
			if b1 == 0b11110000 {
				d.prefix.setLock()
			} else if b1&0b11100111 == 0b00100110 {
				d.prefix.setSegment(segmentNames[(b1>>3)&0b11])
			} else {
				break
			}
			if b1, err = d.cur.NextByte(); err != nil {
				return nil, err
			}
		}

		if err := d.decodeOne(start, b1); err != nil {
			return nil, err
		}
		d.prefix.clear()
	}

	if d.logger != nil {
		d.logger.Debug("decode complete",
			"instructions", len(d.insts), "labels", len(d.labels.names))
	}
	return &Program{Insts: d.insts, labels: d.labels, starts: d.starts}, nil
}

// decodeOne dispatches on the leading byte. The families overlap as bit
// patterns, so the order of the cases is load-bearing: a later case may be
// a superset of an earlier one.
func (d *Decoder) decodeOne(start int, b1 byte) error {
	switch {
	// Register/memory to/from register: MOV, the ALU group, TEST, XCHG,
	// and LEA/LDS/LES.
	case b1>>2 == 0b100010 ||
		(b1>>2)&0b110001 == 0 ||
		b1>>1 == 0b1000010 ||
		b1>>1 == 0b1000011 ||
		b1 == 0b10001101 || b1 == 0b11000101 || b1 == 0b11000100:
		return d.regMemWithReg(start, b1)

	// Immediate to register/memory, plus the grouped-opcode families that
	// share its two-byte shape. Grouped TEST (1111011w /0) shares its
	// leading byte with NOT/NEG/MUL/..., which carry no data bytes; the
	// opcode-extension field of the second byte disambiguates.
	case b1>>1 == 0b1100011 ||
		b1>>2 == 0b100000 ||
		b1 == 0b10001111 ||
		b1 == 0b11111111 ||
		b1>>1 == 0b1111111 ||
		b1>>1 == 0b1111011 ||
		b1>>2 == 0b110100:
		return d.immediateToRegMem(start, b1)

	// MOV immediate to register: width and register packed in the leading
	// byte.
	case b1>>4 == 0b1011:
		w := (b1 >> 3) & 1
		reg := b1 & 0b111
		data, err := d.cur.NextSigned16(w == 1)
		if err != nil {
			return err
		}
		d.emit(start, fmt.Sprintf("mov %s, %d\n", regNames[w][reg], data))
		return nil

	// Accumulator forms: MOV direct memory, TEST/ALU immediate, IN/OUT
	// with a fixed port.
	case b1>>2 == 0b101000 ||
		(b1>>1)&0b1100011 == 0b10 ||
		b1>>1 == 0b1010100 ||
		b1>>2 == 0b111001:
		return d.accumulator(start, b1)

	// PUSH/POP/INC/DEC on a register packed in the leading byte.
	case b1>>5 == 0b010:
		op := unary2Names[(b1>>3)&0b11]
		d.emit(start, op+" "+regNames[1][b1&0b111]+"\n")
		return nil

	// PUSH/POP on a segment register.
	case b1&0b11100111 == 0b110 || b1&0b11100111 == 0b111:
		op := "push"
		if b1&1 == 1 {
			op = "pop"
		}
		d.emit(start, op+" "+segmentNames[(b1>>3)&0b11]+"\n")
		return nil

	// XCHG with the accumulator.
	case b1>>3 == 0b10010:
		d.emit(start, "xchg ax, "+regNames[1][b1&0b111]+"\n")
		return nil

	// IN/OUT on the DX port register.
	case b1>>2 == 0b111011:
		acc := "al"
		if b1&1 == 1 {
			acc = "ax"
		}
		if (b1>>1)&1 == 1 {
			d.emit(start, "out dx, "+acc+"\n")
		} else {
			d.emit(start, "in "+acc+", dx\n")
		}
		return nil

	// RET with a 16-bit pop count.
	case b1 == 0b11000010 || b1 == 0b11001010:
		data, err := d.cur.NextSigned16(true)
		if err != nil {
			return err
		}
		d.emit(start, fmt.Sprintf("ret %d\n", data))
		return nil

	// INT with an 8-bit type.
	case b1 == 0b11001101:
		data, err := d.cur.NextUnsigned8()
		if err != nil {
			return err
		}
		d.emit(start, fmt.Sprintf("int %d\n", data))
		return nil

	// REP: a two-byte unit, the prefix plus the string op it modifies.
	case b1 == 0b11110011:
		b2, err := d.cur.NextByte()
		if err != nil {
			return err
		}
		op, ok := stringOpNames[b2>>1]
		if !ok {
			return invalidAt(start, b2)
		}
		d.emit(start, "rep "+op+widthSuffix(b2)+"\n")
		return nil

	// Relative branches: conditional jumps and the LOOP family, one signed
	// 8-bit displacement each.
	case b1>>4 == 0b0111 || b1>>2 == 0b111000:
		b2, err := d.cur.NextByte()
		if err != nil {
			return err
		}
		var op string
		if b1>>4 == 0b0111 {
			op = jump4Names[b1&0b1111]
		} else {
			op = jump2Names[b1&0b11]
		}
		disp := int(int8(b2))
		d.emitBranch(start, op, d.cur.Pos()+disp, disp)
		return nil

	// Near CALL/JMP: 16-bit relative displacement. Short JMP: 8-bit. The
	// explicit short/near keywords keep the assembler from re-encoding a
	// different length.
	case b1 == 0b11101000 || b1 == 0b11101001:
		op := "call"
		if b1&1 == 1 {
			op = "jmp near"
		}
		v, err := d.cur.NextSigned16(true)
		if err != nil {
			return err
		}
		d.emitBranch(start, op, d.cur.Pos()+int(v), int(v))
		return nil
	case b1 == 0b11101011:
		v, err := d.cur.NextSigned16(false)
		if err != nil {
			return err
		}
		d.emitBranch(start, "jmp short", d.cur.Pos()+int(v), int(v))
		return nil

	// Far CALL/JMP: an absolute segment:offset pair, never a label.
	case b1 == 0b10011010 || b1 == 0b11101010:
		op := "call"
		if b1 == 0b11101010 {
			op = "jmp"
		}
		off, err := d.cur.NextUnsigned16()
		if err != nil {
			return err
		}
		seg, err := d.cur.NextUnsigned16()
		if err != nil {
			return err
		}
		d.emit(start, fmt.Sprintf("%s %d:%d\n", op, seg, off))
		return nil

	// AAM/AAD: two fixed bytes, the second must be the 0x0a sentinel.
	case b1 == 0b11010100 || b1 == 0b11010101:
		b2, err := d.cur.NextByte()
		if err != nil {
			return err
		}
		if b2 != 0b00001010 {
			return invalidAt(start, b2)
		}
		op := "aam"
		if b1&1 == 1 {
			op = "aad"
		}
		d.emit(start, op+"\n")
		return nil

	default:
		// String ops without a repeat prefix.
		if op, ok := stringOpNames[b1>>1]; ok {
			d.emit(start, op+widthSuffix(b1)+"\n")
			return nil
		}
		if op, ok := fixedNames[b1]; ok {
			d.emit(start, op+"\n")
			return nil
		}
		// Unknown leading byte: keep decoding, surface the byte as a
		// comment so one bad byte cannot abort the rest of the stream.
		if d.logger != nil {
			d.logger.Warn("unknown opcode",
				"pos", start, "byte", fmt.Sprintf("%08b", b1))
		}
		d.emit(start, fmt.Sprintf("; %08b\n", b1))
		return nil
	}
}

// regMemWithReg decodes the family whose second byte carries mod+reg+r/m
// and whose direction bit selects which field is the destination.
func (d *Decoder) regMemWithReg(start int, b1 byte) error {
	// LEA, LDS and LES hard-code "register is destination, word width"
	// regardless of their own direction/width bits.
	var dir, w byte
	if b1 == 0b10001101 || b1 == 0b11000101 || b1 == 0b11000100 {
		dir, w = 1, 1
	} else {
		dir, w = (b1>>1)&1, b1&1
	}

	b2, err := d.cur.NextByte()
	if err != nil {
		return err
	}
	mod := b2 >> 6
	reg := (b2 >> 3) & 0b111
	rm := b2 & 0b111

	var op string
	switch b1 {
	case 0b10001101:
		op = "lea"
	case 0b11000101:
		op = "lds"
	case 0b11000100:
		op = "les"
	default:
		switch b1 >> 1 {
		case 0b1000010:
			op = "test"
		case 0b1000011:
			op = "xchg"
		case 0b1000100, 0b1000101:
			op = "mov"
		default:
			op = binaryNames[(b1>>3)&0b111]
		}
	}

	locked := d.prefix.lockPending()

	regText := regNames[w][reg]
	rmText, err := d.effectiveAddress(w, mod, rm)
	if err != nil {
		return err
	}

	dst, src := rmText, regText
	if dir == 1 {
		dst, src = regText, rmText
	}
	// A locked instruction must keep the memory operand as destination to
	// re-assemble, so the rendered order flips relative to the direction
	// bit.
	if locked {
		dst, src = src, dst
	}
	d.emit(start, op+" "+dst+", "+src+"\n")
	return nil
}

// immediateToRegMem decodes the family whose second byte's opcode-extension
// field selects the mnemonic. Whether data bytes follow depends on which
// sub-case matched: MOV, the ALU group and grouped TEST carry data; the
// shift/rotate group instead has a count operand that is literally 1 or the
// CL register; the remaining grouped ops have neither.
func (d *Decoder) immediateToRegMem(start int, b1 byte) error {
	op := b1 >> 2
	mov := op == 0b110001
	sv := (b1 >> 1) & 1
	w := b1 & 1

	b2, err := d.cur.NextByte()
	if err != nil {
		return err
	}
	mod := b2 >> 6
	rm := b2 & 0b111

	rmText, err := d.effectiveAddress(w, mod, rm)
	if err != nil {
		return err
	}

	var opText string
	switch op {
	case 0b110001:
		opText = "mov"
	case 0b100011:
		opText = "pop"
	case 0b100000:
		opText = binaryNames[(b2>>3)&0b111]
	case 0b111111:
		opText = unary2Names[(b2>>3)&0b11]
	case 0b111101:
		opText = unary3Names[(b2>>3)&0b111]
	case 0b110100:
		opText = logicNames[(b2>>3)&0b111]
	}
	unit := "byte"
	if w == 1 {
		unit = "word"
	}

	switch {
	case mov || op == 0b100000 || (op == 0b111101 && (b2>>3)&0b111 == 0):
		// With the S bit clear a wide operation carries 16-bit data;
		// set, one sign-extended byte.
		data, err := d.cur.NextSigned16((mov || sv == 0) && w == 1)
		if err != nil {
			return err
		}
		d.emit(start, fmt.Sprintf("%s %s, %s %d\n", opText, rmText, unit, data))
	case op == 0b110100:
		count := "1"
		if sv == 1 {
			count = "cl"
		}
		d.emit(start, fmt.Sprintf("%s %s %s, %s\n", opText, unit, rmText, count))
	default:
		d.emit(start, fmt.Sprintf("%s %s %s\n", opText, unit, rmText))
	}
	return nil
}

// accumulator decodes the forms that operate on al/ax with an immediate,
// a direct memory address (MOV), or a fixed port (IN/OUT).
func (d *Decoder) accumulator(start int, b1 byte) error {
	mov := b1>>2 == 0b101000
	port := b1>>2 == 0b111001
	toAcc := (b1>>1)&1 == 0
	wide := b1&1 == 1

	var value int
	if port {
		// The port is a single unsigned byte, never sign-extended.
		v, err := d.cur.NextUnsigned8()
		if err != nil {
			return err
		}
		value = int(v)
	} else {
		v, err := d.cur.NextSigned16(mov || wide)
		if err != nil {
			return err
		}
		value = int(v)
	}

	var op string
	switch b1 >> 1 {
	case 0b1010000, 0b1010001:
		op = "mov"
	case 0b1010100:
		op = "test"
	case 0b1110010:
		op = "in"
	case 0b1110011:
		op = "out"
	default:
		op = binaryNames[(b1>>3)&0b111]
	}

	acc := "al"
	if wide {
		acc = "ax"
	}
	operand := strconv.Itoa(value)
	if mov {
		// MOV's accumulator form addresses memory directly; the others
		// treat the value as an immediate.
		operand = d.memOperand(operand)
	}

	if toAcc {
		d.emit(start, op+" "+acc+", "+operand+"\n")
	} else {
		d.emit(start, op+" "+operand+", "+acc+"\n")
	}
	return nil
}

// emit records one decoded unit, applying a pending lock prefix.
func (d *Decoder) emit(start int, text string) {
	d.add(disasm.Inst{Pos: start, Text: text})
}

// emitBranch records a relative branch, registering its target with the
// label table. The raw displacement rides along as a trailing comment.
func (d *Decoder) emitBranch(start int, op string, target, disp int) {
	sym := d.labels.ref(target)
	d.add(disasm.Inst{
		Pos:       start,
		Text:      fmt.Sprintf("%s %s ; %d\n", op, sym, disp),
		Target:    target,
		Symbol:    sym,
		HasTarget: true,
	})
}

func (d *Decoder) add(inst disasm.Inst) {
	// An override not consumed by a memory operand still has to keep its
	// byte in the output, so it falls back to a bare instruction prefix.
	if seg, ok := d.prefix.takeSegment(); ok {
		inst.Text = seg + " " + inst.Text
	}
	if d.prefix.takeLock() {
		inst.Text = "lock " + inst.Text
	}
	d.starts[inst.Pos] = true
	d.insts = append(d.insts, inst)
}

func widthSuffix(b byte) string {
	if b&1 == 1 {
		return "w"
	}
	return "b"
}

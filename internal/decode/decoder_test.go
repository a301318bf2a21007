package decode

import (
	"errors"
	"testing"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string // without the leading "bits 16\n" directive
	}{
		// Register/memory to/from register.
		{"mov register to register", []byte{0b10001001, 0b11011000}, "mov ax, bx\n"},
		{"mov register from register", []byte{0b10001011, 0b11011000}, "mov bx, ax\n"},
		{"add register to register", []byte{0x01, 0xc3}, "add bx, ax\n"},
		{"cmp memory with register", []byte{0x39, 0x07}, "cmp [bx], ax\n"},
		{"xchg registers", []byte{0x87, 0xd9}, "xchg bx, cx\n"},
		{"test registers", []byte{0x85, 0xc3}, "test bx, ax\n"},
		{"lea", []byte{0x8d, 0x07}, "lea ax, [bx]\n"},
		{"lds", []byte{0xc5, 0x17}, "lds dx, [bx]\n"},
		{"les", []byte{0xc4, 0x07}, "les ax, [bx]\n"},
		{"mov with positive disp8", []byte{0x89, 0x5e, 0x02}, "mov [bp + 2], bx\n"},
		{"mov with negative disp8", []byte{0x89, 0x5e, 0xfe}, "mov [bp - 2], bx\n"},
		{"mov with zero disp8", []byte{0x89, 0x5e, 0x00}, "mov [bp], bx\n"},
		{"mov with disp16", []byte{0x8b, 0x84, 0x34, 0x12}, "mov ax, [si + 4660]\n"},

		// Immediate to register/memory and the grouped families.
		{"mov immediate to direct memory", []byte{0xc6, 0x06, 0x10, 0x00, 0x07}, "mov [16], byte 7\n"},
		{"mov word immediate to memory", []byte{0xc7, 0x07, 0x0b, 0x01}, "mov [bx], word 267\n"},
		{"add sign-extended immediate", []byte{0x83, 0xc3, 0x05}, "add bx, word 5\n"},
		{"cmp byte immediate with memory", []byte{0x80, 0x3f, 0x07}, "cmp [bx], byte 7\n"},
		{"grouped test immediate", []byte{0xf6, 0xc3, 0x05}, "test bl, byte 5\n"},
		{"neg", []byte{0xf7, 0xd8}, "neg word ax\n"},
		{"mul memory", []byte{0xf7, 0x26, 0x10, 0x00}, "mul word [16]\n"},
		{"shl by one", []byte{0xd1, 0xe0}, "shl word ax, 1\n"},
		{"shl memory by cl", []byte{0xd3, 0x27}, "shl word [bx], cl\n"},
		{"inc byte register", []byte{0xfe, 0xc0}, "inc byte al\n"},
		{"push memory", []byte{0xff, 0x37}, "push word [bx]\n"},
		{"pop memory", []byte{0x8f, 0x06, 0x10, 0x00}, "pop word [16]\n"},

		// MOV immediate to register.
		{"mov byte immediate to register", []byte{0b10110001, 0b00001000}, "mov cl, 8\n"},
		{"mov word immediate to register", []byte{0xb8, 0x00, 0x10}, "mov ax, 4096\n"},
		{"mov negative immediate", []byte{0xb9, 0xfe, 0xff}, "mov cx, -2\n"},

		// Accumulator forms.
		{"add immediate to al", []byte{0x04, 0x05}, "add al, 5\n"},
		{"add immediate to ax", []byte{0x05, 0xe8, 0x03}, "add ax, 1000\n"},
		{"test immediate with al", []byte{0xa8, 0x0f}, "test al, 15\n"},
		{"mov memory to ax", []byte{0xa1, 0x10, 0x00}, "mov ax, [16]\n"},
		{"mov al to memory", []byte{0xa2, 0x05, 0x00}, "mov [5], al\n"},
		{"in from fixed port", []byte{0xe4, 0x08}, "in al, 8\n"},
		{"out to fixed port", []byte{0xe7, 0x10}, "out 16, ax\n"},

		// Single-byte register-implicit ops.
		{"inc register", []byte{0x40}, "inc ax\n"},
		{"dec register", []byte{0x48}, "dec ax\n"},
		{"push register", []byte{0x50}, "push ax\n"},
		{"pop register", []byte{0x5b}, "pop bx\n"},
		{"push segment register", []byte{0x1e}, "push ds\n"},
		{"pop segment register", []byte{0x07}, "pop es\n"},
		{"xchg with accumulator", []byte{0x91}, "xchg ax, cx\n"},
		{"in from dx", []byte{0xec}, "in al, dx\n"},
		{"out to dx", []byte{0xef}, "out dx, ax\n"},

		// Fixed forms with data.
		{"ret with pop count", []byte{0xc2, 0x04, 0x00}, "ret 4\n"},
		{"int", []byte{0xcd, 0x21}, "int 33\n"},

		// REP is a single two-byte unit.
		{"rep movsb", []byte{0xf3, 0xa4}, "rep movsb\n"},
		{"rep stosw", []byte{0xf3, 0xab}, "rep stosw\n"},

		// String ops without repeat.
		{"movsw", []byte{0xa5}, "movsw\n"},
		{"scasb", []byte{0xae}, "scasb\n"},

		// Fixed one and two byte forms.
		{"aam", []byte{0xd4, 0x0a}, "aam\n"},
		{"aad", []byte{0xd5, 0x0a}, "aad\n"},
		{"hlt", []byte{0xf4}, "hlt\n"},
		{"wait", []byte{0x9b}, "wait\n"},
		{"iret", []byte{0xcf}, "iret\n"},
		{"xlat", []byte{0xd7}, "xlat\n"},
		{"cbw", []byte{0x98}, "cbw\n"},
		{"ret", []byte{0xc3}, "ret\n"},

		// Relative branches and labels.
		{"jne to own start", []byte{0b01110101, 0b11111110}, "label0:\njne label0 ; -2\n"},
		{"loop to own start", []byte{0xe2, 0xfe}, "label0:\nloop label0 ; -2\n"},
		{"forward short jmp", []byte{0xeb, 0x00, 0xc3}, "jmp short label0 ; 0\nlabel0:\nret\n"},
		{"backward near jmp", []byte{0xe9, 0xfd, 0xff}, "label0:\njmp near label0 ; -3\n"},
		{"dangling call target", []byte{0xe8, 0x00, 0x00}, "call 3 ; 0\n"},
		{
			"crossing branches",
			[]byte{0x75, 0x00, 0x75, 0xfc},
			"label1:\njne label0 ; 0\nlabel0:\njne label1 ; -4\n",
		},
		{
			"shared branch target",
			[]byte{0x75, 0xfe, 0x75, 0xfc},
			"label0:\njne label0 ; -2\njne label0 ; -4\n",
		},
		{
			"target inside an instruction stays numeric",
			[]byte{0xb8, 0x00, 0x00, 0x75, 0xfc},
			"mov ax, 0\njne 1 ; -4\n",
		},

		// Far CALL/JMP are absolute, never labelled.
		{"far jmp", []byte{0xea, 0x05, 0x00, 0x02, 0x00}, "jmp 2:5\n"},
		{"far call", []byte{0x9a, 0x78, 0x56, 0x34, 0x12}, "call 4660:22136\n"},

		// Prefixes.
		{"lock swaps operand order", []byte{0xf0, 0x01, 0xc3}, "lock add ax, bx\n"},
		{
			"lock applies to one instruction only",
			[]byte{0xf0, 0x01, 0xc3, 0x01, 0xc3},
			"lock add ax, bx\nadd bx, ax\n",
		},
		{"segment override in memory operand", []byte{0x26, 0x8b, 0x07}, "mov ax, [es:bx]\n"},
		{"segment override on direct memory", []byte{0x3e, 0xa1, 0x10, 0x00}, "mov ax, [ds:16]\n"},
		{
			"segment override applies to one instruction only",
			[]byte{0x26, 0x8b, 0x07, 0x8b, 0x0f},
			"mov ax, [es:bx]\nmov cx, [bx]\n",
		},
		{"segment override without memory operand", []byte{0x2e, 0x01, 0xc3}, "cs add bx, ax\n"},

		// Unknown bytes become diagnostic comments without aborting.
		{"unknown byte", []byte{0xf1}, "; 11110001\n"},
		{"unknown byte then valid instruction", []byte{0xd8, 0xc3}, "; 11011000\nret\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Disassemble(tt.data)
			if err != nil {
				t.Fatalf("Disassemble(% x) error = %v", tt.data, err)
			}
			want := "bits 16\n" + tt.want
			if got != want {
				t.Errorf("Disassemble(% x) =\n%q\nwant\n%q", tt.data, got, want)
			}
		})
	}
}

func TestDisassembleEmptyInput(t *testing.T) {
	got, err := Disassemble(nil)
	if err != nil {
		t.Fatalf("Disassemble(nil) error = %v", err)
	}
	if got != "" {
		t.Errorf("Disassemble(nil) = %q, want empty", got)
	}
}

func TestDisassembleErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"missing mod/rm byte", []byte{0b10001001}, ErrTruncatedStream},
		{"missing immediate", []byte{0xb8, 0x01}, ErrTruncatedStream},
		{"missing displacement high byte", []byte{0xc6, 0x06, 0x10}, ErrTruncatedStream},
		{"lone lock prefix", []byte{0xf0}, ErrTruncatedStream},
		{"lone segment override", []byte{0x26}, ErrTruncatedStream},
		{"aam sentinel mismatch", []byte{0xd4, 0x0b}, ErrInvalidEncoding},
		{"rep with non-string op", []byte{0xf3, 0x90}, ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Disassemble(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Disassemble(% x) error = %v, want %v", tt.data, err, tt.want)
			}
		})
	}
}

// Consecutive instruction start positions must differ by exactly the bytes
// each decode consumed, or round-trip fidelity breaks.
func TestDecodeLengthConsistency(t *testing.T) {
	data := []byte{
		0x89, 0xd8, // mov ax, bx
		0xc7, 0x07, 0x0b, 0x01, // mov [bx], word 267
		0xb8, 0x00, 0x10, // mov ax, 4096
		0xf3, 0xa4, // rep movsb
		0x75, 0xf2, // jne
		0xf4, // hlt
	}

	prog, err := New(data).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantStarts := []int{0, 2, 6, 9, 11, 13}
	if len(prog.Insts) != len(wantStarts) {
		t.Fatalf("decoded %d instructions, want %d", len(prog.Insts), len(wantStarts))
	}
	for i, inst := range prog.Insts {
		if inst.Pos != wantStarts[i] {
			t.Errorf("instruction %d starts at %d, want %d", i, inst.Pos, wantStarts[i])
		}
	}
}

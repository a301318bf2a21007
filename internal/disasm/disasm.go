// Package disasm defines the decoded instruction representation shared by
// the decoder and the listing emitter.
package disasm

// Inst is one decoded instruction unit. Prefix bytes that modify an
// instruction (lock, segment override, rep) belong to the unit they modify,
// so Pos is the offset of the unit's first byte and the whole unit renders
// as a single line.
type Inst struct {
	Pos       int    // byte offset of the unit's first byte
	Text      string // rendered line, "\n"-terminated
	Target    int    // absolute branch target, valid when HasTarget
	Symbol    string // label symbol embedded in Text, substituted at emission
	HasTarget bool
}

// Listing is a sequence of decoded instructions in increasing byte order.
type Listing []Inst

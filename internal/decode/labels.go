package decode

import (
	"io"
	"strconv"
	"strings"

	"reasm/internal/disasm"
)

// labelTable assigns deterministic symbolic names ("label0", "label1", …)
// to branch targets in first-seen order. A target's presence here does not
// imply it starts a decoded instruction; the emitter decides whether the
// symbol or the bare offset is rendered.
type labelTable struct {
	names map[int]string
}

func newLabelTable() *labelTable {
	return &labelTable{names: make(map[int]string)}
}

// ref returns the symbol for target, assigning the next name on first use.
func (t *labelTable) ref(target int) string {
	if name, ok := t.names[target]; ok {
		return name
	}
	name := "label" + strconv.Itoa(len(t.names))
	t.names[target] = name
	return name
}

// Program is the result of one decode pass: the ordered instruction listing
// plus the accumulated label table and the set of instruction start offsets.
type Program struct {
	Insts  disasm.Listing
	labels *labelTable
	starts map[int]bool
}

// Emit writes the listing: the mode directive, then every instruction in
// byte order. A label declaration line precedes any instruction whose start
// is a recorded branch target. A target that does not coincide with an
// instruction start is a dangling target: its references are rewritten to
// the bare byte offset, since declaring a label inside another instruction's
// encoding would desynchronize the assembled output.
func (p *Program) Emit(w io.Writer) error {
	if len(p.Insts) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "bits 16\n"); err != nil {
		return err
	}
	for _, inst := range p.Insts {
		if name, ok := p.labels.names[inst.Pos]; ok {
			if _, err := io.WriteString(w, name+":\n"); err != nil {
				return err
			}
		}
		text := inst.Text
		if inst.HasTarget && !p.starts[inst.Target] {
			text = strings.Replace(text, inst.Symbol, strconv.Itoa(inst.Target), 1)
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	}
	return nil
}

// String renders the whole listing.
func (p *Program) String() string {
	var sb strings.Builder
	p.Emit(&sb) //nolint:errcheck // strings.Builder never fails
	return sb.String()
}

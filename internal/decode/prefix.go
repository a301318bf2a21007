package decode

// prefixState tracks single-use modifiers set by prefix bytes. A pending
// value applies to the immediately following instruction decode and must
// never survive into a second one; the decode loop clears the state after
// every non-prefix instruction regardless of whether it was consumed.
type prefixState struct {
	segment string
	lock    bool
}

func (p *prefixState) setSegment(name string) {
	p.segment = name
}

// takeSegment consumes the pending segment override, if any.
func (p *prefixState) takeSegment() (string, bool) {
	if p.segment == "" {
		return "", false
	}
	s := p.segment
	p.segment = ""
	return s, true
}

func (p *prefixState) setLock() {
	p.lock = true
}

// lockPending reports a pending lock without consuming it. The register/
// memory-with-register family peeks at it to decide operand order before
// the prefix is applied.
func (p *prefixState) lockPending() bool {
	return p.lock
}

// takeLock consumes the pending lock flag.
func (p *prefixState) takeLock() bool {
	l := p.lock
	p.lock = false
	return l
}

func (p *prefixState) clear() {
	p.segment = ""
	p.lock = false
}

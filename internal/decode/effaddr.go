package decode

import "strconv"

// effectiveAddress renders the operand selected by the mod and r/m fields,
// consuming any displacement bytes:
//
//	mod 00: base pair, no displacement — except r/m 110, the direct-address
//	        carve-out, where a 16-bit displacement always follows
//	mod 01: base pair plus 8-bit displacement, sign-extended
//	mod 10: base pair plus 16-bit displacement
//	mod 11: register direct
//
// A zero displacement is omitted; positive renders " + n", negative " - n".
func (d *Decoder) effectiveAddress(w, mod, rm byte) (string, error) {
	var disp int
	switch mod {
	case 0b00:
		if rm == 0b110 {
			addr, err := d.cur.NextSigned16(true)
			if err != nil {
				return "", err
			}
			return d.memOperand(strconv.Itoa(int(addr))), nil
		}
	case 0b01:
		v, err := d.cur.NextSigned16(false)
		if err != nil {
			return "", err
		}
		disp = int(v)
	case 0b10:
		v, err := d.cur.NextSigned16(true)
		if err != nil {
			return "", err
		}
		disp = int(v)
	case 0b11:
		return regNames[w][rm], nil
	}

	base := rmNames[rm]
	switch {
	case disp > 0:
		return d.memOperand(base + " + " + strconv.Itoa(disp)), nil
	case disp < 0:
		return d.memOperand(base + " - " + strconv.Itoa(-disp)), nil
	default:
		return d.memOperand(base), nil
	}
}

// memOperand brackets a memory expression, splicing in a pending segment
// override. The override is consumed by the first memory operand of the
// instruction it precedes.
func (d *Decoder) memOperand(expr string) string {
	if seg, ok := d.prefix.takeSegment(); ok {
		return "[" + seg + ":" + expr + "]"
	}
	return "[" + expr + "]"
}

package decode

import (
	"errors"
	"fmt"
)

// ErrTruncatedStream reports that an opcode required operand or immediate
// bytes that are not present in the input. There is no instruction to
// complete, so the whole decode aborts.
var ErrTruncatedStream = errors.New("truncated stream")

// ErrInvalidEncoding reports a byte sequence that is not validly formed 8086
// code, such as an aam/aad second byte that is not the 0x0a sentinel.
var ErrInvalidEncoding = errors.New("invalid encoding")

func truncatedAt(pos int) error {
	return fmt.Errorf("byte %d: %w", pos, ErrTruncatedStream)
}

func invalidAt(pos int, b byte) error {
	return fmt.Errorf("byte %d: %08b: %w", pos, b, ErrInvalidEncoding)
}

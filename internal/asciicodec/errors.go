package asciicodec

import (
	"errors"
	"fmt"
)

// Sentinel errors for the asciicodec package.
var (
	// ErrFraming matches every *FramingError.
	ErrFraming = errors.New("framing error")

	// ErrUnknownEscape is reported when a backtick is followed by a byte
	// that is neither a literal, a control escape nor a known command.
	ErrUnknownEscape = errors.New("unknown escape")

	// ErrMalformedCommand is reported when command parameters do not
	// follow the command grammar.
	ErrMalformedCommand = errors.New("malformed command")

	// ErrSizeOverflow is reported when a resize dimension exceeds MaxDimension.
	ErrSizeOverflow = errors.New("terminal size overflow")
)

// FramingError reports an escape the decoder cannot interpret. The stream
// is desynchronized after it and cannot be resumed safely.
type FramingError struct {
	// Offset is the position of the offending byte in the decoded input.
	Offset int

	// Byte is the offending byte.
	Byte byte

	// Err is one of ErrUnknownEscape, ErrMalformedCommand or ErrSizeOverflow.
	Err error
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("framing error at offset %d (byte 0x%02x): %v", e.Offset, e.Byte, e.Err)
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFraming) hold for every FramingError.
func (e *FramingError) Is(target error) bool {
	return target == ErrFraming
}

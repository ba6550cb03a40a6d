package asciicodec

import "strconv"

const (
	// Escape starts every multi-byte sequence.
	Escape byte = '`'

	// CommandResize is the command letter of the resize command.
	CommandResize byte = 'r'

	// MaxDimension bounds the columns and rows a resize command may carry.
	MaxDimension = 65535

	controlOffset  = 0x40
	controlLimit   = 0x20 // control bytes are 0x00..controlLimit-1
	del            = 0x7f
	delEscape      = '?'
	fieldSeparator = ':'
	terminator     = ';'

	// maxFieldDigits bounds a resize field including leading zeros, so a
	// truncated command never holds an unbounded tail.
	maxFieldDigits = 16
)

// CommandSink receives out-of-band commands found by Decode.
type CommandSink interface {
	Resize(cols, rows int)
}

// ResizeFunc adapts a function to CommandSink.
type ResizeFunc func(cols, rows int)

// Resize calls f(cols, rows).
func (f ResizeFunc) Resize(cols, rows int) { f(cols, rows) }

// MaxEncodedLen returns the largest encoding of n raw bytes.
func MaxEncodedLen(n int) int {
	return 2 * n
}

// Encode returns the printable encoding of src.
func Encode(src []byte) []byte {
	return AppendEncode(make([]byte, 0, len(src)+len(src)/8), src)
}

// AppendEncode appends the encoding of src to dst and returns the extended slice.
func AppendEncode(dst, src []byte) []byte {
	for _, b := range src {
		switch {
		case b == Escape:
			dst = append(dst, Escape, Escape)
		case b < controlLimit:
			dst = append(dst, Escape, b+controlOffset)
		case b == del:
			dst = append(dst, Escape, delEscape)
		default:
			dst = append(dst, b)
		}
	}
	return dst
}

// EncodeResize returns the resize command for the given dimensions.
func EncodeResize(cols, rows int) []byte {
	return AppendResize(make([]byte, 0, 16), cols, rows)
}

// AppendResize appends a resize command to dst.
func AppendResize(dst []byte, cols, rows int) []byte {
	dst = append(dst, Escape, CommandResize)
	dst = strconv.AppendUint(dst, uint64(cols), 10)
	dst = append(dst, fieldSeparator)
	dst = strconv.AppendUint(dst, uint64(rows), 10)
	return append(dst, terminator)
}

// Decode decodes src, dispatching commands to sink, which may be nil.
// See AppendDecode.
func Decode(src []byte, sink CommandSink) ([]byte, int, error) {
	return AppendDecode(make([]byte, 0, len(src)), src, sink)
}

// AppendDecode appends the raw bytes encoded in src to dst and returns the
// extended slice together with the number of bytes of src it consumed.
//
// Bytes outside escapes are copied unchanged. When src ends inside an
// escape, decoding stops in front of it and consumed < len(src). On a
// *FramingError, the bytes decoded before the bad escape are returned and
// consumed is the offset of its backtick.
func AppendDecode(dst, src []byte, sink CommandSink) ([]byte, int, error) {
	i := 0
	for i < len(src) {
		b := src[i]
		if b != Escape {
			dst = append(dst, b)
			i++
			continue
		}
		if i+1 == len(src) {
			return dst, i, nil
		}

		next := src[i+1]
		switch {
		case next == Escape:
			dst = append(dst, Escape)
			i += 2
		case next >= controlOffset && next < controlOffset+controlLimit:
			dst = append(dst, next-controlOffset)
			i += 2
		case next == delEscape:
			dst = append(dst, del)
			i += 2
		case next == CommandResize:
			n, cols, rows, err := parseResize(src, i+2)
			if err != nil {
				return dst, i, err
			}
			if n == 0 {
				return dst, i, nil
			}
			if sink != nil {
				sink.Resize(cols, rows)
			}
			i += 2 + n
		default:
			return dst, i, &FramingError{Offset: i + 1, Byte: next, Err: ErrUnknownEscape}
		}
	}
	return dst, i, nil
}

// parseResize parses "C:R;" starting at src[start]. It returns the number
// of bytes used including the terminator, or 0 when src ends first.
func parseResize(src []byte, start int) (n, cols, rows int, err error) {
	var fields [2]int
	field, digits := 0, 0

	for pos := start; pos < len(src); pos++ {
		c := src[pos]
		switch {
		case c >= '0' && c <= '9':
			fields[field] = fields[field]*10 + int(c-'0')
			if fields[field] > MaxDimension {
				return 0, 0, 0, &FramingError{Offset: pos, Byte: c, Err: ErrSizeOverflow}
			}
			digits++
			if digits > maxFieldDigits {
				return 0, 0, 0, &FramingError{Offset: pos, Byte: c, Err: ErrMalformedCommand}
			}
		case c == fieldSeparator && field == 0 && digits > 0:
			field, digits = 1, 0
		case c == terminator && field == 1 && digits > 0:
			return pos + 1 - start, fields[0], fields[1], nil
		default:
			return 0, 0, 0, &FramingError{Offset: pos, Byte: c, Err: ErrMalformedCommand}
		}
	}
	return 0, 0, 0, nil
}

// Package asciicodec implements the printable-ASCII transport encoding.
//
// Every byte of a binary stream is mapped onto the printable range
// 0x20-0x7E so the stream survives channels that only tolerate text:
//
//	printable byte other than '`'   itself
//	'`' (0x60)                      "``"
//	control byte c (0x00-0x1F)      '`' followed by c+0x40 ('@'..'_')
//	DEL (0x7F)                      "`?"
//	0x80-0xFF                       itself
//
// Out-of-band commands share the escape character. A resize of C columns
// and R rows is sent as "`r" C ":" R ";" with C and R in decimal.
//
// Encode and Decode are pure and never block. Decode stops in front of an
// escape that is cut off by the end of its input and reports how much it
// consumed; the caller keeps the rest and retries once more bytes arrive.
package asciicodec

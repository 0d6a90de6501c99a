// Package scale implements the SCALE codec (Simple Concatenated Aggregate
// Little-Endian) used by Substrate-family chains.
//
// Decoders are pure functions of (buf, offset) and report the exact number
// of bytes consumed so composite decoders can chain cursors. They never
// over-read: a value that would run past the end of the buffer fails with
// ErrUnexpectedEOF instead of returning partial data. Encoders append to a
// destination slice, mirroring the encoding/binary Append* style.
package scale

import "errors"

// ErrUnexpectedEOF is returned when a decoder needs more bytes than remain
// in the buffer.
var ErrUnexpectedEOF = errors.New("scale: unexpected end of input")

// ErrUnknownVariant is returned when an enum discriminant has no entry in
// the caller-supplied variant mapping.
var ErrUnknownVariant = errors.New("scale: unknown enum discriminant")

// Decoder decodes a value of type T starting at off and returns the value
// and the number of bytes consumed.
type Decoder[T any] func(buf []byte, off int) (T, int, error)

// remaining reports how many bytes are left at off, or -1 if off is already
// past the end of buf.
func remaining(buf []byte, off int) int {
	if off < 0 || off > len(buf) {
		return -1
	}
	return len(buf) - off
}

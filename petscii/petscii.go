// Package petscii pads and trims the fixed-width, 0xA0-padded strings used
// throughout CBM DOS on-disk structures (disk labels, filenames, disk IDs).
package petscii

import "strings"

// PadByte is PETSCII's shifted-space, used to right-pad fixed-width fields.
const PadByte = 0xA0

// Pad returns s as a fixed-width byte slice of length n, upper-cased and
// right-padded with PadByte. Panics if s is longer than n, mirroring the
// teacher's own PadString overflow behavior (juster-c64/disk/string.go).
func Pad(s string, n int) []byte {
	s = strings.ToUpper(s)
	if len(s) > n {
		panic("petscii: string too long for field")
	}
	buf := make([]byte, n)
	i := copy(buf, s)
	for ; i < n; i++ {
		buf[i] = PadByte
	}
	return buf
}

// Trim returns the ASCII projection of buf: PadByte (0xA0) and NUL bytes
// render as spaces, and trailing spaces are removed.
func Trim(buf []byte) string {
	out := make([]byte, len(buf))
	for i, c := range buf {
		if c == PadByte || c == 0x00 {
			c = ' '
		}
		out[i] = c
	}
	return strings.TrimRight(string(out), " ")
}

// Raw returns buf unmodified (the on-disk PETSCII bytes), for callers that
// need to compare filenames against the raw, non-ASCII-projected form.
func Raw(buf []byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

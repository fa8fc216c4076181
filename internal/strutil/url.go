package strutil

import (
	"strings"
)

var halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = 0xFF
	}

	for c := byte('0'); c <= '9'; c++ {
		table[c] = c - '0'
	}

	for c := byte('a'); c <= 'f'; c++ {
		table[c] = c - 'a' + 10
		table[c-'a'+'A'] = c - 'a' + 10
	}

	return table
}()

// IsHex reports whether the character is a hexadecimal digit.
func IsHex(c byte) bool {
	return halfbyte[c] != 0xFF
}

// IsURLUnsafeChar tells whether it's unsafe to decode an urlencoded character.
func IsURLUnsafeChar(c byte) bool {
	return c == '/' || c < 0x20 || c == 0x7f
}

// URLDecode decodes an urlencoded string and tells whether the string was properly formed.
// Encoded slashes and control characters stay encoded, so they cannot alter the path layout.
func URLDecode(str string) (string, bool) {
	if strings.IndexByte(str, '%') == -1 {
		return str, true
	}

	var b strings.Builder
	b.Grow(len(str))
	s := str

	for len(s) > 0 {
		percent := strings.IndexByte(s, '%')
		if percent == -1 {
			break
		}

		b.WriteString(s[:percent])
		s = s[percent+1:]
		if len(s) < 2 {
			return "", false
		}

		c1, c2 := s[0], s[1]
		s = s[2:]
		x, y := halfbyte[c1], halfbyte[c2]
		if x|y == 0xFF {
			return "", false
		}

		char := (x << 4) | y
		if IsURLUnsafeChar(char) {
			b.Write([]byte{'%', c1 | 0x20, c2 | 0x20})
			continue
		}

		b.WriteByte(char)
	}

	b.WriteString(s)

	return b.String(), true
}

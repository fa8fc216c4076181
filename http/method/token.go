package method

// tchar as defined by RFC 9110, 5.6.2: any visible ASCII character except delimiters.
var tchars = func() (table [256]bool) {
	for c := '!'; c <= '~'; c++ {
		table[c] = true
	}

	for _, c := range "\"(),/:;<=>?@[\\]{}" {
		table[c] = false
	}

	return table
}()

// IsTChar reports whether the character may appear in a token.
func IsTChar(c byte) bool {
	return tchars[c]
}

// IsToken reports whether the string is a non-empty token. Methods and header field
// names are both tokens.
func IsToken(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		if !tchars[str[i]] {
			return false
		}
	}

	return true
}

package resolver

// Modifier is the classification of location's leading modifier characters.
type Modifier uint8

const (
	None Modifier = iota
	Exact
	CaseSensitive
	CaseInsensitive
	Longest
)

func (m Modifier) String() string {
	switch m {
	case None:
		return "none"
	case Exact:
		return "exact"
	case CaseSensitive:
		return "case-sensitive"
	case CaseInsensitive:
		return "case-insensitive"
	case Longest:
		return "longest"
	default:
		return "unknown"
	}
}

// CheckModifier classifies the leading modifier characters of the location and returns
// the remaining comparable path. Underscore is a mere separator between the modifier and
// the path.
func CheckModifier(location string) (Modifier, string) {
	var tilde, asterisk, caret, equals bool

	i := 0
	for ; i < len(location); i++ {
		switch location[i] {
		case '~':
			tilde = true
		case '*':
			asterisk = true
		case '^':
			caret = true
		case '=':
			equals = true
		case '_':
		default:
			return classify(tilde, asterisk, caret, equals), location[i:]
		}
	}

	return classify(tilde, asterisk, caret, equals), location[i:]
}

func classify(tilde, asterisk, caret, equals bool) Modifier {
	switch {
	case caret && tilde:
		return Longest
	case tilde && asterisk:
		return CaseInsensitive
	case equals:
		return Exact
	case tilde:
		return CaseSensitive
	default:
		return None
	}
}

// StripModifier returns the comparable path of the location.
func StripModifier(location string) string {
	_, path := CheckModifier(location)
	return path
}

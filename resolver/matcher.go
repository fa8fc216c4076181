package resolver

import (
	"regexp"
	"strings"
)

type location struct {
	raw      string
	path     string
	modifier Modifier
	re       *regexp.Regexp
}

// Matcher chooses the location block for a request path the way nginx does:
//
//  1. an exact (=) location equal to the path wins immediately;
//  2. the longest matching prefix location is remembered, and if it's declared with ^~,
//     it wins immediately;
//  3. regular expression locations (~ and ~*) are checked in declaration order, the first
//     match wins;
//  4. otherwise the remembered prefix location wins.
type Matcher struct {
	locations []location
}

// NewMatcher compiles the locations. Regular expressions which fail to compile are
// skipped, so they never match.
func NewMatcher(locations []string) *Matcher {
	m := new(Matcher)

	for _, raw := range locations {
		modifier, path := CheckModifier(raw)
		loc := location{
			raw:      raw,
			path:     path,
			modifier: modifier,
		}

		switch modifier {
		case CaseSensitive, CaseInsensitive:
			expr := path
			if modifier == CaseInsensitive {
				expr = "(?i)" + expr
			}

			re, err := regexp.Compile(expr)
			if err != nil {
				continue
			}

			loc.re = re
		}

		m.locations = append(m.locations, loc)
	}

	return m
}

// Match returns the declared location string of the chosen block and its modifier.
// Empty location means no block matched, so the server-default scope applies.
func (m *Matcher) Match(path string) (string, Modifier) {
	var prefix *location

	for i := range m.locations {
		loc := &m.locations[i]

		switch loc.modifier {
		case Exact:
			if loc.path == path {
				return loc.raw, loc.modifier
			}
		case None, Longest:
			if strings.HasPrefix(path, loc.path) && (prefix == nil || len(loc.path) > len(prefix.path)) {
				prefix = loc
			}
		}
	}

	if prefix != nil && prefix.modifier == Longest {
		return prefix.raw, prefix.modifier
	}

	for _, loc := range m.locations {
		if loc.re != nil && loc.re.MatchString(path) {
			return loc.raw, loc.modifier
		}
	}

	if prefix != nil {
		return prefix.raw, prefix.modifier
	}

	return "", None
}

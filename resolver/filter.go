package resolver

import "github.com/indigo-web/webserv/confdb"

type filterFunc func(entries []confdb.Entry, directive, location string) []string

// FilterByDirective returns values of the first entry, whose directive matches and whose
// location, stripped of modifiers, equals the passed one. Nil is returned if nothing matches.
func FilterByDirective(entries []confdb.Entry, directive, location string) []string {
	for _, entry := range entries {
		if entry.Directive == directive && StripModifier(entry.Location) == location {
			return entry.Values
		}
	}

	return nil
}

// filterByRawLocation does the same as FilterByDirective, but compares locations as
// they are declared, modifiers included.
func filterByRawLocation(entries []confdb.Entry, directive, location string) []string {
	for _, entry := range entries {
		if entry.Directive == directive && entry.Location == location {
			return entry.Values
		}
	}

	return nil
}

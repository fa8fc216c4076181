// Package confdb holds the pre-parsed directive database, which the server is configured
// from. Tokenizing nginx-like configuration syntax is out of its scope: the database is
// loaded from an already structured YAML or JSON document.
package confdb

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Entry is a single directive with its values, scoped to a section and a location.
// The location keeps its leading modifier characters, e.g. "=_/exact" or "~*_\.png$".
type Entry struct {
	Section   string   `yaml:"section" json:"section"`
	Location  string   `yaml:"location" json:"location"`
	Directive string   `yaml:"directive" json:"directive"`
	Values    []string `yaml:"values" json:"values"`
}

// Store is the directive database. Servers maps the virtual server index into its
// directives, Root holds the http-level ones. Lookups never mutate it.
type Store struct {
	Servers map[int][]Entry `yaml:"servers" json:"servers"`
	Root    []Entry         `yaml:"root" json:"root"`
}

func New() *Store {
	return &Store{
		Servers: make(map[int][]Entry),
	}
}

// AddRoot appends an http-level directive.
func (s *Store) AddRoot(directive string, values ...string) *Store {
	s.Root = append(s.Root, Entry{
		Section:   "http",
		Directive: directive,
		Values:    values,
	})

	return s
}

// Add appends a directive to the server. Empty location means the server-default scope.
func (s *Store) Add(server int, location, directive string, values ...string) *Store {
	if s.Servers == nil {
		s.Servers = make(map[int][]Entry)
	}

	section := fmt.Sprintf("http.server[%d]", server)
	if len(location) > 0 {
		section += ".location_" + location
	}

	s.Servers[server] = append(s.Servers[server], Entry{
		Section:   section,
		Location:  location,
		Directive: directive,
		Values:    values,
	})

	return s
}

// Indices returns the server indices in ascending order.
func (s *Store) Indices() []int {
	return slices.Sorted(maps.Keys(s.Servers))
}

// Server returns directives of the server. Unknown index results in nil.
func (s *Store) Server(index int) []Entry {
	return s.Servers[index]
}

// Locations returns the distinct locations declared on the server, in order of their
// first appearance. The server-default scope is not included.
func (s *Store) Locations(index int) (locations []string) {
	for _, entry := range s.Servers[index] {
		if len(entry.Location) > 0 && !slices.Contains(locations, entry.Location) {
			locations = append(locations, entry.Location)
		}
	}

	return locations
}

// Validate checks the structural sanity of the database.
func (s *Store) Validate() error {
	if len(s.Servers) == 0 {
		return ErrNoServers
	}

	for _, entry := range s.Root {
		if err := validateEntry(entry); err != nil {
			return fmt.Errorf("http scope: %w", err)
		}

		if len(entry.Location) > 0 {
			return fmt.Errorf("http scope: directive %q: %w", entry.Directive, ErrLocationInRoot)
		}
	}

	for _, index := range s.Indices() {
		if index < 0 {
			return fmt.Errorf("server %d: %w", index, ErrNegativeIndex)
		}

		for _, entry := range s.Servers[index] {
			if err := validateEntry(entry); err != nil {
				return fmt.Errorf("server %d: %w", index, err)
			}
		}
	}

	return nil
}

func validateEntry(entry Entry) error {
	if len(strings.TrimSpace(entry.Directive)) == 0 {
		return ErrEmptyDirective
	}

	if len(entry.Values) == 0 {
		return fmt.Errorf("directive %q: %w", entry.Directive, ErrNoValues)
	}

	return nil
}

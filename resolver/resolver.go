// Package resolver turns the hierarchical directive database into the effective
// configuration of a single request.
package resolver

import (
	"path"
	"strings"

	"github.com/indigo-web/webserv/confdb"
	"github.com/indigo-web/webserv/config"
)

// Resolver resolves directives of a single virtual server. It's immutable and safe for
// concurrent use.
type Resolver struct {
	store   *confdb.Store
	server  []confdb.Entry
	matcher *Matcher
}

// New returns a resolver for the server. The mode is either config.MatchLiteral or
// config.MatchNginx.
func New(store *confdb.Store, server int, mode string) *Resolver {
	r := &Resolver{
		store:  store,
		server: store.Server(server),
	}

	if mode == config.MatchNginx {
		r.matcher = NewMatcher(store.Locations(server))
	}

	return r
}

// Cascade resolves the directive in specificity order: the location on the server, then
// the server-default scope when a location was requested, then the http scope. It never
// fails: nil means the directive is declared nowhere.
func (r *Resolver) Cascade(directive, location string) []string {
	return r.cascade(directive, location, FilterByDirective)
}

func (r *Resolver) cascade(directive, location string, filter filterFunc) []string {
	if values := filter(r.server, directive, location); len(values) > 0 {
		return values
	}

	if len(location) > 0 {
		if values := filter(r.server, directive, ""); len(values) > 0 {
			return values
		}
	}

	return FilterByDirective(r.store.Root, directive, "")
}

// CleanTarget turns the decoded request path into the target locations are compared
// against: dot segments are removed, so the path never escapes the root, but the trailing
// slash is kept, as "/upload/" and "/upload" are distinct locations.
func CleanTarget(requestPath string) string {
	cleaned := path.Clean("/" + requestPath)
	if len(cleaned) > 1 && strings.HasSuffix(requestPath, "/") {
		cleaned += "/"
	}

	return cleaned
}

// Resolve computes the effective configuration for the request path. Absent or malformed
// directives fall back to defaults.
func (r *Resolver) Resolve(target string) *Effective {
	effective := &Effective{
		Target:   target,
		Location: target,
		resolver: r,
		filter:   FilterByDirective,
	}

	if r.matcher != nil {
		effective.Location, effective.Modifier = r.matcher.Match(target)
		effective.filter = filterByRawLocation
	} else {
		for _, entry := range r.server {
			if modifier, path := CheckModifier(entry.Location); path == target {
				effective.Modifier = modifier
				break
			}
		}
	}

	effective.Root = DefaultRoot
	if values := effective.Lookup("root"); len(values) > 0 && len(values[0]) > 0 {
		effective.Root = values[0]
	}

	effective.ClientMaxBodySize = DefaultClientMaxBodySize
	if values := effective.Lookup("client_max_body_size"); len(values) > 0 {
		if size, ok := ParseSize(values[0]); ok {
			effective.ClientMaxBodySize = size
		}
	}

	if values := effective.Lookup("autoindex"); len(values) > 0 {
		effective.AutoIndex = values[0] == "on"
	}

	return effective
}

package resolver

const (
	DefaultRoot              = "html"
	DefaultClientMaxBodySize = 20971520
)

// Effective is the configuration applicable to a single request. It's created per request
// and must not be cached across requests.
type Effective struct {
	// Target is the request path the configuration was resolved for.
	Target string
	// Location is the location the directives are looked up by. In literal matching mode
	// it's equal to Target, in nginx mode it's the declared location of the chosen block
	// or empty, if none matched.
	Location string
	// Modifier is the classification of the chosen location block.
	Modifier Modifier
	// Root is the filesystem directory the target is resolved against.
	Root string
	// ClientMaxBodySize limits the request body. Zero disables the check.
	ClientMaxBodySize int64
	// AutoIndex enables directory listings.
	AutoIndex bool

	resolver *Resolver
	filter   filterFunc
}

// Lookup resolves any other directive on demand, using the same cascade. Nil means
// the directive is declared nowhere.
func (e *Effective) Lookup(directive string) []string {
	return e.resolver.cascade(directive, e.Location, e.filter)
}

// Value returns the first value of the directive, or the fallback.
func (e *Effective) Value(directive, fallback string) string {
	if values := e.Lookup(directive); len(values) > 0 {
		return values[0]
	}

	return fallback
}

// BodyLimit returns the body size limit in the form body limiters expect it: negative
// value means no limit.
func (e *Effective) BodyLimit() int64 {
	if e.ClientMaxBodySize == 0 {
		return -1
	}

	return e.ClientMaxBodySize
}

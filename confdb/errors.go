package confdb

import "errors"

var (
	ErrNoServers      = errors.New("no servers declared")
	ErrEmptyDirective = errors.New("empty directive name")
	ErrNoValues       = errors.New("directive has no values")
	ErrLocationInRoot = errors.New("locations are not allowed at http scope")
	ErrNegativeIndex  = errors.New("negative server index")
	ErrUnknownFormat  = errors.New("unknown database format")
)

package http1

import (
	"github.com/indigo-web/webserv/config"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/kv"
)

// ParseAll parses a complete message at once using the default settings. The data is
// considered to be the whole input, so an unfinished message results in an error.
func ParseAll(raw []byte) (*http.Request, Result) {
	request := http.NewRequest(kv.New())
	parser := NewParser(config.Default(), request)

	result := parser.Parse(raw)
	if result.Outcome == Pending {
		result = parser.Finish()
	}

	return request, result
}

package config

import (
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

const (
	MatchLiteral = "literal"
	MatchNginx   = "nginx"

	LockGlobal = "global"
	LockPath   = "path"

	LogConsole = "console"
	LogJSON    = "json"
)

type (
	URI struct {
		// MaxRequestLineSize limits the length of the request line, terminating CRLF excluded.
		MaxRequestLineSize int `yaml:"max_request_line_size" json:"max_request_line_size"`
	}

	Headers struct {
		// MaxCount is the maximal number of header (and trailer) fields allowed per message.
		MaxCount int `yaml:"max_count" json:"max_count"`
		// MaxLineSize limits the length of a single header line.
		MaxLineSize int `yaml:"max_line_size" json:"max_line_size"`
		// Prealloc is the initial capacity of request headers storage.
		Prealloc int `yaml:"prealloc" json:"prealloc"`
	}

	Body struct {
		// MaxSize is a hard cap on request bodies, applied when the location doesn't declare
		// a stricter client_max_body_size.
		MaxSize int64 `yaml:"max_size" json:"max_size"`
		// ChunkedPrealloc is the initial capacity of a buffer storing a chunked body.
		ChunkedPrealloc int `yaml:"chunked_prealloc" json:"chunked_prealloc"`
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int `yaml:"read_buffer_size" json:"read_buffer_size"`
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, it'll be closed.
		ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`
		// WriteTimeout limits the transmission of a single response.
		WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	}

	Resolver struct {
		// Mode is either "literal" (locations are matched by plain equality against the
		// request path) or "nginx" (the best location block is chosen by its modifier first).
		Mode string `yaml:"mode" json:"mode"`
	}

	Dispatch struct {
		// Locking is either "global" (one critical section at a time process-wide) or "path"
		// (critical sections are serialized per filesystem path).
		Locking string `yaml:"locking" json:"locking"`
		// Charsets are offered to Accept-Charset negotiation, in order of preference.
		Charsets []string `yaml:"charsets" json:"charsets"`
		// DefaultCharset is used when negotiation yields nothing.
		DefaultCharset string `yaml:"default_charset" json:"default_charset"`
		// Languages are matched against Accept-Language to set Content-Language. Empty list
		// disables the header.
		Languages []string `yaml:"languages" json:"languages" test:"nullable"`
	}

	CGI struct {
		// ServerSoftware is the SERVER_SOFTWARE meta-variable value.
		ServerSoftware string `yaml:"server_software" json:"server_software"`
		// Timeout limits the script execution. Zero disables the limit.
		Timeout time.Duration `yaml:"timeout" json:"timeout" test:"nullable"`
	}

	Log struct {
		Level  string `yaml:"level" json:"level"`
		Format string `yaml:"format" json:"format"`
	}
)

// Config holds the server settings which aren't part of the directive database: mainly
// limits, timeouts and behavioural switches.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	URI      URI      `yaml:"uri" json:"uri"`
	Headers  Headers  `yaml:"headers" json:"headers"`
	Body     Body     `yaml:"body" json:"body"`
	NET      NET      `yaml:"net" json:"net"`
	Resolver Resolver `yaml:"resolver" json:"resolver"`
	Dispatch Dispatch `yaml:"dispatch" json:"dispatch"`
	CGI      CGI      `yaml:"cgi" json:"cgi"`
	Log      Log      `yaml:"log" json:"log"`
}

// Default returns default config.
func Default() *Config {
	return &Config{
		URI: URI{
			MaxRequestLineSize: 8 * 1024,
		},
		Headers: Headers{
			MaxCount:    100,
			MaxLineSize: 8 * 1024,
			Prealloc:    10,
		},
		Body: Body{
			MaxSize:         1 << 30, // 1 gigabyte
			ChunkedPrealloc: 4 * 1024,
		},
		NET: NET{
			ReadBufferSize: 4 * 1024,
			ReadTimeout:    90 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		Resolver: Resolver{
			Mode: MatchLiteral,
		},
		Dispatch: Dispatch{
			Locking:        LockGlobal,
			Charsets:       []string{"UTF-8", "ISO-8859-1", "US-ASCII"},
			DefaultCharset: "UTF-8",
		},
		CGI: CGI{
			ServerSoftware: "webserv/1.0",
		},
		Log: Log{
			Level:  "info",
			Format: LogConsole,
		},
	}
}

// DecodeYAML overrides the config with values presented in the node. Absent fields
// keep their current values.
func (c *Config) DecodeYAML(node *yaml.Node) error {
	if node == nil || node.IsZero() {
		return nil
	}

	if err := node.Decode(c); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	return c.Validate()
}

// DecodeJSON does the same as DecodeYAML, but for a raw JSON object.
func (c *Config) DecodeJSON(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	return c.Validate()
}

// Validate checks enumerated settings and limits.
func (c *Config) Validate() error {
	switch c.Resolver.Mode {
	case MatchLiteral, MatchNginx:
	default:
		return fmt.Errorf("unknown resolver mode: %q", c.Resolver.Mode)
	}

	switch c.Dispatch.Locking {
	case LockGlobal, LockPath:
	default:
		return fmt.Errorf("unknown locking discipline: %q", c.Dispatch.Locking)
	}

	switch c.Log.Format {
	case LogConsole, LogJSON:
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}

	if c.NET.ReadBufferSize <= 0 {
		return fmt.Errorf("read buffer size must be positive, got %d", c.NET.ReadBufferSize)
	}

	if c.Headers.MaxCount <= 0 || c.Headers.MaxLineSize <= 0 || c.URI.MaxRequestLineSize <= 0 {
		return fmt.Errorf("header and request line limits must be positive")
	}

	return nil
}

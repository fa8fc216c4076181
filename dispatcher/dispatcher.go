// Package dispatcher produces responses for parsed requests, given their effective
// configuration.
package dispatcher

import (
	"context"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/indigo-web/webserv/cgi"
	"github.com/indigo-web/webserv/config"
	"github.com/indigo-web/webserv/fs"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/method"
	"github.com/indigo-web/webserv/http/mime"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/strutil"
	"github.com/indigo-web/webserv/resolver"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type handler func(d *Dispatcher, job *job) *http.Response

// Supported is the method table in the order the Allow header lists them.
var Supported = []method.Method{method.GET, method.POST, method.PUT, method.DELETE}

var handlers = map[method.Method]handler{
	method.GET:    (*Dispatcher).get,
	method.POST:   (*Dispatcher).post,
	method.PUT:    (*Dispatcher).put,
	method.DELETE: (*Dispatcher).delete,
}

// Dispatcher is safe for concurrent use. Handlers touching the filesystem or running
// scripts do it inside the critical section of the Locker.
type Dispatcher struct {
	cfg       *config.Config
	store     fs.Store
	runner    cgi.Runner
	locker    Locker
	logger    *zap.Logger
	languages []language.Tag
	matcher   language.Matcher
}

func New(cfg *config.Config, store fs.Store, runner cgi.Runner, locker Locker, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		cfg:    cfg,
		store:  store,
		runner: runner,
		locker: locker,
		logger: logger,
	}

	for _, lang := range cfg.Dispatch.Languages {
		tag, err := language.Parse(lang)
		if err != nil {
			logger.Warn("ignoring malformed language tag", zap.String("tag", lang), zap.Error(err))
			continue
		}

		d.languages = append(d.languages, tag)
	}

	if len(d.languages) > 0 {
		d.matcher = language.NewMatcher(d.languages)
	}

	return d
}

// job carries everything a single request dispatch needs.
type job struct {
	ctx       context.Context
	request   *http.Request
	effective *resolver.Effective
	// urlPath is the cleaned request path.
	urlPath string
	// path is the filesystem path the request path maps onto.
	path string
}

// Dispatch always returns a complete response. Failures of collaborators are logged and
// result in 500 Internal Server Error.
func (d *Dispatcher) Dispatch(ctx context.Context, request *http.Request, effective *resolver.Effective) *http.Response {
	urlPath := cleanPath(request.URI.Path)
	j := &job{
		ctx:       ctx,
		request:   request,
		effective: effective,
		urlPath:   urlPath,
		path:      filepath.Join(effective.Root, filepath.FromSlash(urlPath)),
	}

	return d.withErrorPage(j, d.dispatch(j))
}

func (d *Dispatcher) dispatch(j *job) *http.Response {
	if response, ok := d.redirect(j); ok {
		return response
	}

	allowed := allowedMethods(j.effective)
	m := method.Parse(j.request.Method)
	if !slices.Contains(allowed, m) {
		return http.NewResponse().
			Error(status.ErrMethodNotAllowed).
			SetHeader("Allow", method.Allow(allowed))
	}

	if j.request.BodyMissing {
		return http.NewResponse().Error(status.ErrLengthRequired)
	}

	if limit := j.effective.ClientMaxBodySize; limit > 0 && int64(len(j.request.Body)) > limit {
		return http.NewResponse().Error(status.ErrBodyTooLarge)
	}

	if script, ok := d.matchScript(j); ok {
		return d.cgi(j, script)
	}

	return handlers[m](d, j)
}

// redirect serves the return directive: `return <code> [url]` for redirections and
// `return <code> [text]` for anything else.
func (d *Dispatcher) redirect(j *job) (*http.Response, bool) {
	values := j.effective.Lookup("return")
	if len(values) == 0 {
		return nil, false
	}

	code, err := strconv.Atoi(values[0])
	if err != nil || !status.Valid(code) {
		d.logger.Warn("ignoring malformed return directive", zap.Strings("values", values))
		return nil, false
	}

	response := http.NewResponse().Code(status.Code(code))
	if len(values) < 2 {
		return response, true
	}

	if code >= 300 && code < 400 {
		return response.SetHeader("Location", values[1]), true
	}

	return response.
		ContentType(mime.Plain, mime.UTF8).
		String(strings.Join(values[1:], " ")), true
}

// withErrorPage replaces the body of an error response by the content of the file,
// declared via the error_page directive: `error_page <code>... <path>`.
func (d *Dispatcher) withErrorPage(j *job, response *http.Response) *http.Response {
	fields := response.Expose()
	if fields.Code < 400 {
		return response
	}

	values := j.effective.Lookup("error_page")
	if len(values) < 2 {
		return response
	}

	page := values[len(values)-1]
	code := strconv.Itoa(int(fields.Code))
	if !slices.Contains(values[:len(values)-1], code) {
		return response
	}

	pagePath := filepath.Join(j.effective.Root, filepath.FromSlash(cleanPath(page)))
	content, err := d.store.Read(pagePath)
	if err != nil {
		d.logger.Warn("cannot read error page", zap.String("path", pagePath), zap.Error(err))
		return response
	}

	return response.
		ContentType(mime.FromPath(pagePath, mime.HTML), mime.UTF8).
		Bytes(content)
}

func (d *Dispatcher) internalError(msg string, j *job, err error) *http.Response {
	d.logger.Error(msg,
		zap.String("method", j.request.Method),
		zap.String("path", j.path),
		zap.Error(err),
	)

	return http.NewResponse().Error(status.ErrInternalServerError)
}

func (d *Dispatcher) lock(j *job) func() {
	d.locker.Lock(j.path)
	return func() {
		d.locker.Unlock(j.path)
	}
}

// allowedMethods narrows the method table by the allow_methods directive. Unknown
// methods in the directive are ignored.
func allowedMethods(effective *resolver.Effective) []method.Method {
	values := effective.Lookup("allow_methods")
	if len(values) == 0 {
		return Supported
	}

	var allowed []method.Method
	for _, m := range Supported {
		for _, value := range values {
			if strings.EqualFold(value, m.String()) {
				allowed = append(allowed, m)
				break
			}
		}
	}

	return allowed
}

// cleanPath makes the path rooted and free of dot segments, so it never escapes the root.
func cleanPath(urlPath string) string {
	return path.Clean("/" + urlPath)
}

func serverPort(request *http.Request) string {
	if request.Env.Local != nil {
		return strutil.Port(request.Env.Local.String())
	}

	host := request.Headers.Value("host")
	if name := strutil.StripPort(host); len(name) < len(host) {
		return host[len(name)+1:]
	}

	return "80"
}

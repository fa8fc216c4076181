package dispatcher

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/indigo-web/webserv/cgi"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/mime"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/strutil"
	"go.uber.org/zap"
)

// script is the CGI script the request path points to.
type script struct {
	interpreter string
	// name is the URL path of the script, the rest of the request path is the path info.
	name     string
	pathInfo string
	filename string
}

// matchScript checks the request path against the cgi directive, which consists of
// pattern and interpreter pairs: `cgi <glob> <interpreter> [<glob> <interpreter>...]`.
// The interpreter "-" runs the script directly. Path segments past the script name
// become the path info.
func (d *Dispatcher) matchScript(j *job) (script, bool) {
	values := j.effective.Lookup("cgi")
	if len(values) < 2 {
		return script{}, false
	}

	for name := j.urlPath; len(name) > 1; name = name[:strings.LastIndexByte(name, '/')] {
		relative := strings.TrimPrefix(name, "/")

		for i := 0; i+1 < len(values); i += 2 {
			matched, err := doublestar.Match(values[i], relative)
			if err != nil {
				d.logger.Warn("malformed cgi pattern", zap.String("pattern", values[i]), zap.Error(err))
				continue
			}

			if !matched {
				continue
			}

			filename := filepath.Join(j.effective.Root, filepath.FromSlash(name))
			if info, err := d.store.Stat(filename); err != nil || info.Dir {
				continue
			}

			if abs, err := filepath.Abs(filename); err == nil {
				filename = abs
			}

			interpreter := values[i+1]
			if interpreter == "-" {
				interpreter = ""
			}

			return script{
				interpreter: interpreter,
				name:        name,
				pathInfo:    j.urlPath[len(name):],
				filename:    filename,
			}, true
		}
	}

	return script{}, false
}

func (d *Dispatcher) cgi(j *job, s script) *http.Response {
	env := cgi.BuildEnv(j.request, cgi.Meta{
		ScriptName:     s.name,
		ScriptFilename: s.filename,
		PathInfo:       s.pathInfo,
		ServerName:     j.effective.Value("server_name", strutil.StripPort(j.request.Headers.Value("host"))),
		ServerPort:     serverPort(j.request),
		ServerSoftware: d.cfg.CGI.ServerSoftware,
	})

	unlock := d.lock(j)
	result, err := d.runner.Run(j.ctx, cgi.Command{
		Interpreter: s.interpreter,
		Script:      s.filename,
		Dir:         filepath.Dir(s.filename),
		Env:         env,
		Body:        j.request.Body,
	})
	unlock()

	if err != nil {
		return d.internalError("cgi script failed", j, err)
	}

	if result.ExitStatus != 0 {
		d.logger.Error("cgi script exited with non-zero status",
			zap.String("script", s.filename),
			zap.Int("status", result.ExitStatus),
			zap.ByteString("stderr", result.Stderr),
		)

		return http.NewResponse().Error(status.ErrInternalServerError)
	}

	if len(result.Stderr) > 0 {
		d.logger.Debug("cgi stderr", zap.String("script", s.filename), zap.ByteString("stderr", result.Stderr))
	}

	output := cgi.ParseResponse(result.Output)
	response := http.NewResponse().Code(output.Code)
	for key, value := range output.Headers.Iter() {
		response.Header(key, value)
	}

	if !output.Headers.Has("content-type") {
		response.ContentType(mime.HTML, mime.UTF8)
	}

	return response.
		SetHeader("Cache-Control", "no-cache").
		Bytes(output.Body)
}

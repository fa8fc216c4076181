package dispatcher

import (
	"errors"
	"path"
	"path/filepath"

	"github.com/indigo-web/webserv/fs"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/mime"
	"github.com/indigo-web/webserv/http/status"
	"golang.org/x/text/language"
)

const lastModifiedLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

func (d *Dispatcher) get(j *job) *http.Response {
	unlock := d.lock(j)
	defer unlock()

	info, err := d.store.Stat(j.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.NewResponse().Error(status.ErrNotFound)
	case err != nil:
		return d.internalError("stat failed", j, err)
	}

	if !info.Dir {
		return d.serveFile(j, j.path, info)
	}

	if j.effective.AutoIndex {
		listing, err := d.store.ListDir(j.path, j.urlPath)
		if err != nil {
			return d.internalError("directory listing failed", j, err)
		}

		return http.NewResponse().
			ContentType(mime.HTML, mime.UTF8).
			SetHeader("Cache-Control", "no-cache").
			Bytes(listing)
	}

	for _, index := range j.effective.Lookup("index") {
		indexPath := filepath.Join(j.path, filepath.FromSlash(path.Clean("/"+index)))
		info, err := d.store.Stat(indexPath)
		if err == nil && !info.Dir {
			return d.serveFile(j, indexPath, info)
		}
	}

	return http.NewResponse().Error(status.ErrForbidden)
}

func (d *Dispatcher) serveFile(j *job, filePath string, info fs.Info) *http.Response {
	content, err := d.store.Read(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return http.NewResponse().Error(status.ErrNotFound)
		}

		return d.internalError("read failed", j, err)
	}

	contentType := mime.FromPath(filePath, j.effective.Value("default_type", mime.OctetStream))
	charset := mime.NegotiateCharset(
		j.request.Headers.Value("accept-charset"),
		d.cfg.Dispatch.Charsets,
		d.cfg.Dispatch.DefaultCharset,
	)

	response := http.NewResponse().
		ContentType(contentType, charset).
		SetHeader("Cache-Control", "no-cache").
		Bytes(content)

	if !info.ModTime.IsZero() {
		response.SetHeader("Last-Modified", info.ModTime.UTC().Format(lastModifiedLayout))
	}

	if lang, ok := d.negotiateLanguage(j.request.Headers.Value("accept-language")); ok {
		response.SetHeader("Content-Language", lang)
	}

	return response
}

// negotiateLanguage picks the best of configured languages for the Accept-Language value.
func (d *Dispatcher) negotiateLanguage(acceptLanguage string) (string, bool) {
	if d.matcher == nil || len(acceptLanguage) == 0 {
		return "", false
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "", false
	}

	_, index, confidence := d.matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}

	return d.languages[index].String(), true
}

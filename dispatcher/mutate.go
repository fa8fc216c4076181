package dispatcher

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/webserv/fs"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/mime"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/formdata"
	"github.com/indigo-web/webserv/internal/strutil"
	"go.uber.org/zap"
)

const (
	fileDeletedPage  = "<html><body><h1>File deleted</h1></body></html>"
	fileNotFoundPage = "<html><body><h1>File not found</h1></body></html>"
	internalErrPage  = "<html><body><h1>Internal Server Error</h1></body></html>"
	// uploadAttempts bounds the retries of picking a free name for an uploaded file.
	uploadAttempts = 8
)

func (d *Dispatcher) post(j *job) *http.Response {
	unlock := d.lock(j)
	defer unlock()

	info, err := d.store.Stat(j.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err = d.store.Create(j.path, j.request.Body); err != nil {
			return d.internalError("create failed", j, err)
		}

		return http.NewResponse().
			Code(status.Created).
			SetHeader("Location", j.urlPath)
	case err != nil:
		return d.internalError("stat failed", j, err)
	}

	contentType := j.request.Headers.Value("content-type")
	boundary, hasBoundary := strutil.Param(contentType, "boundary")
	if !mime.Complies(mime.Multipart, contentType) || len(contentType) == 0 || !hasBoundary {
		return http.NewResponse().Error(status.ErrUnsupportedMediaType)
	}

	parts, err := formdata.ParseMultipart(j.request.Body, boundary)
	if err != nil {
		return http.NewResponse().Error(err)
	}

	file, found := formdata.FirstFile(parts)
	name := sanitizeFilename(file.Filename)
	if !found || len(name) == 0 || len(file.Value) == 0 {
		return http.NewResponse().Error(status.NewError(status.BadRequest, "no file in the form"))
	}

	dir, urlDir := j.path, j.urlPath
	if !info.Dir {
		dir, urlDir = filepath.Dir(j.path), path.Dir(j.urlPath)
	}

	stored, err := d.storeUnique(dir, name, file.Value)
	if err != nil {
		return d.internalError("upload failed", j, err)
	}

	d.logger.Debug("file uploaded",
		zap.String("path", filepath.Join(dir, stored)),
		zap.Int("size", len(file.Value)),
	)

	return http.NewResponse().
		Code(status.Created).
		SetHeader("Location", path.Join(urlDir, stored))
}

// storeUnique creates the file in the directory. When the name is taken, a random suffix
// is inserted before the extension.
func (d *Dispatcher) storeUnique(dir, name string, content []byte) (string, error) {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for range uploadAttempts {
		err := d.store.Create(filepath.Join(dir, candidate), content)
		if !errors.Is(err, fs.ErrExist) {
			return candidate, err
		}

		candidate = base + "-" + uniuri.NewLen(8) + ext
	}

	return "", fs.ErrExist
}

func (d *Dispatcher) put(j *job) *http.Response {
	unlock := d.lock(j)
	defer unlock()

	created, err := d.store.Write(j.path, j.request.Body)
	if err != nil {
		return d.internalError("write failed", j, err)
	}

	if created {
		return http.NewResponse().
			Code(status.Created).
			SetHeader("Location", j.urlPath)
	}

	return http.NewResponse().Code(status.NoContent)
}

func (d *Dispatcher) delete(j *job) *http.Response {
	unlock := d.lock(j)
	defer unlock()

	response := http.NewResponse().ContentType(mime.HTML, mime.UTF8)

	if _, err := d.store.Stat(j.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return response.Code(status.NotFound).String(fileNotFoundPage)
		}

		d.logger.Error("stat failed", zap.String("path", j.path), zap.Error(err))
		return response.Code(status.InternalServerError).String(internalErrPage)
	}

	if err := d.store.Remove(j.path); err != nil {
		d.logger.Error("remove failed", zap.String("path", j.path), zap.Error(err))
		return response.Code(status.InternalServerError).String(internalErrPage)
	}

	return response.Code(status.OK).String(fileDeletedPage)
}

// sanitizeFilename drops any directory components of the client-supplied name.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	switch name {
	case ".", "..", "/":
		return ""
	}

	return name
}

package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dchest/uniuri"
)

// OSStore is the Store backed by the operating system filesystem. Writes are atomic:
// the data goes into a temporary file in the same directory first, which then replaces
// the target.
type OSStore struct {
	filePerm, dirPerm os.FileMode
}

func NewOSStore() *OSStore {
	return &OSStore{
		filePerm: 0o644,
		dirPerm:  0o755,
	}
}

func (o *OSStore) Stat(path string) (Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Name:    stat.Name(),
		Size:    stat.Size(),
		Dir:     stat.IsDir(),
		ModTime: stat.ModTime(),
	}, nil
}

func (o *OSStore) Read(path string) ([]byte, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if stat.IsDir() {
		return nil, fmt.Errorf("read %s: %w", path, ErrIsDir)
	}

	return os.ReadFile(path)
}

func (o *OSStore) Write(path string, data []byte) (created bool, err error) {
	stat, err := os.Stat(path)
	switch {
	case err == nil && stat.IsDir():
		return false, fmt.Errorf("write %s: %w", path, ErrIsDir)
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		created = true
	default:
		return false, err
	}

	if err = os.MkdirAll(filepath.Dir(path), o.dirPerm); err != nil {
		return false, err
	}

	tmp, err := o.writeTemp(path, data)
	if err != nil {
		return false, err
	}

	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}

	return created, nil
}

func (o *OSStore) Create(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), o.dirPerm); err != nil {
		return err
	}

	tmp, err := o.writeTemp(path, data)
	if err != nil {
		return err
	}

	// hard link refuses to overwrite the existing file, keeping the creation atomic
	if err = os.Link(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Remove(tmp)
}

func (o *OSStore) Remove(path string) error {
	return os.Remove(path)
}

func (o *OSStore) List(path string) ([]Info, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		stat, err := entry.Info()
		if err != nil {
			// the entry might have been removed in the meantime
			continue
		}

		infos = append(infos, Info{
			Name:    entry.Name(),
			Size:    stat.Size(),
			Dir:     entry.IsDir(),
			ModTime: stat.ModTime(),
		})
	}

	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(a.Name, b.Name)
	})

	return infos, nil
}

func (o *OSStore) ListDir(path, urlPath string) ([]byte, error) {
	entries, err := o.List(path)
	if err != nil {
		return nil, err
	}

	buff := new(bytes.Buffer)
	if err = RenderListing(buff, urlPath, entries); err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

func (o *OSStore) writeTemp(path string, data []byte) (string, error) {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp-"+uniuri.New())

	if err := os.WriteFile(tmp, data, o.filePerm); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	return tmp, nil
}

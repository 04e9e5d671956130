package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Prober answers whether an artifact path is present on durable storage.
type Prober interface {
	Exists(path string) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(path string) bool

func (f ProberFunc) Exists(path string) bool { return f(path) }

// OSProber checks paths against the local file system, optionally relative to
// a project directory.
type OSProber struct {
	// Root is prepended to relative paths. Empty means the working directory.
	Root string
	// OnError, when set, is told about stat failures other than "not exist".
	OnError func(path string, err error)
}

// Exists reports whether path exists. Any stat error, including permission
// problems, counts as absent.
func (p OSProber) Exists(path string) bool {
	if p.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if p.OnError != nil && !errors.Is(err, os.ErrNotExist) {
		p.OnError(path, err)
	}
	return false
}

// Exists reports whether path can be stat'ed.
func Exists(path string) bool {
	return OSProber{}.Exists(path)
}

// Touch creates a zero-byte file at path, creating parent directories as
// needed. An existing file is truncated.
func Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// WriteFileAtomic writes data to a temporary file next to path, syncs it and
// renames it into place, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

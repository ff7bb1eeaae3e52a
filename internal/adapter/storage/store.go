// Package storage publishes artifacts to the local filesystem so readers
// never observe a partially written file.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Store writes artifacts atomically: data goes to a temporary file in the
// target directory, is synced, and is then renamed over the final path.
type Store struct {
	dirPerm  fs.FileMode
	filePerm fs.FileMode
}

// New creates a Store with 0o755 directories and 0o644 files.
func New() *Store {
	return &Store{dirPerm: 0o755, filePerm: 0o644}
}

// Exists reports whether every path exists as a regular file.
func (s *Store) Exists(paths ...string) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	return true
}

// WriteAtomic streams r into path. An existing file at path is replaced.
func (s *Store) WriteAtomic(path string, r io.Reader) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = tmp.Chmod(s.filePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}

// WriteFunc publishes whatever write produces. write must not retain w.
func (s *Store) WriteFunc(path string, write func(w io.Writer) error) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(write(pw))
	}()
	err := s.WriteAtomic(path, pr)
	// Unblock the writer if WriteAtomic failed before draining the pipe.
	_ = pr.CloseWithError(errors.New("artifact write aborted"))
	return err
}

// CopyFile publishes a copy of src at dst.
func (s *Store) CopyFile(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return s.WriteAtomic(dst, f)
}

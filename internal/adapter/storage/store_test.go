package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2023", "01", "01", "frame.png")
	s := New()

	require.NoError(t, s.WriteAtomic(path, strings.NewReader("first")))
	require.NoError(t, s.WriteAtomic(path, strings.NewReader("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Empty(t, tempFiles(t, filepath.Dir(path)))
}

func TestStore_WriteAtomic_FailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	s := New()

	err := s.WriteAtomic(path, io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, tempFiles(t, dir))
}

func TestStore_WriteFunc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	s := New()

	require.NoError(t, s.WriteFunc(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "payload")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	err = s.WriteFunc(filepath.Join(dir, "bad.bin"), func(io.Writer) error {
		return errors.New("encoder failed")
	})
	require.Error(t, err)
	assert.False(t, s.Exists(filepath.Join(dir, "bad.bin")))
}

func TestStore_Exists(t *testing.T) {
	dir := t.TempDir()
	s := New()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))

	assert.True(t, s.Exists(a))
	assert.False(t, s.Exists(a, b))
	assert.False(t, s.Exists())
	assert.False(t, s.Exists(dir), "directories are not artifacts")
}

func TestStore_CopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin.bz2")
	dst := filepath.Join(dir, "out", "dst.bin.bz2")
	require.NoError(t, os.WriteFile(src, []byte("BZh9"), 0o644))

	s := New()
	require.NoError(t, s.CopyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "BZh9", string(data))

	assert.Error(t, s.CopyFile(filepath.Join(dir, "missing"), dst))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	return matches
}

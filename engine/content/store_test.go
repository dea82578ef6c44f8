package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveflow/weaveflow/engine/core"
)

func TestReadFile_MissingReturnsInputMissing(t *testing.T) {
	s := New()
	_, err := s.ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, core.ErrInputMissing, coreErr.Code)
}

func TestReadFile_EmptyPath(t *testing.T) {
	s := New()
	_, err := s.ReadFile("")
	require.Error(t, err)
}

func TestWriteFile_CreatesNestedDirsAndOverwrites(t *testing.T) {
	s := New()
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "out.txt")

	require.NoError(t, s.WriteFile(target, []byte("first")))
	got, err := s.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	require.NoError(t, s.WriteFile(target, []byte("second")))
	got, err = s.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestWriteFileStrict_RefusesExisting(t *testing.T) {
	s := New()
	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")
	require.NoError(t, s.WriteFile(target, []byte("once")))

	err := s.WriteFileStrict(target, []byte("twice"))
	require.Error(t, err)

	got, err := s.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "once", got)
}

func TestListFiles_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.go"), []byte("x"), 0o644))

	s := New()
	files, err := s.ListFiles(dir, "go")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", filepath.Join("sub", "c.go")}, files)
}

func TestListFiles_NoExtensionReturnsAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))

	s := New()
	files, err := s.ListFiles(dir, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", "b.txt"}, files)
}

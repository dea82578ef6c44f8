// Package content implements the Content Store (spec §4.1): reading input
// files, creating output directories, and writing result files. It has no
// caching layer — every read hits the filesystem — and it never mutates
// input files.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/weaveflow/weaveflow/engine/core"
)

// Store is the filesystem-backed Content Store.
type Store struct{}

func New() *Store {
	return &Store{}
}

// ReadFile returns the UTF-8 contents of path. Missing files surface as
// InputMissing per spec §4.1/§7.
func (s *Store) ReadFile(path string) (string, error) {
	if path == "" {
		return "", core.NewError(core.ErrInputMissing, "file path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", core.WrapError(core.ErrInputMissing, fmt.Sprintf("input file not found: %s", path), err)
		}
		return "", core.WrapError(core.ErrIO, fmt.Sprintf("failed to read file: %s", path), err)
	}
	return string(data), nil
}

// EnsureDir creates dir and every missing ancestor. Idempotent.
func (s *Store) EnsureDir(dir string) error {
	if dir == "" {
		return core.NewError(core.ErrIO, "output folder is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to create directory: %s", dir), err)
	}
	return nil
}

// WriteFile writes data to path atomically: write to a temp file in the
// same directory, then rename over the destination. Overwrites
// unconditionally (spec §4.3 edge-case policy, Open Question 2); callers
// that must not clobber an existing file use WriteFileStrict instead.
func (s *Store) WriteFile(path string, data []byte) error {
	if path == "" {
		return core.NewError(core.ErrIO, "output path is empty")
	}
	dir := filepath.Dir(path)
	if err := s.EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".weaveflow-tmp-*")
	if err != nil {
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to create temp file for: %s", path), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to write temp file for: %s", path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to close temp file for: %s", path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to finalize write: %s", path), err)
	}
	return nil
}

// WriteFileStrict behaves like WriteFile but refuses to clobber an
// existing file. This is the "stricter variant...behind a policy flag"
// carved out by spec §4.3 / Open Question 2; it is not the default path.
func (s *Store) WriteFileStrict(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return core.NewError(core.ErrIO, fmt.Sprintf("output already exists: %s", path))
	} else if !os.IsNotExist(err) {
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to stat output: %s", path), err)
	}
	return s.WriteFile(path, data)
}

// ListFiles recursively walks root and returns paths relative to root
// whose extension matches ext (with or without a leading dot). Ordering
// is not specified by the spec; this walks in filepath.WalkDir's
// lexical order, which is stable but not contractually meaningful.
//
// Directory recursion is explicitly out of scope as anything but a
// trivial collaborator (spec §1/§6), so this stays a plain WalkDir scan
// with no glob engine behind it.
func (s *Store) ListFiles(root, ext string) ([]string, error) {
	if root == "" {
		return nil, core.NewError(core.ErrIO, "root is empty")
	}
	ext = normalizeExt(ext)
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, core.WrapError(core.ErrIO, fmt.Sprintf("failed to list files under: %s", root), err)
	}
	return out, nil
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}

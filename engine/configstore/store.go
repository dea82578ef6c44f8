// Package configstore implements the Configuration Store (spec §4.8):
// single-document JSON persistence for the two logical documents the
// system keeps — standalone workflows, and tasks/templates — with a
// per-document write lock, transient-field stripping before save, and
// tolerant reads.
package configstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/weaveflow/weaveflow/engine/core"
)

// Document names the two logical documents the Store manages
// (spec §4.8). Each maps to one JSON file on disk.
type Document string

const (
	AppConfig         Document = "app-config.json"
	MultiFileStream   Document = "multi-file-stream-config.json"
)

// Info describes a document's on-disk presence (spec §4.8 "info").
type Info struct {
	Exists       bool      `json:"exists"`
	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"lastModified,omitempty"`
}

// Store is the filesystem-backed Configuration Store, rooted at dir.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(doc Document) string {
	return filepath.Join(s.dir, string(doc))
}

// Path returns the absolute on-disk path doc is stored at, for
// callers that need to report it (spec §6 "GET /api/config/info").
func (s *Store) Path(doc Document) string {
	return s.path(doc)
}

func (s *Store) lockPath(doc Document) string {
	return s.path(doc) + ".lock"
}

// Load returns the raw JSON of doc, or NotFound when the file is
// absent (spec §4.8 "on load, missing files return an explicit
// NotFound rather than empty defaults").
func (s *Store) Load(doc Document) ([]byte, error) {
	data, err := os.ReadFile(s.path(doc))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewError(core.ErrNotFound, fmt.Sprintf("%s does not exist", doc))
		}
		return nil, core.WrapError(core.ErrIO, fmt.Sprintf("failed to read %s", doc), err)
	}
	if !gjson.ValidBytes(data) {
		return nil, core.NewError(core.ErrConfigInvalid, fmt.Sprintf("%s does not contain valid JSON", doc))
	}
	return data, nil
}

// Save strips transient runtime fields from body, stamps lastUpdated
// and version, and writes the result atomically under doc's write
// lock. body must be a JSON object.
func (s *Store) Save(doc Document, body []byte) error {
	if !gjson.ValidBytes(body) {
		return core.NewError(core.ErrConfigInvalid, "document body is not valid JSON")
	}

	fileLock := flock.New(s.lockPath(doc))
	if err := fileLock.Lock(); err != nil {
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to acquire write lock for %s", doc), err)
	}
	defer fileLock.Unlock()

	stripped := stripTransientFields(body)
	stamped, err := stampMetadata(stripped)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return core.WrapError(core.ErrIO, "failed to create configuration directory", err)
	}

	formatted := pretty.Pretty(stamped)
	tmp, err := os.CreateTemp(s.dir, ".weaveflow-cfg-*")
	if err != nil {
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to stage write for %s", doc), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(formatted); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to write %s", doc), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to close staged write for %s", doc), err)
	}
	if err := os.Rename(tmpName, s.path(doc)); err != nil {
		os.Remove(tmpName)
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to finalize %s", doc), err)
	}
	return nil
}

// Delete removes doc's file. A missing file is not an error.
func (s *Store) Delete(doc Document) error {
	if err := os.Remove(s.path(doc)); err != nil && !os.IsNotExist(err) {
		return core.WrapError(core.ErrIO, fmt.Sprintf("failed to delete %s", doc), err)
	}
	return nil
}

// Info reports doc's existence, size, and modification time.
func (s *Store) Info(doc Document) (Info, error) {
	stat, err := os.Stat(s.path(doc))
	if err != nil {
		if os.IsNotExist(err) {
			return Info{Exists: false}, nil
		}
		return Info{}, core.WrapError(core.ErrIO, fmt.Sprintf("failed to stat %s", doc), err)
	}
	return Info{Exists: true, Size: stat.Size(), LastModified: stat.ModTime()}, nil
}

func stampMetadata(body []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, "failed to decode document for stamping", err)
	}
	doc["lastUpdated"] = time.Now().UTC().Format(time.RFC3339)
	version, _ := doc["version"].(float64)
	doc["version"] = int(version) + 1

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, core.WrapError(core.ErrIO, "failed to re-encode stamped document", err)
	}
	return out, nil
}

// Package storage keeps original and signed PDFs on the filesystem, one
// directory per document, next to a JSON metadata record.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	originalFile = "original.pdf"
	signedFile   = "signed.pdf"
	recordFile   = "record.json"
)

// ErrNotFound is returned for unknown or malformed document IDs.
var ErrNotFound = errors.New("document not found")

// AppliedSignature records one signature placed on a stored document.
type AppliedSignature struct {
	Type      string    `json:"type"`
	Page      int       `json:"pageNumber"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Record is the metadata of a stored document.
type Record struct {
	ID           string             `json:"id"`
	Filename     string             `json:"filename"`
	OriginalPath string             `json:"originalPath"`
	SignedPath   string             `json:"signedPath"`
	Created      time.Time          `json:"created"`
	Signatures   []AppliedSignature `json:"signatures"`
}

// Store is a filesystem document store. It is safe for concurrent use.
type Store struct {
	dir string
	mu  sync.RWMutex

	now   func() time.Time
	newID func() string
}

// New creates dir when needed and returns a store rooted at it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Store{
		dir:   dir,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes both versions of a document and its record. Signatures
// without an AppliedAt time get the creation time of the record.
func (s *Store) Save(filename string, original, signed []byte, sigs []AppliedSignature) (*Record, error) {
	id := s.newID()
	docDir := filepath.Join(s.dir, id)

	rec := &Record{
		ID:           id,
		Filename:     cleanFilename(filename),
		OriginalPath: filepath.Join(docDir, originalFile),
		SignedPath:   filepath.Join(docDir, signedFile),
		Created:      s.now().UTC(),
		Signatures:   make([]AppliedSignature, len(sigs)),
	}
	for i, sig := range sigs {
		if sig.AppliedAt.IsZero() {
			sig.AppliedAt = rec.Created
		}
		rec.Signatures[i] = sig
	}

	meta, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Mkdir(docDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	files := []struct {
		path string
		data []byte
	}{
		{rec.OriginalPath, original},
		{rec.SignedPath, signed},
		{filepath.Join(docDir, recordFile), meta},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o640); err != nil {
			_ = os.RemoveAll(docDir)
			return nil, fmt.Errorf("failed to write %s: %w", filepath.Base(f.path), err)
		}
	}
	return rec, nil
}

// Get returns the record of a stored document.
func (s *Store) Get(id string) (*Record, error) {
	docDir, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(filepath.Join(docDir, recordFile))
	s.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &rec, nil
}

// Original returns the uploaded PDF of a stored document.
func (s *Store) Original(id string) ([]byte, error) {
	return s.read(id, originalFile)
}

// Signed returns the signed PDF of a stored document.
func (s *Store) Signed(id string) ([]byte, error) {
	return s.read(id, signedFile)
}

func (s *Store) read(id, name string) ([]byte, error) {
	docDir, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(docDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// path only accepts canonical UUIDs, so an ID never escapes the root.
func (s *Store) path(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, id), nil
}

func cleanFilename(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return "document.pdf"
	}
	return name
}

// Package blob provides a filesystem-backed object store for uploaded
// return files and generated artifacts. Objects are addressed by storage
// keys such as "uploads/<id>/<filename>"; the store maps keys to paths
// under a single root directory and never follows keys outside it.
package blob

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("blob: object not found")
	ErrInvalidKey = errors.New("blob: invalid storage key")
)

// Store persists objects on the local filesystem under Root and serves
// them back through download URLs rooted at BaseURL.
type Store struct {
	root    string
	baseURL string
}

func NewStore(root, baseURL string) (*Store, error) {
	if root == "" {
		return nil, errors.New("blob: root directory required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Store{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// UploadKey mints a storage key for a freshly uploaded file. The random
// segment keeps concurrent uploads of the same filename from colliding.
func UploadKey(filename string) string {
	return path.Join("uploads", uuid.NewString(), sanitizeFilename(filename))
}

// RunKey mints a storage key for an artifact produced by a verification run.
func RunKey(runID, name string) string {
	return path.Join("runs", runID, sanitizeFilename(name))
}

// WorkbookKey mints a storage key for an assembled filing workbook.
func WorkbookKey() string {
	return path.Join("workbooks", uuid.NewString(), "gstr1.xlsx")
}

// Put writes the object, creating parent directories as needed.
func (s *Store) Put(key string, data []byte) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("blob: create directories for %q: %w", key, err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("blob: write %q: %w", key, err)
	}
	return nil
}

// Get reads the object back. A missing object reports ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("blob: read %q: %w", key, err)
	}
	return data, nil
}

// Exists reports whether the object is present.
func (s *Store) Exists(key string) bool {
	p, err := s.pathFor(key)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(p)
	return statErr == nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *Store) Delete(key string) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %q: %w", key, err)
	}
	return nil
}

// DownloadURL returns the public URL the object can be fetched from.
func (s *Store) DownloadURL(key string) string {
	escaped := make([]string, 0, 4)
	for _, seg := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	return s.baseURL + "/" + strings.Join(escaped, "/")
}

// pathFor validates the key and resolves it under the root. Keys with
// empty, dot or parent segments are rejected so a crafted key can never
// escape the store.
func (s *Store) pathFor(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	segments := strings.Split(key, "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return filepath.Join(s.root, filepath.Join(segments...)), nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "file"
	}
	return name
}

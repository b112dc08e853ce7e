package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore is the default backend: a directory tree rooted at base. Good
// enough for single-node deployments; swap in an object store behind the
// same interface for anything bigger.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data/blobs"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

var errBadKey = errors.New("storage: invalid blob key")

// resolve maps a key to a path strictly inside base.
func (s *FSStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errBadKey
	}
	clean := filepath.Clean("/" + key) // forces any ".." to collapse
	if clean == "/" {
		return "", errBadKey
	}
	return filepath.Join(s.base, clean), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+key)), "/"), nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) Delete(key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Package storage holds submission artifacts (uploaded answer files) under
// opaque keys. Keys are assigned by the upload handler and recorded in the
// submission_files table; the store never interprets them.
package storage

import "io"

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}

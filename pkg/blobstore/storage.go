// Package blobstore provides the keyed byte storage capability the tree
// engine persists nodes through. It is deliberately minimal: put a blob
// under a string key, get it back, and enumerate the keys that exist.
// Implementations dispatch polymorphically on this interface; there is no
// global backend registry.
package blobstore

import "github.com/ssargent/coldtree/pkg/tree/errkind"

// ByteStorage is the capability every node/metadata store in this
// repository is built against. Put overwriting an existing key with
// identical bytes is expected to be a no-op for content-addressed callers,
// since the key is the hash of the bytes being written.
type ByteStorage interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, bool, error)
	Keys() ([]string, error)
	Remove(key string) error
}

// GetOrNotFound fetches key and converts a missing entry into a classified
// errkind.NotFound error, which is the shape every caller in pkg/tree wants.
func GetOrNotFound(s ByteStorage, key string) ([]byte, error) {
	data, ok, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errkind.WrapNotFound(key)
	}
	return data, nil
}

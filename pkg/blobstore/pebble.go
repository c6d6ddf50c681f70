package blobstore

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// PebbleStorage is a ByteStorage backed by a Pebble LSM tree, for
// deployments that want crash-safe, compacting storage for node bytes
// rather than one-file-per-key. Keys are caller-supplied content hashes,
// so no identifier is minted here.
type PebbleStorage struct {
	db *pebble.DB
}

// NewPebbleStorage opens (creating if necessary) a Pebble store at path.
func NewPebbleStorage(path string) (*PebbleStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening pebble store at %s", path)
	}
	return &PebbleStorage{db: db}, nil
}

// Put writes data under key. pebble.NoSync matches the write-through
// discipline at the tree layer: the tree never reads a key back before this
// call returns, so deferring the fsync to Pebble's own WAL cadence is safe.
func (p *PebbleStorage) Put(key string, data []byte) error {
	return p.db.Set([]byte(key), data, pebble.NoSync)
}

// Get reads the bytes stored under key.
func (p *PebbleStorage) Get(key string) ([]byte, bool, error) {
	data, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "reading pebble key %s", key)
	}
	defer closer.Close()

	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

// Keys walks the entire keyspace and returns every key present.
func (p *PebbleStorage) Keys() ([]string, error) {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating pebble iterator")
	}
	defer iter.Close()

	var keys []string
	for valid := iter.First(); valid; valid = iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterating pebble keyspace")
	}
	return keys, nil
}

// Remove deletes key.
func (p *PebbleStorage) Remove(key string) error {
	return p.db.Delete([]byte(key), pebble.NoSync)
}

// Close releases the underlying Pebble handle.
func (p *PebbleStorage) Close() error {
	return p.db.Close()
}

package config

import (
	"fmt"

	"github.com/ssargent/coldtree/pkg/blobstore"
)

// OpenStorage constructs the ByteStorage backend named by s. Callers are
// responsible for Close()-ing the result if the concrete type implements
// io.Closer (Pebble and the log backend both do; the memory and directory
// backends don't need it).
func OpenStorage(s StorageConfig) (blobstore.ByteStorage, error) {
	switch s.Backend {
	case BackendMemory:
		return blobstore.NewMemStorage(), nil
	case BackendDir:
		return blobstore.NewDirStorage(s.Path)
	case BackendPebble:
		return blobstore.NewPebbleStorage(s.Path)
	case BackendLog:
		store, _, err := blobstore.NewLogStorage(s.Path)
		return store, err
	default:
		return nil, fmt.Errorf("unrecognized storage backend %q", s.Backend)
	}
}

package blobstore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const keyHexDigits = "0123456789ABCDEF"

// safeKeyByte reports whether c can appear verbatim in a file name on
// every platform we care about: no path separators, no reserved
// punctuation.
func safeKeyByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case c == '_' || c == '-' || c == '.':
		return true
	}
	return false
}

// encodeKey maps a storage key onto a safe file name. Content-hash keys
// (uppercase hex SHA-256) pass through unchanged; anything else, such as
// the well-known ":roots" metadata key, has each unsafe byte escaped as
// %XX so the file name stays invertible.
func encodeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if safeKeyByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(keyHexDigits[c>>4])
		b.WriteByte(keyHexDigits[c&0x0F])
	}
	return b.String()
}

// decodeKey inverts encodeKey.
func decodeKey(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(name) {
			return "", errors.Newf("blobstore: truncated escape in file name %q", errors.Safe(name))
		}
		hi := strings.IndexByte(keyHexDigits, name[i+1])
		lo := strings.IndexByte(keyHexDigits, name[i+2])
		if hi < 0 || lo < 0 {
			return "", errors.Newf("blobstore: malformed escape in file name %q", errors.Safe(name))
		}
		b.WriteByte(byte(hi<<4 | lo))
		i += 2
	}
	return b.String(), nil
}

// DirStorage is a filesystem-backed ByteStorage: one file per key inside
// a configurable directory. File names are the keys themselves, with any
// filename-unsafe bytes percent-escaped.
type DirStorage struct {
	dir string
}

// NewDirStorage opens (creating if necessary) a directory-backed store.
func NewDirStorage(dir string) (*DirStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating storage directory %s", dir)
	}
	return &DirStorage{dir: dir}, nil
}

func (d *DirStorage) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("blobstore: empty storage key")
	}
	return filepath.Join(d.dir, encodeKey(key)), nil
}

// Put writes data to the file named after key. The write is staged to a
// temp file and renamed into place so a reader never observes a partial
// write.
func (d *DirStorage) Put(key string, data []byte) error {
	target, err := d.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(err, "staging blob write")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing blob")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing staged blob")
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "committing blob write")
	}
	return nil
}

// Get reads the file named after key, returning ok=false if it does not
// exist.
func (d *DirStorage) Get(key string) ([]byte, bool, error) {
	target, err := d.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "reading blob %s", key)
	}
	return data, true, nil
}

// Keys lists every key present in the directory, skipping the temp files
// Put stages writes through.
func (d *DirStorage) Keys() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing storage directory %s", d.dir)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".tmp-") {
			continue
		}
		key, err := decodeKey(name)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Remove deletes the file named after key. Removing an absent key is not
// an error.
func (d *DirStorage) Remove(key string) error {
	target, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing blob %s", key)
	}
	return nil
}

package blobstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/coldtree/pkg/blobstore"
)

// exerciseByteStorage runs the same Put/Get/Keys/Remove contract against
// any ByteStorage implementation.
func exerciseByteStorage(t *testing.T, s blobstore.ByteStorage) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put("a", []byte("hello")))
	require.NoError(t, s.Put("b", []byte("world")))

	data, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), data)

	keys, err := s.Keys()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, keys)

	require.NoError(t, s.Remove("a"))
	_, ok, err = s.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, s.Remove("a"))
}

func TestMemStorage(t *testing.T) {
	exerciseByteStorage(t, blobstore.NewMemStorage())
}

func TestDirStorage(t *testing.T) {
	s, err := blobstore.NewDirStorage(t.TempDir())
	require.NoError(t, err)
	exerciseByteStorage(t, s)
}

// Keys that are not filename-safe, like the well-known ":roots" metadata
// key, must be escaped onto disk and decoded back verbatim by Keys.
func TestDirStorageEscapesUnsafeKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := blobstore.NewDirStorage(dir)
	require.NoError(t, err)

	unsafe := []string{":roots", "../escape", "with space", "per%cent"}
	for _, key := range unsafe {
		require.NoError(t, s.Put(key, []byte(key)))
	}

	for _, key := range unsafe {
		data, ok, err := s.Get(key)
		require.NoError(t, err)
		require.True(t, ok, "key %q should be retrievable", key)
		require.Equal(t, []byte(key), data)
	}

	keys, err := s.Keys()
	require.NoError(t, err)
	require.ElementsMatch(t, unsafe, keys)

	// Escaping keeps every file inside the storage directory.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, len(unsafe))
}

func TestDirStorageRejectsEmptyKey(t *testing.T) {
	s, err := blobstore.NewDirStorage(t.TempDir())
	require.NoError(t, err)

	require.Error(t, s.Put("", []byte("x")))
}

func TestPebbleStorage(t *testing.T) {
	s, err := blobstore.NewPebbleStorage(filepath.Join(t.TempDir(), "pebble"))
	require.NoError(t, err)
	defer s.Close()

	exerciseByteStorage(t, s)
}

func TestLogStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.log")
	s, report, err := blobstore.NewLogStorage(path)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, 0, report.RecordsIndexed)
	require.False(t, report.Truncated)

	exerciseByteStorage(t, s)
}

func TestLogStorageRecoversIndexAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.log")

	s1, _, err := blobstore.NewLogStorage(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put("HASH1", []byte("alpha")))
	require.NoError(t, s1.Put("HASH2", []byte("beta")))
	require.NoError(t, s1.Close())

	s2, report, err := blobstore.NewLogStorage(path)
	require.NoError(t, err)
	defer s2.Close()

	require.Equal(t, 2, report.RecordsIndexed)
	require.False(t, report.Truncated)

	data, ok, err := s2.Get("HASH1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("alpha"), data)
}

func TestLogStoragePutIsIdempotentForSameKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blobs.log")
	s, _, err := blobstore.NewLogStorage(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("HASH1", []byte("alpha")))
	require.NoError(t, s.Put("HASH1", []byte("alpha")))

	keys, err := s.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
}

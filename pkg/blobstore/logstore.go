package blobstore

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/coldtree/pkg/codec"
)

// RecoveryReport summarizes what NewLogStorage found when replaying an
// existing log file: how many records it indexed, and whether a trailing
// torn write (a crash mid-append) was found and truncated.
type RecoveryReport struct {
	RecordsIndexed int
	Truncated      bool
	TruncatedAt    int64
}

// LogStorage is an append-only ByteStorage backend: every Put appends a
// framed record to the end of a single file, and an in-memory offset index
// built at startup (or updated incrementally) answers Get/Keys without
// re-scanning the file. It is adapted from a Bitcask-style keyed log store
// into a content-addressed blob log: because the key is the hash of the
// value, a Put that repeats an indexed key's bytes is a no-op rather than
// a new append, so repeated writes of the same node never grow the log.
type LogStorage struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	codec  *codec.RecordCodec
	offset int64
	index  map[string]indexEntry
}

type indexEntry struct {
	offset int64
	size   int64
}

// NewLogStorage opens (creating if absent) the log file at path and
// replays it to rebuild the offset index. A torn final record — one whose
// header or payload was not fully flushed before a crash — is detected and
// the file is truncated back to the last clean record boundary.
func NewLogStorage(path string) (*LogStorage, *RecoveryReport, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, errors.Wrapf(err, "creating directory for log storage at %s", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening log storage file %s", path)
	}

	ls := &LogStorage{
		file:  file,
		codec: codec.NewRecordCodec(),
		index: make(map[string]indexEntry),
	}

	report, err := ls.recover()
	if err != nil {
		file.Close()
		return nil, nil, err
	}

	if _, err := file.Seek(ls.offset, io.SeekStart); err != nil {
		file.Close()
		return nil, nil, errors.Wrap(err, "seeking to end of recovered log")
	}
	ls.writer = bufio.NewWriter(file)

	return ls, report, nil
}

// recover replays the log from the start, rebuilding the offset index and
// truncating any trailing torn record left by an unclean shutdown.
func (s *LogStorage) recover() (*RecoveryReport, error) {
	report := &RecoveryReport{}

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seeking to start for recovery")
	}
	r := bufio.NewReader(s.file)

	var offset int64
	const headerSize = 20

	for {
		header := make([]byte, headerSize)
		n, err := io.ReadFull(r, header)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			report.Truncated = true
			report.TruncatedAt = offset
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading log record header")
		}
		_ = n

		keySize := int(header[4]) | int(header[5])<<8 | int(header[6])<<16 | int(header[7])<<24
		valueSize := int(header[8]) | int(header[9])<<8 | int(header[10])<<16 | int(header[11])<<24
		payloadSize := keySize + valueSize

		payload := make([]byte, payloadSize)
		if payloadSize > 0 {
			if _, err := io.ReadFull(r, payload); err != nil {
				report.Truncated = true
				report.TruncatedAt = offset
				break
			}
		}

		full := make([]byte, headerSize+payloadSize)
		copy(full, header)
		copy(full[headerSize:], payload)

		record, err := s.codec.Decode(full)
		if err != nil {
			report.Truncated = true
			report.TruncatedAt = offset
			break
		}
		if err := record.Validate(); err != nil {
			report.Truncated = true
			report.TruncatedAt = offset
			break
		}

		s.index[string(record.Key)] = indexEntry{offset: offset, size: int64(len(full))}
		report.RecordsIndexed++
		offset += int64(len(full))
	}

	s.offset = offset
	if report.Truncated {
		if err := s.file.Truncate(offset); err != nil {
			return nil, errors.Wrap(err, "truncating torn trailing record")
		}
	}
	return report, nil
}

// Put appends a blob keyed by key, unless key is already indexed with
// identical bytes: a repeat Put of a content-hash key always carries the
// same bytes and is skipped. A key whose bytes change (such as the
// metadata storage's ":roots" ledger) gets a new record; the index, and
// replay on reopen, keep the latest one.
func (s *LogStorage) Put(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.index[key]; exists {
		buf := make([]byte, entry.size)
		if _, err := s.file.ReadAt(buf, entry.offset); err == nil {
			if record, err := s.codec.Decode(buf); err == nil && string(record.Value) == string(data) {
				return nil
			}
		}
	}

	encoded, err := s.codec.Encode([]byte(key), data)
	if err != nil {
		return errors.Wrapf(err, "encoding log record for key %s", key)
	}

	n, err := s.writer.Write(encoded)
	if err != nil {
		return errors.Wrapf(err, "appending log record for key %s", key)
	}
	if err := s.writer.Flush(); err != nil {
		return errors.Wrap(err, "flushing log writer")
	}
	if err := s.file.Sync(); err != nil {
		return errors.Wrap(err, "fsyncing log file")
	}

	s.index[key] = indexEntry{offset: s.offset, size: int64(n)}
	s.offset += int64(n)
	return nil
}

// Get reads the blob for key directly from its indexed offset, bypassing
// the buffered writer.
func (s *LogStorage) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	entry, ok := s.index[key]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	buf := make([]byte, entry.size)
	if _, err := s.file.ReadAt(buf, entry.offset); err != nil {
		return nil, false, errors.Wrapf(err, "reading log record for key %s at offset %d", key, entry.offset)
	}

	record, err := s.codec.Decode(buf)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decoding log record for key %s", key)
	}
	if err := record.Validate(); err != nil {
		return nil, false, errors.Wrapf(err, "validating log record for key %s", key)
	}
	return record.Value, true, nil
}

// Keys returns every key currently indexed.
func (s *LogStorage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	return keys, nil
}

// Remove drops key from the index. The bytes remain physically present in
// the log file; this backend has no in-place compaction, so reclaiming
// space for unreachable keys requires an offline rewrite, not implemented
// here since garbage collection in this repository only ever needs the
// set of unused keys, not a guarantee they've been physically reclaimed.
func (s *LogStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.index, key)
	return nil
}

// Close flushes and syncs the log file.
func (s *LogStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		return errors.Wrap(err, "flushing log writer on close")
	}
	if err := s.file.Sync(); err != nil {
		return errors.Wrap(err, "syncing log file on close")
	}
	return s.file.Close()
}

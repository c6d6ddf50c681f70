// Package errkind classifies the failure modes of the tree engine into the
// small set of kinds the engine promises to surface: a missing storage key,
// a corrupt encoding, and a detected concurrent access. Invariant violations
// are reported as assertion failures rather than as one of these markers,
// since the engine considers them fatal programmer errors rather than
// something a caller should branch on.
package errkind

import "github.com/cockroachdb/errors"

// Sentinel markers. Use errors.Is(err, errkind.NotFound) to classify an
// error returned from anywhere in the tree, blobstore, or registry packages.
var (
	NotFound   = errors.New("storage key not found")
	Decode     = errors.New("decode failure")
	Concurrent = errors.New("concurrent modification detected")
)

// WrapNotFound returns a NotFound-marked error recording the offending key.
func WrapNotFound(key string) error {
	return errors.Mark(errors.Newf("storage key not found: %s", errors.Safe(key)), NotFound)
}

// WrapDecode marks err as a Decode failure. The raw bytes are deliberately
// not attached to keep error logs bounded; only the key and byte count are.
func WrapDecode(key string, byteLen int, cause error) error {
	return errors.Mark(
		errors.Wrapf(cause, "decode failed for key %s (%d bytes)", errors.Safe(key), errors.Safe(byteLen)),
		Decode,
	)
}

// WrapConcurrent returns a Concurrent-marked error naming the operation op.
func WrapConcurrent(op string) error {
	return errors.Mark(errors.Newf("concurrent modification detected during %s", errors.Safe(op)), Concurrent)
}

// Invariant reports a fatal programmer error: a violated structural
// invariant of the tree. The handle should be considered torn down after
// this is returned.
func Invariant(format string, args ...interface{}) error {
	return errors.AssertionFailedf(format, args...)
}

// IsInvariant reports whether err originated from Invariant.
func IsInvariant(err error) bool {
	return errors.HasAssertionFailure(err)
}

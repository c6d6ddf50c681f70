// Package tree implements the content-addressed B-tree engine: the node
// table, split/splitter selection, load/unload eviction, and the pull-based
// range iterator. It is storage- and comparator-agnostic; callers supply a
// blobstore.ByteStorage pair and an Comparator at construction.
package tree

import "fmt"

// ID identifies a node either as resident (a small integer, valid only for
// the lifetime of one Tree handle) or persisted (a storage key, the content
// hash of the node's encoded bytes). It is a tagged sum rather than a bare
// union of int64/string so the two identity spaces can never be confused.
type ID struct {
	resident   bool
	residentID int64
	storageKey string
}

// Resident constructs a resident node identifier.
func Resident(id int64) ID {
	return ID{resident: true, residentID: id}
}

// Persisted constructs a storage-key node identifier.
func Persisted(key string) ID {
	return ID{resident: false, storageKey: key}
}

// IsResident reports whether id names a resident (in-memory) node.
func (id ID) IsResident() bool { return id.resident }

// ResidentID returns the resident integer id. Only valid when IsResident.
func (id ID) ResidentID() int64 { return id.residentID }

// StorageKey returns the content-hash storage key. Only valid when
// !IsResident.
func (id ID) StorageKey() string { return id.storageKey }

// Equal reports whether two ids name the same node identity (same variant,
// same value).
func (id ID) Equal(other ID) bool {
	if id.resident != other.resident {
		return false
	}
	if id.resident {
		return id.residentID == other.residentID
	}
	return id.storageKey == other.storageKey
}

func (id ID) String() string {
	if id.resident {
		return fmt.Sprintf("R:%d", id.residentID)
	}
	return fmt.Sprintf("H:%s", id.storageKey)
}

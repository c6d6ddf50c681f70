// Package registry implements the root-snapshot ledger and garbage
// identification: a second storage handle (the metadata storage) that
// carries per-node metadata keyed by content hash, plus a single
// well-known key holding the set of named root snapshots.
//
// Nothing here decompresses a node's value payload; every operation reads
// only the small sidecar metadata blobs, so walking even a large tree to
// compute its live set is cheap.
package registry

import (
	"context"
	"encoding/json"
	"runtime"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/coldtree/pkg/blobstore"
	"github.com/ssargent/coldtree/pkg/tree/errkind"
)

// RootsKey is the well-known metadata-storage key under which the set of
// named root snapshots is kept.
const RootsKey = ":roots"

// NodeMetadata is what the metadata storage keeps under a node's storage
// key: enough to walk and size the tree without reading or decompressing
// value payloads. ChildIDs is omitted for leaves.
type NodeMetadata struct {
	ChildIDs         []string `json:"child_ids,omitempty"`
	ValueCount       int      `json:"value_count"`
	StorageByteCount int      `json:"storage_byte_count"`
}

// RootSnapshot is a single named commit of a tree: the content-hash root
// it points at, when it was stored, and caller-supplied metadata. RootID
// is minted at StoreRoot time purely as a stable external handle for
// operators (e.g. coldtreectl roots); ordering and "latest" always
// key off StoredAtNanos, never off RootID.
type RootSnapshot struct {
	RootID        ksuid.KSUID            `json:"root_id"`
	StorageKey    string                 `json:"storage_key"`
	StoredAtNanos int64                  `json:"stored_time"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Registry wraps the metadata ByteStorage with the per-node metadata and
// root-snapshot operations the tree engine and the coldtreectl CLI need.
type Registry struct {
	storage blobstore.ByteStorage
}

// New wraps storage as a Registry.
func New(storage blobstore.ByteStorage) *Registry {
	return &Registry{storage: storage}
}

// PutNodeMetadata records meta under key, overwriting any prior entry.
func PutNodeMetadata(storage blobstore.ByteStorage, key string, meta NodeMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrapf(err, "marshaling node metadata for %s", key)
	}
	return storage.Put(key, data)
}

// GetNodeMetadata fetches the metadata recorded for key, ok=false if none
// exists.
func GetNodeMetadata(storage blobstore.ByteStorage, key string) (NodeMetadata, bool, error) {
	data, ok, err := storage.Get(key)
	if err != nil {
		return NodeMetadata{}, false, err
	}
	if !ok {
		return NodeMetadata{}, false, nil
	}
	var meta NodeMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return NodeMetadata{}, false, errkind.WrapDecode(key, len(data), err)
	}
	return meta, true, nil
}

// PutNodeMetadata is the Registry-bound form of the package function.
func (r *Registry) PutNodeMetadata(key string, meta NodeMetadata) error {
	return PutNodeMetadata(r.storage, key, meta)
}

// GetNodeMetadata is the Registry-bound form of the package function.
func (r *Registry) GetNodeMetadata(key string) (NodeMetadata, bool, error) {
	return GetNodeMetadata(r.storage, key)
}

// Roots returns every root snapshot currently recorded, in no particular
// order. An absent :roots key is an empty tree, not an error.
func (r *Registry) Roots() ([]RootSnapshot, error) {
	data, ok, err := r.storage.Get(RootsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var roots []RootSnapshot
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, errkind.WrapDecode(RootsKey, len(data), err)
	}
	return roots, nil
}

// AppendRoot records a new root snapshot pointing at storageKey, stamped
// with storedAtNanos and the caller-supplied metadata, and returns it. A
// fresh ksuid.KSUID is minted as the snapshot's external identifier.
func (r *Registry) AppendRoot(storageKey string, storedAtNanos int64, metadata map[string]interface{}) (RootSnapshot, error) {
	roots, err := r.Roots()
	if err != nil {
		return RootSnapshot{}, err
	}

	snap := RootSnapshot{
		RootID:        ksuid.New(),
		StorageKey:    storageKey,
		StoredAtNanos: storedAtNanos,
		Metadata:      metadata,
	}
	roots = append(roots, snap)

	data, err := json.Marshal(roots)
	if err != nil {
		return RootSnapshot{}, errors.Wrap(err, "marshaling root snapshot set")
	}
	if err := r.storage.Put(RootsKey, data); err != nil {
		return RootSnapshot{}, err
	}
	return snap, nil
}

// LatestRoot returns the snapshot with the greatest StoredAtNanos, ok=false
// if no roots have been stored yet.
func (r *Registry) LatestRoot() (RootSnapshot, bool, error) {
	roots, err := r.Roots()
	if err != nil {
		return RootSnapshot{}, false, err
	}
	if len(roots) == 0 {
		return RootSnapshot{}, false, nil
	}

	latest := roots[0]
	for _, s := range roots[1:] {
		if s.StoredAtNanos > latest.StoredAtNanos {
			latest = s
		}
	}
	return latest, true, nil
}

// LiveSet computes the transitive closure of storage keys reachable from
// every recorded root via metadata child_ids. It reads metadata only — it
// never fetches or decompresses a node's actual byte payload — and walks
// the tree level by level, fanning each level out across a bounded pool of
// goroutines since a remote-backed metadata storage (e.g. Pebble over a
// network volume) benefits from concurrent fetches; correctness does not
// depend on the parallelism since metadata is immutable once written.
func (r *Registry) LiveSet(ctx context.Context) (map[string]struct{}, error) {
	roots, err := r.Roots()
	if err != nil {
		return nil, err
	}

	live := make(map[string]struct{})
	frontier := make([]string, 0, len(roots))
	for _, s := range roots {
		if _, seen := live[s.StorageKey]; !seen {
			live[s.StorageKey] = struct{}{}
			frontier = append(frontier, s.StorageKey)
		}
	}

	limit := runtime.GOMAXPROCS(0)
	for len(frontier) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)

		childLists := make([][]string, len(frontier))
		for i, key := range frontier {
			i, key := i, key
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				meta, ok, err := r.GetNodeMetadata(key)
				if err != nil {
					return err
				}
				if !ok {
					return errkind.WrapNotFound(key)
				}
				childLists[i] = meta.ChildIDs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []string
		for _, children := range childLists {
			for _, c := range children {
				if _, seen := live[c]; !seen {
					live[c] = struct{}{}
					next = append(next, c)
				}
			}
		}
		frontier = next
	}

	return live, nil
}

// UnusedStorageKeys returns, in sorted order, every key present in
// nodeStorage that is not reachable from any recorded root — the set the
// caller may safely garbage-collect. The core never deletes these itself;
// it only exposes the set.
func (r *Registry) UnusedStorageKeys(ctx context.Context, nodeStorage blobstore.ByteStorage) ([]string, error) {
	live, err := r.LiveSet(ctx)
	if err != nil {
		return nil, err
	}

	keys, err := nodeStorage.Keys()
	if err != nil {
		return nil, err
	}

	var unused []string
	for _, k := range keys {
		if k == RootsKey {
			continue
		}
		if _, ok := live[k]; !ok {
			unused = append(unused, k)
		}
	}
	sort.Strings(unused)
	return unused, nil
}

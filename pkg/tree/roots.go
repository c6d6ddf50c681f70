package tree

import (
	"context"

	"github.com/ssargent/coldtree/pkg/registry"
	"github.com/ssargent/coldtree/pkg/tree/errkind"
)

// StoreRoot commits the tree: evict everything (so the current root is
// necessarily a storage key), then append a new root record under the
// metadata storage's :roots set and cache it as the latest root.
func (t *Tree) StoreRoot(userMetadata map[string]interface{}) (registry.RootSnapshot, error) {
	if err := t.enter("store_root"); err != nil {
		return registry.RootSnapshot{}, err
	}
	defer t.leave()

	if err := t.unloadExcessLocked(0); err != nil {
		return registry.RootSnapshot{}, err
	}

	if t.rootID.IsResident() {
		return registry.RootSnapshot{}, errkind.Invariant("tree: root still resident after unload_tree")
	}

	snap, err := t.registry.AppendRoot(t.rootID.StorageKey(), t.nowNanosFunc(), userMetadata)
	if err != nil {
		return registry.RootSnapshot{}, err
	}
	t.latestRoot = &snap
	return snap, nil
}

// Roots returns every root snapshot recorded in the metadata storage.
func (t *Tree) Roots() ([]registry.RootSnapshot, error) {
	return t.registry.Roots()
}

// LatestRoot returns the cached latest root, falling back to scanning the
// metadata storage's :roots set if nothing has been stored through this
// handle yet (e.g. a freshly opened handle over existing storage).
func (t *Tree) LatestRoot() (registry.RootSnapshot, bool, error) {
	if t.latestRoot != nil {
		return *t.latestRoot, true, nil
	}
	return t.registry.LatestRoot()
}

// UnusedStorageKeys returns every key present in the node storage that is
// not reachable from any recorded root: the garbage set. Nothing is
// deleted here; that decision stays with the caller.
func (t *Tree) UnusedStorageKeys(ctx context.Context) ([]string, error) {
	return t.registry.UnusedStorageKeys(ctx, t.nodeStorage)
}

package tree

import (
	"container/heap"

	"github.com/ssargent/coldtree/pkg/codec"
	"github.com/ssargent/coldtree/pkg/registry"
	"github.com/ssargent/coldtree/pkg/tree/errkind"
)

// usageClock is the indexed priority structure backing least-recently-used
// eviction: a min-heap of (residentID, priority) pairs plus a back-map from
// residentID to its current heap slot, so touch() can update an existing
// entry's priority in O(log n) instead of doing a linear scan.
type usageClock struct {
	next  int64
	items []*usageItem
	index map[int64]*usageItem
}

type usageItem struct {
	id       int64
	priority int64
	slot     int
}

type usageHeap []*usageItem

func (h usageHeap) Len() int            { return len(h) }
func (h usageHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h usageHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].slot, h[j].slot = i, j }
func (h *usageHeap) Push(x interface{}) {
	item := x.(*usageItem)
	item.slot = len(*h)
	*h = append(*h, item)
}
func (h *usageHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newUsageClock() *usageClock {
	return &usageClock{index: make(map[int64]*usageItem)}
}

// touch records an access to id, giving it the newest (largest) priority
// so it is evicted last. The index maps id to the *usageItem directly
// (not a slot number), since usageHeap.Swap relocates items within the
// backing slice on every sift; only the item's own slot field, updated by
// Swap, is current.
func (u *usageClock) touch(id int64) {
	u.next++
	if item, ok := u.index[id]; ok {
		item.priority = u.next
		heap.Fix(u.asHeap(), item.slot)
		return
	}
	item := &usageItem{id: id, priority: u.next}
	heap.Push(u.asHeap(), item)
	u.index[id] = item
}

// remove drops id from the clock entirely, called when the node is
// evicted from the resident table.
func (u *usageClock) remove(id int64) {
	item, ok := u.index[id]
	if !ok {
		return
	}
	heap.Remove(u.asHeap(), item.slot)
	delete(u.index, id)
}

func (u *usageClock) priority(id int64) (int64, bool) {
	item, ok := u.index[id]
	if !ok {
		return 0, false
	}
	return item.priority, true
}

// asHeap exposes u.items as a container/heap.Interface.
func (u *usageClock) asHeap() *usageHeap { return (*usageHeap)(&u.items) }

// leastUsedAmong returns the id with the smallest priority among
// candidates, or false if candidates is empty.
func (u *usageClock) leastUsedAmong(candidates []int64) (int64, bool) {
	var (
		best  int64
		bestP int64
		found bool
	)
	for _, id := range candidates {
		p, ok := u.priority(id)
		if !ok {
			continue
		}
		if !found || p < bestP {
			best, bestP, found = id, p, true
		}
	}
	return best, found
}

// leastUsedCursor finds the next eviction victim: starting at the root,
// repeatedly descend into the resident child with the smallest usage
// priority, until
// reaching a node with no resident children (which is unloadable, since
// everything below it is already on disk).
func (t *Tree) leastUsedCursor() []int64 {
	cursor := []int64{}
	curID := t.rootID
	for {
		if !curID.IsResident() {
			// Parent already rewrote this slot to a storage key by a
			// previous unload; nothing further to do from here.
			break
		}
		id := curID.ResidentID()
		cursor = append(cursor, id)
		node := t.residentNode(id)

		var residentChildren []int64
		for _, c := range node.Children {
			if c.IsResident() {
				residentChildren = append(residentChildren, c.ResidentID())
			}
		}
		if len(residentChildren) == 0 {
			break
		}
		next, ok := t.usage.leastUsedAmong(residentChildren)
		if !ok {
			break
		}
		curID = Resident(next)
	}
	return cursor
}

// Unload evicts the node at the tail of cursor, a root-to-node path of
// resident ids. The node must be a leaf or have no resident children.
func (t *Tree) unload(cursor []int64) error {
	if len(cursor) == 0 {
		return errkind.Invariant("tree: cannot unload an empty cursor")
	}
	id := cursor[len(cursor)-1]
	node := t.residentNode(id)

	for _, c := range node.Children {
		if c.IsResident() {
			return errkind.Invariant("tree: cannot unload node %d, it still has resident children", id)
		}
	}

	childKeys := make([]string, len(node.Children))
	for i, c := range node.Children {
		childKeys[i] = c.StorageKey()
	}

	bytes, err := codec.EncodeNode(node.Values, childKeys)
	if err != nil {
		return err
	}
	key := codec.HashBytes(bytes)

	if err := t.nodeStorage.Put(key, bytes); err != nil {
		return err
	}

	meta := registry.NodeMetadata{ValueCount: len(node.Values), StorageByteCount: len(bytes)}
	if !node.IsLeaf() {
		meta.ChildIDs = childKeys
	}
	if err := registry.PutNodeMetadata(t.metaStorage, key, meta); err != nil {
		return err
	}

	if len(cursor) == 1 {
		t.rootID = Persisted(key)
	} else {
		parentID := cursor[len(cursor)-2]
		parent := t.residentNode(parentID)
		for i, c := range parent.Children {
			if c.IsResident() && c.ResidentID() == id {
				parent.Children[i] = Persisted(key)
				break
			}
		}
	}

	delete(t.nodes, id)
	t.usage.remove(id)
	t.metrics.RecordUnload()
	return nil
}

// UnloadExcess evicts the least-used node repeatedly until the resident
// count is at most maxResident.
func (t *Tree) UnloadExcess(maxResident int) error {
	if err := t.enter("unload_excess"); err != nil {
		return err
	}
	defer t.leave()
	return t.unloadExcessLocked(maxResident)
}

// unloadExcessLocked is the body of UnloadExcess, callable from other
// mutating operations (StoreRoot) that have already entered the handle.
func (t *Tree) unloadExcessLocked(maxResident int) error {
	for len(t.nodes) > maxResident {
		cursor := t.leastUsedCursor()
		if len(cursor) == 0 {
			break
		}
		if err := t.unload(cursor); err != nil {
			return err
		}
	}
	return nil
}

// UnloadTree is UnloadExcess(0).
func (t *Tree) UnloadTree() error {
	return t.UnloadExcess(0)
}

// ResidentCount reports how many nodes are currently resident.
func (t *Tree) ResidentCount() int {
	return len(t.nodes)
}

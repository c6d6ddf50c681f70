package tree

import (
	"time"

	"github.com/ssargent/coldtree/pkg/blobstore"
	"github.com/ssargent/coldtree/pkg/codec"
	"github.com/ssargent/coldtree/pkg/registry"
	"github.com/ssargent/coldtree/pkg/tree/errkind"
)

// MaxValuesDefault is the default fullness threshold.
const MaxValuesDefault = 1001

// FullFunc decides whether a node must be split before further use.
type FullFunc func(n *Node) bool

// Metrics is the instrumentation hook a Tree reports structural events to.
// It is satisfied by pkg/metrics.Collector; defining it here rather than
// importing that package keeps the engine decoupled from any particular
// instrumentation backend.
type Metrics interface {
	RecordSplit()
	RecordLoad()
	RecordUnload()
	RecordEviction()
}

type noopMetrics struct{}

func (noopMetrics) RecordSplit()    {}
func (noopMetrics) RecordLoad()     {}
func (noopMetrics) RecordUnload()   {}
func (noopMetrics) RecordEviction() {}

// Tree is a single content-addressed B-tree handle. It assumes exclusive
// access by one caller at a time; inOp exists only to convert a concurrent-access bug into a
// detectable error rather than silent corruption.
type Tree struct {
	cmp  Comparator
	full FullFunc

	nodes      map[int64]*Node
	nextNodeID int64
	rootID     ID

	usage *usageClock

	nodeStorage blobstore.ByteStorage
	metaStorage blobstore.ByteStorage
	registry    *registry.Registry

	metrics Metrics

	latestRoot   *registry.RootSnapshot
	nowNanosFunc func() int64

	inOp bool // detects concurrent entry into a mutating operation
}

// Option configures a Tree at construction.
type Option func(*Tree)

// WithComparator overrides DefaultComparator.
func WithComparator(cmp Comparator) Option {
	return func(t *Tree) { t.cmp = cmp }
}

// WithMaxValues sets the fullness threshold. It must be odd; New panics
// otherwise, since an even maximum breaks the median-split invariant the
// whole engine relies on.
func WithMaxValues(max int) Option {
	return func(t *Tree) {
		if max%2 == 0 {
			panic("tree: max values must be odd")
		}
		t.full = func(n *Node) bool { return len(n.Values) >= max }
	}
}

// WithFullFunc overrides the fullness predicate directly.
func WithFullFunc(f FullFunc) Option {
	return func(t *Tree) { t.full = f }
}

// WithMetrics attaches an instrumentation collector.
func WithMetrics(m Metrics) Option {
	return func(t *Tree) { t.metrics = m }
}

// WithNowFunc overrides the clock StoreRoot stamps snapshots with. Tests
// use this to get deterministic, strictly-increasing StoredAtNanos values
// without relying on wall-clock resolution.
func WithNowFunc(f func() int64) Option {
	return func(t *Tree) { t.nowNanosFunc = f }
}

func newHandle(nodeStorage, metaStorage blobstore.ByteStorage, opts ...Option) *Tree {
	t := &Tree{
		cmp:          DefaultComparator,
		nodeStorage:  nodeStorage,
		metaStorage:  metaStorage,
		registry:     registry.New(metaStorage),
		nodes:        make(map[int64]*Node),
		usage:        newUsageClock(),
		metrics:      noopMetrics{},
		nowNanosFunc: func() int64 { return time.Now().UnixNano() },
	}
	t.full = func(n *Node) bool { return len(n.Values) >= MaxValuesDefault }

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// New creates a tree with a single empty leaf as root.
func New(nodeStorage, metaStorage blobstore.ByteStorage, opts ...Option) *Tree {
	t := newHandle(nodeStorage, metaStorage, opts...)

	rootID := t.allocID()
	t.nodes[rootID] = &Node{}
	t.rootID = Resident(rootID)
	t.usage.touch(rootID)

	return t
}

// Open attaches a handle to an existing persisted tree rooted at
// rootStorageKey, as recorded by a prior StoreRoot call. The root is left
// as a storage key; it faults in lazily on first use like any other
// persisted node.
func Open(nodeStorage, metaStorage blobstore.ByteStorage, rootStorageKey string, opts ...Option) *Tree {
	t := newHandle(nodeStorage, metaStorage, opts...)
	t.rootID = Persisted(rootStorageKey)
	return t
}

func (t *Tree) allocID() int64 {
	id := t.nextNodeID
	t.nextNodeID++
	return id
}

// enter/leave bracket every exported mutating operation to detect
// concurrent re-entrancy against the same handle.
func (t *Tree) enter(op string) error {
	if t.inOp {
		return errkind.WrapConcurrent(op)
	}
	t.inOp = true
	return nil
}

func (t *Tree) leave() { t.inOp = false }

// residentNode fetches a resident node by id, panicking (as an invariant
// violation) if the table doesn't have it: every ID this package hands out
// as Resident must be in the table until evicted.
func (t *Tree) residentNode(id int64) *Node {
	n, ok := t.nodes[id]
	if !ok {
		panic(errkind.Invariant("resident id %d missing from node table", id))
	}
	return n
}

// resolve returns the resident node for id, faulting it in from storage
// (rewriting parentID's child pointer, or the root pointer if parentID is
// nil) if it is currently persisted.
func (t *Tree) resolve(id ID, parentID *int64, childSlot int) (int64, *Node, error) {
	if id.IsResident() {
		return id.ResidentID(), t.residentNode(id.ResidentID()), nil
	}
	return t.load(parentID, childSlot, id.StorageKey())
}

// load faults a persisted node in: fetch bytes, decode, install as a
// fresh resident node, and rewrite the caller's child pointer (or the
// root pointer) from the storage key to the new resident id.
func (t *Tree) load(parentID *int64, childSlot int, key string) (int64, *Node, error) {
	data, err := blobstore.GetOrNotFound(t.nodeStorage, key)
	if err != nil {
		return 0, nil, err
	}

	values, childKeys, err := codec.DecodeNode(data)
	if err != nil {
		return 0, nil, errkind.WrapDecode(key, len(data), err)
	}

	children := make([]ID, len(childKeys))
	for i, k := range childKeys {
		children[i] = Persisted(k)
	}

	n := t.allocID()
	t.nodes[n] = &Node{Values: values, Children: children}
	t.usage.touch(n)

	if parentID == nil {
		t.rootID = Resident(n)
	} else {
		parent := t.residentNode(*parentID)
		parent.Children[childSlot] = Resident(n)
	}

	t.metrics.RecordLoad()
	return n, t.nodes[n], nil
}

// Add inserts value into the tree, splitting full nodes on the way down
// and faulting persisted children in as needed. Inserting a value already
// present (as a leaf value or a splitter) is a no-op.
func (t *Tree) Add(value interface{}) error {
	if err := t.enter("add"); err != nil {
		return err
	}
	defer t.leave()
	return t.addLocked(value)
}

func (t *Tree) addLocked(value interface{}) error {
	rootResID, rootNode, err := t.resolve(t.rootID, nil, 0)
	if err != nil {
		return err
	}

	if t.full(rootNode) {
		rootResID, rootNode, err = t.splitRoot(rootResID, rootNode)
		if err != nil {
			return err
		}
	}

	curID, curNode := rootResID, rootNode
	for {
		if curNode.IsLeaf() {
			break
		}

		idx, noDescend := childIndex(curNode.Values, value, t.cmp)
		if noDescend {
			// value equals an existing splitter: already represented.
			return nil
		}

		childResID, childNode, err := t.resolve(curNode.Children[idx], &curID, idx)
		if err != nil {
			return err
		}

		if t.full(childNode) {
			if err := t.splitChild(curID, curNode, idx); err != nil {
				return err
			}
			idx, noDescend = childIndex(curNode.Values, value, t.cmp)
			if noDescend {
				return nil
			}
			childResID, childNode, err = t.resolve(curNode.Children[idx], &curID, idx)
			if err != nil {
				return err
			}
		}

		curID, curNode = childResID, childNode
	}

	t.insertSorted(curNode, value)
	t.usage.touch(curID)
	return nil
}

// insertSorted inserts value into n's sorted values, no-op if an equal
// value is already present: a node holds a set, not a multiset.
func (t *Tree) insertSorted(n *Node, value interface{}) {
	lo, hi := 0, len(n.Values)
	for lo < hi {
		mid := (lo + hi) / 2
		c := t.cmp(n.Values[mid], value)
		switch {
		case c == 0:
			return
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	n.Values = append(n.Values, nil)
	copy(n.Values[lo+1:], n.Values[lo:])
	n.Values[lo] = value
}

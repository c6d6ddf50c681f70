package tree

import "github.com/ssargent/coldtree/pkg/tree/errkind"

// childIndex performs splitter selection: given the splitter values of an
// internal node and an incoming value v, find which child v belongs
// under. If v equals a splitter exactly, noDescend is true and
// idx names that splitter (the value is already represented in the
// tree and no insertion happens).
func childIndex(splitters []interface{}, v interface{}, cmp Comparator) (idx int, noDescend bool) {
	for i, s := range splitters {
		c := cmp(v, s)
		switch {
		case c == 0:
			return i, true
		case c < 0:
			return i, false
		}
	}
	return len(splitters), false
}

// medianIndex returns the split point for a values slice of the given
// length. Splits only ever fire at the configured odd maximum 2k+1, for
// which floor division yields the true median k with equal halves on
// either side. Even lengths are not a supported input beyond the helper
// tests.
func medianIndex(length int) int {
	return length / 2
}

// splitRoot wraps the current root under a new, empty root, then
// immediately splits it as that root's only child. This is the only way
// the tree grows in height.
func (t *Tree) splitRoot(oldRootResID int64, oldRoot *Node) (int64, *Node, error) {
	newRootID := t.allocID()
	newRoot := &Node{Children: []ID{Resident(oldRootResID)}}
	t.nodes[newRootID] = newRoot
	t.rootID = Resident(newRootID)
	t.usage.touch(newRootID)

	if err := t.splitChild(newRootID, newRoot, 0); err != nil {
		return 0, nil, err
	}
	return newRootID, newRoot, nil
}

// splitChild partitions the child at parent.Children[childSlot] around
// its median, promoting the median into parent and inserting the freshly
// allocated sibling immediately after the original child.
func (t *Tree) splitChild(parentID int64, parent *Node, childSlot int) error {
	oldChildID := parent.Children[childSlot]
	if !oldChildID.IsResident() {
		panic(errkind.Invariant("tree: split target at slot %d is not resident", childSlot))
	}
	oldChild := t.residentNode(oldChildID.ResidentID())

	mi := medianIndex(len(oldChild.Values))
	median := oldChild.Values[mi]
	lesser := append([]interface{}(nil), oldChild.Values[:mi]...)
	greater := append([]interface{}(nil), oldChild.Values[mi+1:]...)

	newChildID := t.allocID()
	newChild := &Node{Values: greater}

	oldChild.Values = lesser

	if !oldChild.IsLeaf() {
		half := len(oldChild.Children) / 2
		newChild.Children = append([]ID(nil), oldChild.Children[half:]...)
		oldChild.Children = append([]ID(nil), oldChild.Children[:half]...)
	}

	t.nodes[newChildID] = newChild

	parent.Values = insertAt(parent.Values, childSlot, median)
	parent.Children = insertIDAt(parent.Children, childSlot+1, Resident(newChildID))

	t.usage.touch(newChildID)
	t.metrics.RecordSplit()
	return nil
}

func insertAt(s []interface{}, idx int, v interface{}) []interface{} {
	s = append(s, nil)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func insertIDAt(s []ID, idx int, v ID) []ID {
	s = append(s, ID{})
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

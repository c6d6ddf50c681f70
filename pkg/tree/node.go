package tree

// Node holds a sorted set of values and, for internal nodes, one more
// child than it has values: children[i] is strictly between values[i-1]
// and values[i] under the tree's comparator. A node with no children is a
// leaf.
type Node struct {
	Values   []interface{}
	Children []ID
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

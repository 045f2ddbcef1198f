package directive

import "strings"

// Node is either a leaf (requested, no descendants) or a branch holding a subtree.
type Node struct {
	sub *Tree
}

// Leaf returns the leaf marker.
func Leaf() Node { return Node{} }

// Branch wraps t as an internal node. A nil or empty subtree is a leaf.
func Branch(t *Tree) Node {
	if t.Len() == 0 {
		return Node{}
	}
	return Node{sub: t}
}

func (n Node) IsLeaf() bool { return n.sub == nil }

// Children returns the subtree of a branch, or nil for a leaf.
func (n Node) Children() *Tree { return n.sub }

// Tree is an insertion-ordered mapping of keys to nodes.
type Tree struct {
	keys  []string
	nodes map[string]Node
}

func NewTree() *Tree {
	return &Tree{nodes: map[string]Node{}}
}

func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the top-level keys in first-occurrence order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Tree) Get(key string) (Node, bool) {
	if t == nil {
		return Node{}, false
	}
	n, ok := t.nodes[key]
	return n, ok
}

// Has reports whether dottedPath can be walked through the tree.
// Both leaf and internal nodes count. Empty paths and empty components never match.
func (t *Tree) Has(dottedPath string) bool {
	if t == nil || dottedPath == "" {
		return false
	}
	cur := t
	parts := strings.Split(dottedPath, ".")
	for i, part := range parts {
		if part == "" || cur == nil {
			return false
		}
		n, ok := cur.nodes[part]
		if !ok {
			return false
		}
		if i == len(parts)-1 {
			return true
		}
		cur = n.sub
	}
	return false
}

// Paths lists the dotted path of every leaf, depth first, in insertion order.
func (t *Tree) Paths() []string {
	var out []string
	t.walk("", func(path string) { out = append(out, path) })
	return out
}

func (t *Tree) walk(prefix string, fn func(path string)) {
	if t == nil {
		return
	}
	for _, k := range t.keys {
		path := joinPath(prefix, k)
		n := t.nodes[k]
		if n.IsLeaf() {
			fn(path)
			continue
		}
		n.sub.walk(path, fn)
	}
}

// String renders the tree back into a directive string without options.
// Parse(t.String()) yields a tree equal to t.
func (t *Tree) String() string {
	return strings.Join(t.Paths(), ",")
}

// Merge returns a new tree holding the union of t and other.
// Neither input is modified.
func (t *Tree) Merge(other *Tree) *Tree {
	out := t.clone()
	out.absorb(other.clone())
	return out
}

// Equal reports deep structural equality. Key order is ignored.
func (t *Tree) Equal(other *Tree) bool {
	if t.Len() != other.Len() {
		return false
	}
	if t.Len() == 0 {
		return true
	}
	for _, k := range t.keys {
		a := t.nodes[k]
		b, ok := other.nodes[k]
		if !ok || a.IsLeaf() != b.IsLeaf() {
			return false
		}
		if !a.IsLeaf() && !a.sub.Equal(b.sub) {
			return false
		}
	}
	return true
}

func (t *Tree) set(key string, n Node) {
	if _, ok := t.nodes[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.nodes[key] = n
}

// absorb merges src into t, taking ownership of src's subtrees.
func (t *Tree) absorb(src *Tree) {
	if src == nil {
		return
	}
	for _, k := range src.keys {
		incoming := src.nodes[k]
		existing, ok := t.nodes[k]
		if !ok {
			t.set(k, incoming)
			continue
		}
		t.nodes[k] = mergeNodes(existing, incoming)
	}
}

// mergeNodes: leaf+leaf is a leaf, a branch absorbs a leaf, two branches union.
func mergeNodes(a, b Node) Node {
	switch {
	case a.IsLeaf():
		return b
	case b.IsLeaf():
		return a
	default:
		a.sub.absorb(b.sub)
		return a
	}
}

func (t *Tree) clone() *Tree {
	out := NewTree()
	if t == nil {
		return out
	}
	for _, k := range t.keys {
		n := t.nodes[k]
		if n.IsLeaf() {
			out.set(k, Leaf())
			continue
		}
		out.set(k, Node{sub: n.sub.clone()})
	}
	return out
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// HasPath reports whether dottedPath exists in tree.
func HasPath(tree *Tree, dottedPath string) bool {
	return tree.Has(dottedPath)
}

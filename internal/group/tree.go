package group

import (
	"github.com/google/btree"

	"github.com/yairfalse/ec2inv/pkg/host"
)

const degree = 8

// Tree is a node in a nested grouping. Inner nodes hold children ordered by
// key; leaves hold records in input order.
type Tree struct {
	key      string
	dim      Dimension
	size     int
	records  []host.Record
	children *btree.BTreeG[*Tree]
}

func lessKey(a, b *Tree) bool {
	return a.key < b.key
}

// Build partitions records by each dimension in turn. With no dimensions
// the root itself is the only leaf. Records are never deduplicated.
func Build(records []host.Record, dims ...Dimension) *Tree {
	return build("", Dimension{}, records, dims)
}

func build(key string, dim Dimension, records []host.Record, dims []Dimension) *Tree {
	t := &Tree{key: key, dim: dim, size: len(records)}
	if len(dims) == 0 {
		t.records = records
		return t
	}

	next := dims[0]
	parts := make(map[string][]host.Record)
	for _, r := range records {
		k := next.Value(r)
		parts[k] = append(parts[k], r)
	}

	t.children = btree.NewG[*Tree](degree, lessKey)
	for k, part := range parts {
		t.children.ReplaceOrInsert(build(k, next, part, dims[1:]))
	}
	return t
}

// Key returns the dimension value this node groups on. The root's key is empty.
func (t *Tree) Key() string {
	return t.key
}

// Dimension returns the dimension of this node's key.
func (t *Tree) Dimension() Dimension {
	return t.dim
}

// Leaf reports whether the node holds records rather than children.
func (t *Tree) Leaf() bool {
	return t.children == nil
}

// Records returns a leaf's records, or nil for inner nodes.
func (t *Tree) Records() []host.Record {
	return t.records
}

// Len returns the number of records under this node.
func (t *Tree) Len() int {
	return t.size
}

// Keys returns child keys in ascending order.
func (t *Tree) Keys() []string {
	if t.children == nil {
		return nil
	}
	keys := make([]string, 0, t.children.Len())
	t.children.Ascend(func(c *Tree) bool {
		keys = append(keys, c.key)
		return true
	})
	return keys
}

// Child looks up a direct child by key.
func (t *Tree) Child(key string) (*Tree, bool) {
	if t.children == nil {
		return nil, false
	}
	return t.children.Get(&Tree{key: key})
}

// Each calls fn for every child in key order until fn returns false.
func (t *Tree) Each(fn func(*Tree) bool) {
	if t.children == nil {
		return
	}
	t.children.Ascend(fn)
}

// Walk visits every node exactly depth levels below t, depth-first in key
// order, passing the path of steps that leads to it.
func (t *Tree) Walk(depth int, fn func(path []Step, node *Tree)) {
	t.walk(nil, depth, fn)
}

func (t *Tree) walk(path []Step, depth int, fn func([]Step, *Tree)) {
	if depth == 0 {
		fn(path, t)
		return
	}
	t.Each(func(c *Tree) bool {
		next := append(path[:len(path):len(path)], Step{Dim: c.dim, Key: c.key})
		c.walk(next, depth-1, fn)
		return true
	})
}

// Leaves visits every leaf in key order.
func (t *Tree) Leaves(fn func(path []Step, records []host.Record)) {
	t.leaves(nil, fn)
}

func (t *Tree) leaves(path []Step, fn func([]Step, []host.Record)) {
	if t.Leaf() {
		fn(path, t.records)
		return
	}
	t.Each(func(c *Tree) bool {
		next := append(path[:len(path):len(path)], Step{Dim: c.dim, Key: c.key})
		c.leaves(next, fn)
		return true
	})
}

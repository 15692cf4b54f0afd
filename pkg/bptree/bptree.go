// Package bptree implements an in-memory B+ tree keyed by any ordered
// type. Leaves are linked, so ascending scans over the whole key space
// are cheap; the store uses this to keep record ids ordered.
package bptree

import (
	"cmp"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied
// order is too small.
const DefaultOrder = 32

// BPlusTree is an ordered map from K to V. All methods are safe for
// concurrent use; mutations take the tree lock exclusively.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	length int
	mutex  sync.RWMutex
}

// node represents both internal and leaf nodes.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for ordered scans
}

// New creates a B+ tree with the given order. Orders below 3 fall back
// to DefaultOrder.
func New[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root:   &node[K, V]{isLeaf: true},
		order:  order,
		height: 1,
	}
}

// Len returns the number of keys in the tree.
func (t *BPlusTree[K, V]) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.length
}

// Height returns the current height of the tree.
func (t *BPlusTree[K, V]) Height() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.height
}

// Search returns the value stored under key, if any.
func (t *BPlusTree[K, V]) Search(key K) (V, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	leaf := t.findLeaf(key)
	for i, k := range leaf.keys {
		if k == key {
			return leaf.values[i], true
		}
	}
	var zero V
	return zero, false
}

// Insert stores value under key, replacing any existing value.
func (t *BPlusTree[K, V]) Insert(key K, value V) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	leaf := t.findLeaf(key)

	// Replace in place if the key already exists.
	for i, k := range leaf.keys {
		if k == key {
			leaf.values[i] = value
			return
		}
	}

	insertIntoLeaf(leaf, key, value)
	t.length++

	// A node may briefly hold `order` keys; split restores the bound.
	if len(leaf.keys) >= t.order {
		t.splitLeaf(leaf)
	}
}

// Delete removes key from the tree and reports whether it was present.
// Leaves are not merged on underflow; separator keys stay valid for
// routing, they just may no longer exist in any leaf.
func (t *BPlusTree[K, V]) Delete(key K) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	leaf := t.findLeaf(key)
	for i, k := range leaf.keys {
		if k == key {
			leaf.keys = append(leaf.keys[:i], leaf.keys[i+1:]...)
			leaf.values = append(leaf.values[:i], leaf.values[i+1:]...)
			t.length--
			return true
		}
	}
	return false
}

// Ascend calls fn for every key/value pair in ascending key order until
// fn returns false.
func (t *BPlusTree[K, V]) Ascend(fn func(key K, value V) bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	n := t.root
	for !n.isLeaf {
		n = n.children[0]
	}
	for n != nil {
		for i, k := range n.keys {
			if !fn(k, n.values[i]) {
				return
			}
		}
		n = n.next
	}
}

// findLeaf descends from the root to the leaf that would hold key.
func (t *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	n := t.root
	for !n.isLeaf {
		n = n.children[findChildIndex(n.keys, key)]
	}
	return n
}

// findChildIndex determines which child pointer to follow (or where to
// insert a separator) in an internal node.
func findChildIndex[K cmp.Ordered](keys []K, searchKey K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if searchKey < keys[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func insertIntoLeaf[K cmp.Ordered, V any](leaf *node[K, V], key K, value V) {
	idx := findChildIndex(leaf.keys, key)

	leaf.keys = append(leaf.keys, key)
	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	leaf.keys[idx] = key

	leaf.values = append(leaf.values, value)
	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.values[idx] = value
}

// splitLeaf splits an overflowing leaf and pushes the first key of the
// new right sibling up as a separator.
func (t *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	right := &node[K, V]{
		isLeaf: true,
		keys:   append([]K(nil), leaf.keys[mid:]...),
		values: append([]V(nil), leaf.values[mid:]...),
		parent: leaf.parent,
		next:   leaf.next,
	}
	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = right

	t.insertIntoParent(leaf, right.keys[0], right)
}

// splitInternal splits an overflowing internal node, promoting its
// middle key.
func (t *BPlusTree[K, V]) splitInternal(n *node[K, V]) {
	mid := len(n.keys) / 2
	midKey := n.keys[mid]

	right := &node[K, V]{
		keys:     append([]K(nil), n.keys[mid+1:]...),
		children: append([]*node[K, V](nil), n.children[mid+1:]...),
		parent:   n.parent,
	}
	for _, child := range right.children {
		child.parent = right
	}
	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]

	t.insertIntoParent(n, midKey, right)
}

// insertIntoParent links a freshly split right sibling under the parent
// of left, growing a new root when left was the root.
func (t *BPlusTree[K, V]) insertIntoParent(left *node[K, V], key K, right *node[K, V]) {
	if left.parent == nil {
		root := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = root
		right.parent = root
		t.root = root
		t.height++
		return
	}

	parent := left.parent
	idx := findChildIndex(parent.keys, key)

	parent.keys = append(parent.keys, key)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, nil)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = right
	right.parent = parent

	if len(parent.keys) >= t.order {
		t.splitInternal(parent)
	}
}

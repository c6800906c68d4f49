package values

import (
	"sort"
	"strings"
)

// Tree is an owned, read-only value mapping. The backing map is never handed
// out: every accessor returns a deep copy, so holders of the same Tree cannot
// observe each other's mutations.
type Tree struct {
	m map[string]any
}

// New deep-clones m into a Tree.
func New(m map[string]any) Tree {
	return Tree{m: copyMap(m)}
}

// Raw returns a deep copy of the whole mapping.
func (t Tree) Raw() map[string]any {
	return copyMap(t.m)
}

// Len returns the number of top-level keys.
func (t Tree) Len() int {
	return len(t.m)
}

// IsEmpty reports whether the tree holds no keys.
func (t Tree) IsEmpty() bool {
	return len(t.m) == 0
}

// Keys returns the sorted top-level keys.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t.m))
	for k := range t.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns a copy of the value at a dot-separated key path.
// An empty path returns the whole mapping.
func (t Tree) Lookup(path string) (any, bool) {
	if path == "" {
		return t.Raw(), true
	}

	var current any = t.m
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return DeepCopy(current), true
}

// Sub narrows the tree to the mapping at a dot-separated key path.
// A missing path or a non-mapping value yields an empty tree.
func (t Tree) Sub(path string) Tree {
	v, ok := t.Lookup(path)
	if !ok {
		return Tree{m: map[string]any{}}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Tree{m: map[string]any{}}
	}
	return Tree{m: m}
}

// String returns the value at path formatted with %v, or "" if absent.
func (t Tree) String(path string) string {
	v, ok := t.Lookup(path)
	if !ok || v == nil {
		return ""
	}
	return toString(v)
}

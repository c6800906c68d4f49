package mixer

import (
	"github.com/cameronsjo/kerbi/internal/values"
)

// Fragment is one resource-shaped mapping.
type Fragment map[string]any

// Kind returns the kind field, or "".
func (f Fragment) Kind() string {
	s, _ := f["kind"].(string)
	return s
}

// Name returns metadata.name, or "".
func (f Fragment) Name() string {
	s, _ := f.metadata()["name"].(string)
	return s
}

// Namespace returns metadata.namespace, or "".
func (f Fragment) Namespace() string {
	s, _ := f.metadata()["namespace"].(string)
	return s
}

// Labels returns a copy of metadata.labels with string values.
func (f Fragment) Labels() map[string]string {
	out := map[string]string{}
	raw, _ := f.metadata()["labels"].(map[string]any)
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (f Fragment) metadata() map[string]any {
	m, _ := f["metadata"].(map[string]any)
	return m
}

// Clone returns a deep copy.
func (f Fragment) Clone() Fragment {
	return Fragment(values.CopyMap(f))
}

// Map returns a deep copy as a plain map.
func (f Fragment) Map() map[string]any {
	return values.CopyMap(f)
}

// Maps converts fragments to plain maps for serialization.
func Maps(frags []Fragment) []map[string]any {
	out := make([]map[string]any, len(frags))
	for i, f := range frags {
		out[i] = f.Map()
	}
	return out
}

// Fragments coerces input into cloned fragments. A single mapping becomes a
// one-element list. Nil elements and anything that is not a mapping are
// dropped.
func Fragments(input any) []Fragment {
	var items []any
	switch v := input.(type) {
	case nil:
		return []Fragment{}
	case []Fragment:
		for _, f := range v {
			items = append(items, f)
		}
	case []map[string]any:
		for _, m := range v {
			items = append(items, m)
		}
	case []any:
		items = v
	default:
		items = []any{v}
	}

	out := make([]Fragment, 0, len(items))
	for _, item := range items {
		if f, ok := asFragment(item); ok {
			out = append(out, f)
		}
	}
	return out
}

func asFragment(item any) (Fragment, bool) {
	switch v := item.(type) {
	case Fragment:
		if v == nil {
			return nil, false
		}
		return v.Clone(), true
	case map[string]any:
		if v == nil {
			return nil, false
		}
		return Fragment(values.CopyMap(v)), true
	case map[any]any:
		m, ok := values.NormalizeMap(v)
		return Fragment(m), ok
	default:
		return nil, false
	}
}

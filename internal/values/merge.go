package values

import (
	"fmt"
	"reflect"
)

// DeepMerge recursively merges overlay into base and returns a new map.
// Neither input is modified.
// Merge semantics:
//   - Both values are maps: recursive merge
//   - Anything else (lists included): overlay replaces base
func DeepMerge(base, overlay map[string]any) map[string]any {
	result := copyMap(base)

	for key, overlayValue := range overlay {
		baseValue, exists := result[key]
		if !exists {
			result[key] = DeepCopy(overlayValue)
			continue
		}

		baseMap, baseIsMap := baseValue.(map[string]any)
		overlayMap, overlayIsMap := overlayValue.(map[string]any)
		if baseIsMap && overlayIsMap {
			result[key] = DeepMerge(baseMap, overlayMap)
			continue
		}

		result[key] = DeepCopy(overlayValue)
	}

	return result
}

// MergeAll folds layers left to right with DeepMerge. Later layers win.
func MergeAll(layers ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, layer := range layers {
		result = DeepMerge(result, layer)
	}
	return result
}

// copyMap creates a deep copy of a map, never returning nil.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = DeepCopy(v)
	}
	return result
}

// DeepCopy creates a deep copy of any decoded YAML/JSON value.
func DeepCopy(value any) any {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = DeepCopy(val)
		}
		return result
	case map[any]any:
		return DeepCopy(Normalize(v))
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = DeepCopy(val)
		}
		return result
	case []map[string]any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = DeepCopy(val)
		}
		return result
	case []string:
		result := make([]string, len(v))
		copy(result, v)
		return result
	default:
		// Primitive types are immutable, return as-is
		return value
	}
}

// CopyMap deep-copies a mapping. A nil input yields an empty map.
func CopyMap(m map[string]any) map[string]any {
	return copyMap(m)
}

// Normalize converts every map[any]any found in value into map[string]any,
// stringifying keys. Decoders hand back the former for non-string keys.
func Normalize(value any) any {
	switch v := value.(type) {
	case map[any]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[fmt.Sprintf("%v", k)] = Normalize(val)
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = Normalize(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = Normalize(val)
		}
		return result
	default:
		return value
	}
}

// NormalizeMap is Normalize for a value known to be a mapping. Non-mappings
// yield nil and false.
func NormalizeMap(value any) (map[string]any, bool) {
	m, ok := Normalize(value).(map[string]any)
	return m, ok
}

// Diff is a recursive structural diff of two mappings. For each key present in
// either side whose values differ, it records [old, new]; when both sides are
// mappings it recurses instead. Identical values are left out.
func Diff(old, updated map[string]any) map[string]any {
	result := make(map[string]any)

	for _, key := range unionKeys(old, updated) {
		a, b := old[key], updated[key]
		if reflect.DeepEqual(a, b) {
			continue
		}

		aMap, aIsMap := a.(map[string]any)
		bMap, bIsMap := b.(map[string]any)
		if aIsMap && bIsMap {
			result[key] = Diff(aMap, bMap)
			continue
		}

		result[key] = []any{DeepCopy(a), DeepCopy(b)}
	}

	return result
}

func unionKeys(a, b map[string]any) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []map[string]any{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

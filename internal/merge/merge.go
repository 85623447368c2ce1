// Package merge layers string-keyed option maps, strongest layer first.
package merge

// Maps composes layers ordered from strongest to weakest: keys set by a
// stronger layer win, nested string-keyed maps merge recursively, and keys
// missing from stronger layers fill in from weaker ones. Inputs are never
// mutated; nested maps are rebuilt, other values are assigned as-is. The
// result is nil when every layer is empty.
func Maps(layers ...map[string]any) map[string]any {
	var merged map[string]any
	for i := len(layers) - 1; i >= 0; i-- {
		merged = overlay(merged, layers[i])
	}
	return merged
}

// overlay applies strong on top of base. base is owned by the merge and may
// be mutated; strong is read-only.
func overlay(base, strong map[string]any) map[string]any {
	if len(strong) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]any, len(strong))
	}
	for key, value := range strong {
		if strongNested, ok := value.(map[string]any); ok {
			baseNested, _ := base[key].(map[string]any)
			base[key] = overlay(baseNested, strongNested)
			continue
		}
		base[key] = value
	}
	return base
}

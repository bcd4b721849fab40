package research

// The search vendor does not guarantee a stable envelope for organic
// results. Each probe is a pure lookup for one known shape; the first probe
// returning a non-empty array wins.

type shapeProbe func(payload any) []any

var organicProbes = []shapeProbe{
	func(p any) []any { return dig(p, "organic") },
	func(p any) []any { return dig(p, "organic_results") },
	func(p any) []any { return dig(p, "results", "organic") },
	func(p any) []any { return dig(p, "body", "organic") },
	func(p any) []any { return dig(p, "body", "results", "organic") },
	func(p any) []any { return dig(p, "search_results", "organic") },
	func(p any) []any { return dig(p, "response", "organic") },
}

// organicCandidates walks the probe list in order and falls back to treating
// the payload itself as the result array.
func organicCandidates(payload any) []any {
	for _, probe := range organicProbes {
		if items := probe(payload); len(items) > 0 {
			return items
		}
	}
	if items, ok := payload.([]any); ok {
		return items
	}
	return nil
}

// dig descends through nested objects by key and returns the array at the
// end of the path, or nil when any step is missing or mistyped.
func dig(payload any, keys ...string) []any {
	current := payload
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	items, _ := current.([]any)
	return items
}

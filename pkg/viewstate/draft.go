// Package viewstate implements the derived view-state pipeline shared by the
// list-style editing views: draft map seeding from a committed collection,
// AND-composed filtering, bucketed statistics, and commit-time diffing. The
// package is generic over the record payload and the edited value type so one
// implementation serves attendance sheets, resource lists, risk boards, and
// the other editing surfaces.
package viewstate

// Seed builds a fresh draft map covering every universe key. A key whose
// matching record exists takes the record's current value; every other key
// takes fallback. Records outside the universe are ignored. The record
// collection is never mutated, and an empty universe yields an empty map.
func Seed[R any, V comparable](records []R, universe []string, key func(R) string, value func(R) V, fallback V) map[string]V {
	committed := make(map[string]V, len(records))
	for _, r := range records {
		committed[key(r)] = value(r)
	}
	draft := make(map[string]V, len(universe))
	for _, k := range universe {
		if v, ok := committed[k]; ok {
			draft[k] = v
			continue
		}
		draft[k] = fallback
	}
	return draft
}

// Set returns a new draft map with key set to value, leaving the input map
// untouched. Callers that hand the same map reference to multiple closures
// rely on this copy-on-write behavior.
func Set[V comparable](draft map[string]V, key string, value V) map[string]V {
	next := make(map[string]V, len(draft)+1)
	for k, v := range draft {
		next[k] = v
	}
	next[key] = value
	return next
}

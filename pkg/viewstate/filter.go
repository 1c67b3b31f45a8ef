package viewstate

import (
	"cmp"
	"strings"
	"time"
)

// Predicate is a single filter dimension. A nil Predicate is an inactive
// dimension and contributes no constraint.
type Predicate[R any] func(R) bool

// FacetAll is the sentinel facet value meaning "do not filter on this
// dimension", alongside the empty string.
const FacetAll = "all"

// Apply returns the records satisfying every active predicate, preserving the
// original relative order. Nil predicates are skipped; with no active
// predicates the result contains the same elements in the same order. The
// input slice is never modified.
func Apply[R any](records []R, preds ...Predicate[R]) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if matchesAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll[R any](r R, preds []Predicate[R]) bool {
	for _, p := range preds {
		if p == nil {
			continue
		}
		if !p(r) {
			return false
		}
	}
	return true
}

// And combines predicates into one with AND semantics. Nil members are
// skipped; combining zero active predicates yields nil (inactive).
func And[R any](preds ...Predicate[R]) Predicate[R] {
	active := make([]Predicate[R], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(r R) bool { return matchesAll(r, active) }
}

// Search builds a case-insensitive substring predicate over the supplied
// searchable fields. A record matches when any field contains the query. A
// blank query deactivates the dimension.
func Search[R any](query string, fields ...func(R) string) Predicate[R] {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return func(r R) bool {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field(r)), q) {
				return true
			}
		}
		return false
	}
}

// Facet builds an equality predicate on a string-like field. The empty string
// and FacetAll deactivate the dimension.
func Facet[R any, V ~string](get func(R) V, want V) Predicate[R] {
	if want == "" || string(want) == FacetAll {
		return nil
	}
	return func(r R) bool { return get(r) == want }
}

// Within builds an inclusive range predicate on an ordered field.
func Within[R any, V cmp.Ordered](get func(R) V, min, max V) Predicate[R] {
	return func(r R) bool {
		v := get(r)
		return v >= min && v <= max
	}
}

// Before builds a strictly-before predicate on an optional timestamp field.
// Records without a timestamp never match. Overdue semantics combine this
// with an open-status facet: due strictly before now and still open.
func Before[R any](get func(R) *time.Time, cutoff time.Time) Predicate[R] {
	return func(r R) bool {
		t := get(r)
		return t != nil && t.Before(cutoff)
	}
}

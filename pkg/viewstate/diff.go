package viewstate

// Diff computes the minimal change set between a draft map and the committed
// collection: every draft entry whose value differs from its committed
// counterpart, plus entries with no committed counterpart whose drafted value
// differs from fallback. Entries equal to their committed value are never
// included, so persistence layers see no redundant writes. The result is
// computed fresh on every call.
func Diff[R any, V comparable](draft map[string]V, committed []R, key func(R) string, value func(R) V, fallback V) map[string]V {
	current := make(map[string]V, len(committed))
	for _, r := range committed {
		current[key(r)] = value(r)
	}
	diff := make(map[string]V)
	for k, drafted := range draft {
		if existing, ok := current[k]; ok {
			if drafted != existing {
				diff[k] = drafted
			}
			continue
		}
		if drafted != fallback {
			diff[k] = drafted
		}
	}
	return diff
}

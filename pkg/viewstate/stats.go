package viewstate

// CountBy tallies records into the named buckets. Every listed bucket appears
// in the result, with 0 when unseen, so consumers can render a stable set of
// counters. Values outside the listed buckets are still counted under their
// own key, keeping the sum of counts equal to the collection size.
func CountBy[R any, B comparable](records []R, bucket func(R) B, buckets ...B) map[B]int {
	counts := make(map[B]int, len(buckets))
	for _, b := range buckets {
		counts[b] = 0
	}
	for _, r := range records {
		counts[bucket(r)]++
	}
	return counts
}

// Rate returns part/total as a fraction, defined as 0 for an empty
// denominator rather than NaN.
func Rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// Package rating derives a title's displayed rating from its review scores.
package rating

// Mean returns the arithmetic mean of scores at full precision, or nil when
// there are no scores.
func Mean(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}
	var sum int64
	for _, s := range scores {
		sum += int64(s)
	}
	mean := float64(sum) / float64(len(scores))
	return &mean
}

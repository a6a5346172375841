package rubric

import "math"

// Score scale bounds for a single rubric item.
const (
	MinScore = 1
	MaxScore = 5
)

// ComputeTotal aggregates per-item ordinal scores into a 0-100 composite.
//
// Each section contributes mean(item scores)/5 * weight: the weight
// multiplies a fraction of the maximum, so with weights summing to 100 the
// result is directly a percentage. Note the floor is 20, not 0 - the lowest
// ordinal score of 1 still yields a 0.2 fraction. The result is rounded to
// the nearest integer, half up.
//
// The function is pure and never panics; empty sections and weight-sum
// violations are a template-validation concern and simply yield a defined
// (if not meaningful) result here.
func ComputeTotal(sections []ScoringSection) int {
	total := 0.0
	for _, sec := range sections {
		if len(sec.Items) == 0 {
			continue
		}
		sum := 0
		for _, item := range sec.Items {
			sum += item.Score
		}
		average := float64(sum) / float64(len(sec.Items))
		total += average / float64(MaxScore) * float64(sec.Weight)
	}
	return int(math.Floor(total + 0.5))
}

package sorting

import (
	"cmp"
	"fmt"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// IsSorted reports whether data is in non-decreasing order.
func IsSorted[T cmp.Ordered](data []T) bool {
	for i := 1; i < len(data); i++ {
		if data[i] < data[i-1] {
			return false
		}
	}
	return true
}

// Sort runs one bounded slice of alg over rng. Heapsort ignores rng and
// always works on the whole of data.
func Sort[T cmp.Ordered](alg types.Algorithm, data []T, rng types.Range, d *Deadline) (bool, error) {
	switch alg {
	case types.Quicksort:
		return Quicksort(data, rng.Low, rng.High, d), nil
	case types.Mergesort:
		return Mergesort(data, rng.Low, rng.High, d), nil
	case types.Heapsort:
		return Heapsort(data, d), nil
	default:
		return false, fmt.Errorf("%w: %q", types.ErrUnknownAlgorithm, alg)
	}
}

// StepBound is the maximum number of atomic steps alg can need to sort n
// elements across any number of restarted slices. Since every slice that
// yields has completed at least one step, it also bounds the number of
// handoffs a job can take.
func StepBound(alg types.Algorithm, n int) int {
	if n < 2 {
		return 0
	}
	switch alg {
	case types.Heapsort:
		return n/2 + n - 1
	default:
		return n - 1
	}
}

package sorting

import (
	"cmp"
	"sync"
)

// scratchPool holds *[]T suffix-minimum buffers across slices.
var scratchPool sync.Pool

func getScratch[T any](n int) *[]T {
	if p, ok := scratchPool.Get().(*[]T); ok && cap(*p) >= n {
		*p = (*p)[:n]
		return p
	}
	s := make([]T, n)
	return &s
}

// Quicksort sorts data[lo..hi] with Lomuto partitioning (pivot data[hi]).
//
// The range is first cut after every index k where max(data[lo..k]) <=
// min(data[k+1..hi]). Elements never cross such a cut, so each block is
// sorted on its own and a restarted slice skips the blocks earlier slices
// already finished. The cuts are computed once per call.
func Quicksort[T cmp.Ordered](data []T, lo, hi int, d *Deadline) bool {
	if lo >= hi {
		return true
	}

	scratch := getScratch[T](hi - lo + 1)
	defer scratchPool.Put(scratch)
	sufMin := *scratch
	sufMin[hi-lo] = data[hi]
	for k := hi - 1; k >= lo; k-- {
		sufMin[k-lo] = min(data[k], sufMin[k+1-lo])
	}

	q := &quickSorter[T]{data: data, d: d}
	start, prefMax := lo, data[lo]
	for k := lo; k <= hi; k++ {
		// 區塊內的重排不改變 prefMax，也不碰 k 之後的元素
		prefMax = max(prefMax, data[k])
		if k < hi && prefMax > sufMin[k+1-lo] {
			continue
		}
		if k > start && !q.sort(start, k) {
			return false
		}
		start = k + 1
	}
	return true
}

type quickSorter[T cmp.Ordered] struct {
	data []T
	d    *Deadline
}

// sort recurses into the smaller side and loops on the larger one, so the
// stack stays logarithmic.
func (q *quickSorter[T]) sort(lo, hi int) bool {
	for {
		if q.d.Expired() {
			return false
		}
		if lo >= hi || IsSorted(q.data[lo:hi+1]) {
			return true
		}

		p := partition(q.data, lo, hi)
		q.d.step()

		if p-lo < hi-p {
			if !q.sort(lo, p-1) {
				return false
			}
			lo = p + 1
		} else {
			if !q.sort(p+1, hi) {
				return false
			}
			hi = p - 1
		}
	}
}

// partition is the Lomuto scheme. It is never interrupted.
func partition[T cmp.Ordered](data []T, lo, hi int) int {
	pivot := data[hi]
	i := lo - 1
	for j := lo; j < hi; j++ {
		if data[j] <= pivot {
			i++
			data[i], data[j] = data[j], data[i]
		}
	}
	data[i+1], data[hi] = data[hi], data[i+1]
	return i + 1
}

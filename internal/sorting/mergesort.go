package sorting

import "cmp"

// Mergesort sorts data[lo..hi] with a stable top-down mergesort.
func Mergesort[T cmp.Ordered](data []T, lo, hi int, d *Deadline) bool {
	if lo >= hi {
		return true
	}
	m := &mergeSorter[T]{data: data, d: d, tmp: make([]T, 0, hi-lo+1)}
	return m.sort(lo, hi)
}

type mergeSorter[T cmp.Ordered] struct {
	data []T
	d    *Deadline
	tmp  []T
}

func (m *mergeSorter[T]) sort(lo, hi int) bool {
	if m.d.Expired() {
		return false
	}
	if lo >= hi || IsSorted(m.data[lo:hi+1]) {
		return true
	}

	mid := lo + (hi-lo)/2
	if !m.sort(lo, mid) {
		return false
	}
	if !m.sort(mid+1, hi) {
		return false
	}
	m.merge(lo, mid, hi)
	m.d.step()
	return true
}

// merge combines the sorted runs data[lo..mid] and data[mid+1..hi]. Ties
// take the left element first, which keeps the sort stable.
func (m *mergeSorter[T]) merge(lo, mid, hi int) {
	data := m.data
	left := append(m.tmp[:0], data[lo:mid+1]...)

	i, j, k := 0, mid+1, lo
	for i < len(left) && j <= hi {
		if left[i] <= data[j] {
			data[k] = left[i]
			i++
		} else {
			data[k] = data[j]
			j++
		}
		k++
	}
	// Whatever is left of the right run is already in place.
	copy(data[k:], left[i:])
	m.tmp = left
}

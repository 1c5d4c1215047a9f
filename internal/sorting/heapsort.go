package sorting

import "cmp"

// Heapsort sorts the whole of data in place.
func Heapsort[T cmp.Ordered](data []T, d *Deadline) bool {
	end := settled(data)
	if end <= 1 {
		return true
	}

	if !isMaxHeap(data[:end]) {
		for i := end/2 - 1; i >= 0; i-- {
			if d.Expired() {
				return false
			}
			if siftDown(data, i, end) {
				d.step()
			}
		}
	}

	for i := end - 1; i > 0; i-- {
		if d.Expired() {
			return false
		}
		data[0], data[i] = data[i], data[0]
		siftDown(data, 0, i)
		d.step()
	}
	return true
}

// settled returns the start of the longest sorted suffix whose elements are
// all >= everything before them. Those elements are in their final place.
func settled[T cmp.Ordered](data []T) int {
	n := len(data)
	if n < 2 {
		return n
	}
	prefMax := make([]T, n)
	prefMax[0] = data[0]
	for i := 1; i < n; i++ {
		prefMax[i] = max(prefMax[i-1], data[i])
	}

	s := n
	for s > 1 {
		v := data[s-1]
		if v < prefMax[s-2] || (s < n && v > data[s]) {
			break
		}
		s--
	}
	return s
}

func isMaxHeap[T cmp.Ordered](data []T) bool {
	for i := 1; i < len(data); i++ {
		if data[(i-1)/2] < data[i] {
			return false
		}
	}
	return true
}

// siftDown restores the heap property below root within data[:n] and
// reports whether anything moved.
func siftDown[T cmp.Ordered](data []T, root, n int) bool {
	moved := false
	for {
		largest := root
		left := 2*root + 1
		right := left + 1
		if left < n && data[left] > data[largest] {
			largest = left
		}
		if right < n && data[right] > data[largest] {
			largest = right
		}
		if largest == root {
			return moved
		}
		data[root], data[largest] = data[largest], data[root]
		root = largest
		moved = true
	}
}

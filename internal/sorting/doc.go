// Package sorting implements bounded, restartable variants of quicksort,
// mergesort and heapsort that operate in place and yield at checkpoints once
// a slice deadline has passed.
//
// # Checkpoints
//
// Quicksort and mergesort check the deadline at the entry of every recursive
// call, so preemption happens between two recursive calls and never inside a
// partition or a merge. Heapsort checks before every sift-down of the
// build-heap phase and before every swap+sift of the extract phase.
//
// # Restarting
//
// A yielded slice is restarted from the top over the same range on the
// partially sorted buffer. Each algorithm recognises the work earlier slices
// left behind:
//   - mergesort skips sub-ranges that are already sorted;
//   - quicksort splits a range at every index where the left side is <= the
//     right side and only partitions blocks without such a split;
//   - heapsort keeps the settled maximum suffix and skips build-heap when the
//     remaining prefix is already a max-heap.
//
// A Deadline only expires after the slice has finished at least one atomic
// step, so every slice moves the buffer strictly closer to sorted and the
// number of slices a sort can take is bounded by StepBound.
package sorting

package join

import "simjoin/pkg/types"

// partitionBounds splits total rows into n contiguous [lo, hi) ranges.
// Sizes differ by at most one row: the first total%n partitions hold one
// extra. The ranges are pairwise disjoint and cover [0, total) in order, so
// concatenating the partitions reproduces the input exactly.
//
// Callers must ensure 1 <= n and, for non-empty inputs, n <= total.
func partitionBounds(total, n int) [][2]int {
	bounds := make([][2]int, n)
	base := total / n
	rem := total % n

	lo := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		bounds[i] = [2]int{lo, lo + size}
		lo += size
	}
	return bounds
}

// partitionRows slices the snapshot's rows into n contiguous partitions.
// The partitions alias the snapshot's backing array; the snapshot is
// immutable for the duration of a run, so sharing is safe.
func partitionRows(s *snapshot, n int) [][][]types.Value {
	bounds := partitionBounds(s.Len(), n)
	parts := make([][][]types.Value, n)
	for i, b := range bounds {
		parts[i] = s.rows[b[0]:b[1]]
	}
	return parts
}

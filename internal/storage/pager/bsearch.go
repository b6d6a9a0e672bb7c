package pager

// binarySearchBy is a lower-bound search over [0, n). The comparator
// reports how element i orders against the target (<0, 0, >0). It returns
// (i, true) on an exact match and (insertion point, false) otherwise.
func binarySearchBy(n int, cmp func(i int) int) (int, bool) {
	start, end := 0, n
	for start < end {
		mid := (start + end) / 2
		switch c := cmp(mid); {
		case c < 0:
			start = mid + 1
		case c > 0:
			end = mid
		default:
			return mid, true
		}
	}
	return start, false
}

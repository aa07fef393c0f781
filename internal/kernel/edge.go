package kernel

// Taps resolves the four input cells (iMinus1, i, iPlus1, iPlus2) feeding
// the chroma filter of output column x in a row of the given output width.
//
//	interior   3 <= x <= width-4   i-1, i, i+1, i+2
//	left edge  x < 3               0,   i, i+1, i+2
//	right edge x > width-4         i-1, i, last, last
//
// In Standard mode last is the final cell, width/2-1, and every index is
// finally clamped into [0, width/2): a no-op for width >= 8 that keeps
// narrower rows in bounds. In Legacy mode last is width/4-1 and no clamp is
// applied; callers must ensure width >= MinLegacyWidth.
func Taps(x, width int, mode Mode) (iMinus1, i, iPlus1, iPlus2 int) {
	i = x >> 1
	switch {
	case x < 3:
		iMinus1, iPlus1, iPlus2 = 0, i+1, i+2
	case x > width-4:
		last := width>>1 - 1
		if mode == Legacy {
			last = width>>2 - 1
		}
		iMinus1, iPlus1, iPlus2 = i-1, last, last
	default:
		iMinus1, iPlus1, iPlus2 = i-1, i+1, i+2
	}
	if mode == Legacy {
		return iMinus1, i, iPlus1, iPlus2
	}
	n := width >> 1
	return clampIndex(iMinus1, n), i, clampIndex(iPlus1, n), clampIndex(iPlus2, n)
}

// clampIndex returns index clamped to [0, size-1].
func clampIndex(index, size int) int {
	if index < 0 {
		return 0
	}
	if index >= size {
		return size - 1
	}
	return index
}

// interiorCells returns the inclusive range of cells whose odd output column
// uses the unclamped interior taps. lo > hi when the row has none.
func interiorCells(width int) (lo, hi int) {
	// odd x = 2i+1 with 3 <= x <= width-4  <=>  1 <= i <= width/2-3
	return 1, width>>1 - 3
}

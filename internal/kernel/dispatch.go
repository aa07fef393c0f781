package kernel

// Pixel returns output pixel (x, y). src holds rows of packed cells, stride
// bytes apart; width is the output width. The caller guarantees
// 0 <= x < width, that row y exists and that it holds width/2 cells.
func Pixel(src []byte, stride, x, y, width int, mode Mode) [4]uint8 {
	return RowPixel(src[y*stride:], x, width, mode)
}

// RowPixel is Pixel on a single row.
func RowPixel(row []byte, x, width int, mode Mode) [4]uint8 {
	i := x >> 1
	c := row[4*i : 4*i+4 : 4*i+4]
	if x&1 == 0 {
		// Even column: the cell's own Y0 and chroma, no neighbours.
		return YUVToRGBA(c[0], c[1], c[3])
	}
	m1, _, p1, p2 := Taps(x, width, mode)
	u, v := UpsampleUV(row, m1, i, p1, p2, mode)
	return YUVToRGBA(c[2], u, v)
}

// ConvertRowScalar converts a row one output pixel at a time through
// RowPixel. It is the reference the other row converters must match.
func ConvertRowScalar(dst, row []byte, width int, mode Mode) {
	dst = dst[:4*width]
	for x := 0; x < width; x++ {
		p := RowPixel(row, x, width, mode)
		copy(dst[4*x:4*x+4], p[:])
	}
}

// ConvertRowPacked converts a row cell by cell, filtering both chroma
// channels of interior odd columns in one packed word. Edge columns go
// through Taps like the scalar path.
func ConvertRowPacked(dst, row []byte, width int, mode Mode) {
	n := width >> 1
	dst = dst[:8*n]
	row = row[:4*n]

	lo, hi := interiorCells(width)
	for i := 0; i < n; i++ {
		c := row[4*i : 4*i+4 : 4*i+4]
		d := dst[8*i : 8*i+8 : 8*i+8]
		putRGBA(d[0:4], c[0], c[1], c[3])

		if i < lo || i > hi {
			m1, _, p1, p2 := Taps(2*i+1, width, mode)
			u, v := UpsampleUV(row, m1, i, p1, p2, mode)
			putRGBA(d[4:8], c[2], u, v)
			continue
		}

		m1, p1 := i-1, i+1
		if mode == Legacy {
			m1, p1 = p1, m1
		}
		u, v := interp4Packed(loadUV(row, m1), loadUV(row, i), loadUV(row, p1), loadUV(row, i+2))
		putRGBA(d[4:8], c[2], u, v)
	}
}

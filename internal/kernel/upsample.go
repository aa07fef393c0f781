package kernel

// Horizontal chroma upsampling, 4:2:2 -> 4:4:4.
//
// The chroma of an odd output column sits halfway between input cells i and
// i+1 and is reconstructed with the 4-tap kernel
//
//	c' = (-c[i-1] + 9*c[i] + 9*c[i+1] - c[i+2] + 8) >> 4
//
// The weights sum to 16, so a constant chroma row comes back unchanged.

// Interp4 applies the 4-tap filter to one chroma channel. The shift is
// arithmetic, so negative overshoot clips to 0.
func Interp4(cm1, c0, c1, c2 uint8) uint8 {
	return Clip8b((9*(int(c0)+int(c1)) - (int(cm1) + int(c2)) + 8) >> 4)
}

// UpsampleUV returns the interpolated (u, v) pair for cell i of row, given
// the taps resolved by Taps.
func UpsampleUV(row []byte, iMinus1, i, iPlus1, iPlus2 int, mode Mode) (u, v uint8) {
	if mode == Legacy {
		iMinus1, iPlus1 = iPlus1, iMinus1
	}
	m1 := row[4*iMinus1 : 4*iMinus1+4 : 4*iMinus1+4]
	c0 := row[4*i : 4*i+4 : 4*i+4]
	p1 := row[4*iPlus1 : 4*iPlus1+4 : 4*iPlus1+4]
	p2 := row[4*iPlus2 : 4*iPlus2+4 : 4*iPlus2+4]
	u = Interp4(m1[1], c0[1], p1[1], p2[1])
	v = Interp4(m1[3], c0[3], p1[3], p2[3])
	return u, v
}

// Packed two-lane variant: U in the low 16 bits, V in the high 16 bits.
// Each lane is offset by packedBias so that 9*(a+b) - (c+d) never borrows
// across the lane boundary: lane = 9*(a+b) + 518 - (c+d) lies in [8, 5108].
const (
	packedBias  = 2*255 + 8
	packedBias2 = packedBias | packedBias<<16
	packedBase  = 2 * 255
)

// loadUV packs the chroma pair of cell i: u in the low 16 bits, v in the
// high 16 bits.
func loadUV(row []byte, i int) uint32 {
	c := row[4*i : 4*i+4 : 4*i+4]
	return uint32(c[1]) | uint32(c[3])<<16
}

// interp4Packed filters both chroma lanes at once. It is bit-identical to
// two Interp4 calls.
func interp4Packed(m1, c0, c1, c2 uint32) (u, v uint8) {
	s := 9*(c0+c1) + packedBias2 - (m1 + c2)
	u = Clip8b((int(s&0xffff) - packedBase) >> 4)
	v = Clip8b((int(s>>16) - packedBase) >> 4)
	return u, v
}

package kernel

// BT.601 broadcast-range YUV -> RGB using 8-bit fixed-point coefficients:
//
//	c = Y-16, d = U-128, e = V-128
//	R = clip((298*c         + 409*e + 128) >> 8)
//	G = clip((298*c - 100*d - 208*e + 128) >> 8)
//	B = clip((298*c + 516*d         + 128) >> 8)
//
// The per-channel products are tabulated once by initYUVTables so the
// conversion itself is three table sums per pixel.
const (
	kY  = 298
	kRV = 409
	kGU = 100
	kGV = 208
	kBU = 516

	yuvRound = 128
)

var (
	yTab  [256]int32 // 298*(y-16) + 128
	rvTab [256]int32 // 409*(v-128)
	guTab [256]int32 // -100*(u-128)
	gvTab [256]int32 // -208*(v-128)
	buTab [256]int32 // 516*(u-128)
)

func initYUVTables() {
	for i := 0; i < 256; i++ {
		c := int32(i - 16)
		d := int32(i - 128)
		yTab[i] = kY*c + yuvRound
		rvTab[i] = kRV * d
		guTab[i] = -kGU * d
		gvTab[i] = -kGV * d
		buTab[i] = kBU * d
	}
}

// YUVToRGBA converts one (y, u, v) sample to an opaque RGBA quad.
func YUVToRGBA(y, u, v uint8) [4]uint8 {
	yy := yTab[y]
	return [4]uint8{
		Clip8b(int((yy + rvTab[v]) >> 8)),
		Clip8b(int((yy + guTab[u] + gvTab[v]) >> 8)),
		Clip8b(int((yy + buTab[u]) >> 8)),
		255,
	}
}

// putRGBA writes the conversion of (y, u, v) into dst[0:4].
func putRGBA(dst []byte, y, u, v uint8) {
	dst = dst[:4:4]
	yy := yTab[y]
	dst[0] = Clip8b(int((yy + rvTab[v]) >> 8))
	dst[1] = Clip8b(int((yy + guTab[u] + gvTab[v]) >> 8))
	dst[2] = Clip8b(int((yy + buTab[u]) >> 8))
	dst[3] = 255
}

// Clip8b clips v to the range [0, 255].
// Uses unsigned comparison for single-branch hot path when v is in [0, 255].
func Clip8b(v int) uint8 {
	if uint(v) <= 255 {
		return uint8(v)
	}
	return uint8(^(v >> 63) & 255)
}

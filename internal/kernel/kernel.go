// Package kernel implements the per-pixel YUYV -> RGBA conversion kernel.
//
// Input rows hold packed cells of four bytes (Y0, U, Y1, V): two luma
// samples sharing one chroma pair. Every output pixel is a pure function of
// its coordinate, the output width and a small read-only neighbourhood of
// its input row:
//
//	even x: RGBA(Y0[x/2], U[x/2], V[x/2])
//	odd x:  RGBA(Y1[x/2], interp(U), interp(V))
//
// where interp is the 4-tap (-1, 9, 9, -1)/16 filter over the cells
// x/2-1 .. x/2+2, with tap indices resolved by Taps near the row edges.
package kernel

// Mode selects the boundary and tap arithmetic of the odd-column path.
type Mode int

const (
	// Standard clamps the right-edge taps to the last input cell and feeds
	// the filter its taps in natural order.
	Standard Mode = iota

	// Legacy reproduces the legacy RenderScript camera converter bit for
	// bit: the right-edge clamp uses width>>2 instead of width>>1, and the
	// -1/+1 taps are exchanged before filtering. Valid for width >= 8 only.
	Legacy
)

// MinLegacyWidth is the narrowest output width Legacy stays in bounds for.
const MinLegacyWidth = 8

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Legacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// RowFunc converts one row of packed cells into width RGBA pixels written to
// dst (4*width bytes). width is the output width and must be even.
type RowFunc func(dst, row []byte, width int, mode Mode)

// ConvertRow is the active row converter. Init installs the packed-lane
// variant on amd64 and arm64 and the scalar one elsewhere; see packedLanes.
var ConvertRow RowFunc

var rowImpl string

// Init builds the conversion tables and selects the row converter.
// It runs at package initialisation; calling it again is harmless.
func Init() {
	initYUVTables()

	if packedLanes() {
		ConvertRow = ConvertRowPacked
		rowImpl = "packed"
	} else {
		ConvertRow = ConvertRowScalar
		rowImpl = "scalar"
	}
}

// Implementation names the row converter selected by Init.
func Implementation() string {
	return rowImpl
}

func init() {
	Init()
}

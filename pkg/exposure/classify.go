package exposure

import(
	"github.com/abworrall/auto-exposure/pkg/ecolor"
	"github.com/abworrall/auto-exposure/pkg/emath"
)

// MaskWeightScale turns a mask value into an integer histogram weight; a full
// weight mask pixel adds 8. Both reducers divide by the summed weights, so
// this only sets the resolution of fractional mask values.
const MaskWeightScale = 8

// MaxMaskValue caps a mask value. At the cap a 4K frame still fits every
// pixel into one bin without the uint32 count wrapping.
const MaxMaskValue = 16

// BinIndex classifies a linear RGB sample. Anything darker than
// 2^minLogLum goes to bin 0, everything else lands in [1,255].
func BinIndex(r, g, b, minLogLum, invLogLumRange float32) uint32 {
	lum := ecolor.Luminance32(r, g, b)
	if !(lum >= emath.Exp2f(minLogLum)) { // also catches NaN
		return 0
	}

	norm := emath.Clamp32((emath.Log2f(lum) - minLogLum) * invLogLumRange, 0, 1)
	return uint32(norm*254.0 + 1.0)
}

// BinLogLuminance is the log-luminance a bin stands for. It is also applied
// to bin 0, which comes out just under the floor.
func BinLogLuminance(i int, p Params) float32 {
	return p.MinLogLum + (float32(i) - 1) / 254.0 * p.LogLumRange
}

// MaskWeight converts a sampled mask value to its integer weight. Values
// above MaxMaskValue are clamped; NaN weighs nothing.
func MaskWeight(m float64) uint32 {
	if !(m > 0) {
		return 0
	}
	return uint32(min(m, MaxMaskValue) * MaskWeightScale)
}

package ecolor

import(
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/auto-exposure/pkg/emath"
)

var(
	// Perceptual luminance weights used by the metering histogram. These are
	// very close to (but not quite) the Rec.709 Y row; we keep them as-is so
	// the bin a pixel lands in is stable.
	LuminanceWeights = emath.Vec3{0.2125, 0.7154, 0.0721}

	lumR = float32(LuminanceWeights[0])
	lumG = float32(LuminanceWeights[1])
	lumB = float32(LuminanceWeights[2])
)

// Luminance32 is the metering dot product, done in float32 like the kernels.
func Luminance32(r, g, b float32) float32 {
	return r*lumR + g*lumG + b*lumB
}

// Luminance of an HDR color; alpha is ignored.
func Luminance(c hdrcolor.Color) float64 {
	r, g, b, _ := c.HDRRGBA()
	return LuminanceWeights.Dot(emath.Vec3{r, g, b})
}

// MaskWeight turns a mask pixel into a metering weight in [0,1]. Masks are
// authored as ordinary (sRGB encoded) images, and the weight is the linear red
// channel, which for a grayscale mask is just the linear gray level.
func MaskWeight(c color.Color) float64 {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 0 // fully transparent pixel
	}
	r, _, _ := cf.LinearRgb()
	return r
}

package ecolor

import(
	"fmt"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"
)

// A CameraNative color is an LDR sensor reading, combined with how much light
// it took to saturate the sensor. Scaling by that lets frames shot at very
// different exposures be metered on the same luminance scale.
type CameraNative struct {
	// The sensor photosites give values in the range [0, 0xFFFF]; we map those to [0.0, 1.0]
	hdrcolor.RGB // This field implements color.Color and hdrcolor.Color interfaces

	// How much Illuminance (in lux) is needed to generate a photosite value of 0xFFFF
	IllumAtMax     float64
}

// Treats the input RGB channels as [0, 0xFFFF]
func NewCameraNative(col color.Color, illumAtMax float64) CameraNative {
	r, g, b, _ := col.RGBA()

	return CameraNative{
		RGB: hdrcolor.RGB{
			R: float64(r) / float64(0xFFFF),
			G: float64(g) / float64(0xFFFF),
			B: float64(b) / float64(0xFFFF),
		},
		IllumAtMax: illumAtMax,
	}
}

func (cn CameraNative)String() string {
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f] @%.0f lumens", cn.RGB.R, cn.RGB.G, cn.RGB.B, cn.IllumAtMax)
}

// SceneLinear rescales the reading so that `refIllum` lux maps to 1.0. Pass
// the same reference for every frame in a sequence.
func (cn CameraNative)SceneLinear(refIllum float64) hdrcolor.RGB {
	if cn.IllumAtMax <= 0 || refIllum <= 0 {
		return cn.RGB
	}
	s := cn.IllumAtMax / refIllum
	return hdrcolor.RGB{R: cn.RGB.R * s, G: cn.RGB.G * s, B: cn.RGB.B * s}
}

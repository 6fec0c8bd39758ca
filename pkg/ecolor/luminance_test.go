package ecolor

import(
	"image/color"
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/stretchr/testify/assert"
)

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 1.0, Luminance(hdrcolor.RGB{R: 1, G: 1, B: 1}), 1e-9)
	assert.InDelta(t, 0.7154, Luminance(hdrcolor.RGB{G: 1}), 1e-9)
	assert.InDelta(t, Luminance(hdrcolor.RGB{R: 2, G: 3, B: 4}), float64(Luminance32(2, 3, 4)), 1e-5)
}

func TestMaskWeight(t *testing.T) {
	assert.InDelta(t, 1.0, MaskWeight(color.Gray{Y: 255}), 1e-6)
	assert.InDelta(t, 0.0, MaskWeight(color.Gray{Y: 0}), 1e-6)

	// sRGB mid gray is ~21.4% linear
	assert.InDelta(t, 0.214, MaskWeight(color.Gray{Y: 128}), 0.01)
}

func TestCameraNativeSceneLinear(t *testing.T) {
	cn := NewCameraNative(color.RGBA64{R: 0xFFFF, G: 0x7FFF, B: 0, A: 0xFFFF}, 2560)
	rgb := cn.SceneLinear(1280)

	assert.InDelta(t, 2.0, rgb.R, 1e-6)
	assert.InDelta(t, 1.0, rgb.G, 1e-3)
	assert.InDelta(t, 0.0, rgb.B, 1e-9)
}

package exposure

import(
	"image"
	"math/rand"

	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/auto-exposure/pkg/emath"
)

func rect(w, h int) image.Rectangle { return image.Rect(0, 0, w, h) }
func pt(x, y int) image.Point        { return image.Point{x, y} }

func gray(v float64) hdrcolor.RGB { return hdrcolor.RGB{R: v, G: v, B: v} }

// randomTexture has log-luminances spread over roughly [-12,12], plus some
// true black.
func randomTexture(rng *rand.Rand, w, h int) *Texture {
	t := NewTexture(rect(w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rng.Intn(10) == 0 {
				continue
			}
			v := float32(emath.Exp2f(float32(rng.Float64()*24 - 12)))
			t.SetRGB(x, y, v*float32(rng.Float64()), v, v*float32(rng.Float64()))
		}
	}
	return t
}

func randomMask(rng *rand.Rand, w, h int) *emath.FloatGrid {
	g := emath.NewFloatGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, rng.Float64())
		}
	}
	return &g
}

func randomCounts(rng *rand.Rand) [NumBins]uint32 {
	var c [NumBins]uint32
	for i := range c {
		if rng.Intn(4) > 0 {
			c[i] = uint32(rng.Intn(1 << 20))
		}
	}
	return c
}

package metering

import(
	"fmt"
	"image"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/auto-exposure/pkg/ecolor"
	"github.com/abworrall/auto-exposure/pkg/exposure"
)

// How the pixel values of a loaded LDR image are encoded.
type Encoding int

const(
	EncodingLinear Encoding = iota // 16 bit TIFFs, as exported for HDR work
	EncodingSRGB                   // PNG, JPEG
)

func (e Encoding)String() string {
	if e == EncodingSRGB {
		return "srgb"
	}
	return "linear"
}

// A Frame is one image of the sequence being metered.
type Frame struct {
	LoadFilename       string
	LoadedImage        image.Image  // LDR source, nil for HDR frames
	Encoding
	ExposureValue                   // From EXIF, if there was any

	Texture            *exposure.Texture // What gets metered, in linear scene units
}

func (f Frame)String() string {
	b := image.Rectangle{}
	if f.Texture != nil {
		b = f.Texture.Bounds()
	} else if f.LoadedImage != nil {
		b = f.LoadedImage.Bounds()
	}
	return fmt.Sprintf("%s: %s %s, %s", f.Filename(), b.Size(), f.Encoding, f.ExposureValue)
}

func (f Frame)Filename() string {
	return filepath.Base(f.LoadFilename)
}

// Develop turns the loaded LDR image into a linear texture, scaled by its
// exposure so that refLux lands on 1.0. HDR frames already have a texture.
func (f *Frame)Develop(refLux float64, maxWidth int) {
	if f.Texture != nil || f.LoadedImage == nil {
		return
	}

	img := Downscale(f.LoadedImage, maxWidth)
	b := img.Bounds()
	tex := exposure.NewTexture(b)
	scale := f.ExposureValue.Scale(refLux)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			switch f.Encoding {
			case EncodingSRGB:
				if c, ok := colorful.MakeColor(img.At(x, y)); ok {
					r, g, bl := c.LinearRgb()
					tex.SetRGB(x, y, float32(r*scale), float32(g*scale), float32(bl*scale))
				}
			default:
				cn := ecolor.NewCameraNative(img.At(x, y), f.ExposureValue.IlluminanceAtMaxExposure)
				rgb := cn.SceneLinear(refLux)
				tex.SetRGB(x, y, float32(rgb.R), float32(rgb.G), float32(rgb.B))
			}
		}
	}

	f.Texture = tex
}

// LuminanceStats returns the mean and the brightest linear luminance of the
// developed texture.
func (f Frame)LuminanceStats() (mean, max float64) {
	if f.Texture == nil || f.Texture.Bounds().Empty() {
		return 0, 0
	}

	b := f.Texture.Bounds()
	lums := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			lums = append(lums, ecolor.Luminance(f.Texture.HDRAt(x, y)))
		}
	}
	return stat.Mean(lums, nil), floats.Max(lums)
}

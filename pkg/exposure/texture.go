package exposure

import(
	"fmt"
	"image"
	"image/color"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
)

// A Texture is a linear float RGB image, the in-memory form of the color
// attachment that gets metered. It implements hdr.Image.
type Texture struct {
	Rect image.Rectangle
	Pix  []float32 // RGB triples, row major
}

var _ hdr.Image = (*Texture)(nil)

func NewTexture(r image.Rectangle) *Texture {
	return &Texture{Rect: r, Pix: make([]float32, 3*r.Dx()*r.Dy())}
}

// NewUniformTexture is a w*h texture with every pixel the same color.
func NewUniformTexture(w, h int, c hdrcolor.RGB) *Texture {
	t := NewTexture(image.Rect(0, 0, w, h))
	for i := 0; i < len(t.Pix); i += 3 {
		t.Pix[i], t.Pix[i+1], t.Pix[i+2] = float32(c.R), float32(c.G), float32(c.B)
	}
	return t
}

// TextureFrom copies any HDR image.
func TextureFrom(img hdr.Image) *Texture {
	b := img.Bounds()
	t := NewTexture(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.HDRAt(x, y).HDRRGBA()
			t.SetRGB(x, y, float32(r), float32(g), float32(bl))
		}
	}
	return t
}

func (t *Texture)offset(x, y int) int {
	return 3 * ((y-t.Rect.Min.Y)*t.Rect.Dx() + (x - t.Rect.Min.X))
}

// Implement image.Image
func (t *Texture)ColorModel() color.Model  { return hdrcolor.RGBModel }
func (t *Texture)Bounds() image.Rectangle  { return t.Rect }
func (t *Texture)At(x, y int) color.Color  { return t.HDRAt(x, y) }

// Implement hdr.Image
func (t *Texture)Size() int                { return t.Rect.Dx() * t.Rect.Dy() }
func (t *Texture)HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{x, y}.In(t.Rect)) {
		return hdrcolor.RGB{}
	}
	i := t.offset(x, y)
	return hdrcolor.RGB{R: float64(t.Pix[i]), G: float64(t.Pix[i+1]), B: float64(t.Pix[i+2])}
}

func (t *Texture)SetRGB(x, y int, r, g, b float32) {
	if !(image.Point{x, y}.In(t.Rect)) {
		return
	}
	i := t.offset(x, y)
	t.Pix[i], t.Pix[i+1], t.Pix[i+2] = r, g, b
}

func (t *Texture)String() string { return fmt.Sprintf("texture%s", t.Rect) }

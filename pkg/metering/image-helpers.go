package metering

// A few helper routines for golang's image libraries

import(
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

// Downscale shrinks img to maxWidth, keeping the aspect ratio. Metering a
// smaller frame gives nearly the same histogram for a fraction of the work.
func Downscale(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return resize.Resize(uint(maxWidth), 0, img, resize.Bilinear)
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

package metering

import(
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/rs/zerolog/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/abworrall/auto-exposure/pkg/ecolor"
	"github.com/abworrall/auto-exposure/pkg/emath"
	"github.com/abworrall/auto-exposure/pkg/exposure"
)

var ErrNoFrames = errors.New("no frames to meter")

func (seq *Sequence)LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load '%s': %w", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir '%s': %w", arg, err)
			}
			for _, content := range contents {
				if err := seq.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return err
				}
			}

		default: // is a file, load it
			if err := seq.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile '%s': %w", arg, err)
			}
		}
	}

	return nil
}

func (seq *Sequence)loadFile(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {

	case ".hdr":
		f, err := loadHDR(filename)
		if err != nil {
			return err
		}
		seq.AddFrame(f)

	case ".tif", ".tiff":
		f, err := loadLDR(filename, EncodingLinear, func(r *os.File) (image.Image, error) { return tiff.Decode(r) })
		if err != nil {
			return err
		}
		seq.AddFrame(f)

	case ".png", ".jpg", ".jpeg":
		f, err := loadLDR(filename, EncodingSRGB, func(r *os.File) (image.Image, error) {
			img, _, err := image.Decode(r)
			return img, err
		})
		if err != nil {
			return err
		}
		seq.AddFrame(f)

	case ".yaml", ".yml":
		cfg, err := LoadConfig(filename)
		if err != nil {
			return err
		}
		seq.Config = cfg
		log.Info().Str("file", filename).Msg("loaded base configuration")

	default:
		log.Debug().Str("file", filename).Msg("skipping, unknown extension")
	}

	return nil
}

func loadHDR(filename string) (Frame, error) {
	f := Frame{LoadFilename: filename, Encoding: EncodingLinear}

	reader, err := os.Open(filename)
	if err != nil {
		return f, fmt.Errorf("open+r '%s': %w", filename, err)
	}
	defer reader.Close()

	img, err := rgbe.Decode(reader)
	if err != nil {
		return f, fmt.Errorf("rgbe decode '%s': %w", filename, err)
	}
	hdrImg, ok := img.(hdr.Image)
	if !ok {
		return f, fmt.Errorf("rgbe decode '%s': got %T, not an HDR image", filename, img)
	}

	f.Texture = exposure.TextureFrom(hdrImg)
	return f, nil
}

func loadLDR(filename string, enc Encoding, decode func(*os.File) (image.Image, error)) (Frame, error) {
	f := Frame{LoadFilename: filename, Encoding: enc}

	// EXIF is optional; without it the frame is metered as-is.
	if ev, err := loadExposureValue(filename); err != nil {
		log.Debug().Err(err).Str("file", filename).Msg("no usable exposure info")
	} else {
		f.ExposureValue = ev
	}

	reader, err := os.Open(filename)
	if err != nil {
		return f, fmt.Errorf("open+r img '%s': %w", filename, err)
	}
	defer reader.Close()

	if f.LoadedImage, err = decode(reader); err != nil {
		return f, fmt.Errorf("image decode '%s': %w", filename, err)
	}
	return f, nil
}

func loadExposureValue(filename string) (ExposureValue, error) {
	ev := ExposureValue{}

	reader, err := os.Open(filename)
	if err != nil {
		return ev, fmt.Errorf("open+r exif '%s': %w", filename, err)
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return ev, fmt.Errorf("exif parsing '%s': %w", filename, err)
	}

	if tag, err := ex.Get(exif.ISOSpeedRatings); err != nil {
		return ev, fmt.Errorf("exif ISO '%s': %w", filename, err)
	} else if val, err := tag.Int64(0); err != nil {
		return ev, fmt.Errorf("exif ISO '%s': %w", filename, err)
	} else {
		ev.ISO = val
	}

	if tag, err := ex.Get(exif.FNumber); err != nil {
		return ev, fmt.Errorf("exif FNumber '%s': %w", filename, err)
	} else if num, denom, err := tag.Rat2(0); err != nil {
		return ev, fmt.Errorf("exif FNumber '%s': %w", filename, err)
	} else {
		ev.FNumber = rat64{num, denom}
	}

	if tag, err := ex.Get(exif.ExposureTime); err != nil {
		return ev, fmt.Errorf("exif ExposureTime '%s': %w", filename, err)
	} else if num, denom, err := tag.Rat2(0); err != nil {
		return ev, fmt.Errorf("exif ExposureTime '%s': %w", filename, err)
	} else {
		ev.ShutterSpeed = rat64{num, denom}
	}

	// Exposure compensation is informational; aperture, shutter and ISO fully
	// define how much light saturates a pixel.
	if err := ev.Validate(); err != nil {
		return ev, fmt.Errorf("image '%s' EV: %w", filename, err)
	}
	return ev, nil
}

// LoadMask reads a grayscale metering mask. Mask images are authored like any
// other picture, so pixel values are linearized before use as weights.
func LoadMask(filename string) (*emath.FloatGrid, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r mask '%s': %w", filename, err)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff": img, err = tiff.Decode(reader)
	default:              img, _, err = image.Decode(reader)
	}
	if err != nil {
		return nil, fmt.Errorf("mask decode '%s': %w", filename, err)
	}

	return MaskFromImage(img), nil
}

func MaskFromImage(img image.Image) *emath.FloatGrid {
	b := img.Bounds()
	mask := emath.NewFloatGrid(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			mask.Set(x-b.Min.X, y-b.Min.Y, ecolor.MaskWeight(img.At(x, y)))
		}
	}
	return &mask
}

// sortFrames orders frames by filename, which is how sequences are numbered.
func sortFrames(frames []Frame) {
	sort.SliceStable(frames, func(i, j int) bool { return frames[i].LoadFilename < frames[j].LoadFilename })
}

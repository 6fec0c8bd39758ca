package metering

import(
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/auto-exposure/pkg/exposure"
)

func writeGrayPNG(t *testing.T, filename string, w, h int, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	require.NoError(t, WritePNG(img, filename))
}

func TestConfigYaml(t *testing.T) {
	c, err := newConfigFromYaml([]byte(`
min: -12
max: 4
strategy: full
frame_interval: 33ms
max_width: 320
mask: center.png
`))
	require.NoError(t, err)

	assert.Equal(t, float32(-12), c.Min)
	assert.Equal(t, "full", c.Strategy)
	assert.Equal(t, 33*time.Millisecond, c.FrameInterval)
	assert.Equal(t, 320, c.MaxWidth)
	assert.Equal(t, "center.png", c.MaskFile)
	assert.Equal(t, float32(3.0), c.SpeedUp, "defaults survive")
	assert.NoError(t, c.Finalize())

	again, err := newConfigFromYaml([]byte(c.AsYaml()))
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestConfigFinalizeRejects(t *testing.T) {
	c := NewConfig()
	c.Max = c.Min
	assert.ErrorIs(t, c.Finalize(), exposure.ErrInvalidSettings)

	c = NewConfig()
	c.FrameInterval = -time.Second
	assert.ErrorIs(t, c.Finalize(), exposure.ErrInvalidSettings)
}

func TestExposureValue(t *testing.T) {
	tests := []struct {
		name    string
		ev      ExposureValue
		wantEV  float64
		wantLux float64
	}{
		{"sunny 16", ExposureValue{ISO: 100, FNumber: rat64{16, 1}, ShutterSpeed: rat64{1, 100}}, 14.64, 63999},
		{"f/5.6 1/4000", ExposureValue{ISO: 100, FNumber: rat64{56, 10}, ShutterSpeed: rat64{1, 4000}}, 16.94, 0},
		{"iso 800", ExposureValue{ISO: 800, FNumber: rat64{56, 10}, ShutterSpeed: rat64{1, 4000}}, 13.94, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := tt.ev
			require.NoError(t, ev.Validate())
			assert.InDelta(t, tt.wantEV, ev.EV, 0.01)
			assert.InDelta(t, 2.5*math.Exp2(ev.EV), ev.IlluminanceAtMaxExposure, 1e-6)
			if tt.wantLux > 0 {
				assert.InDelta(t, tt.wantLux, ev.IlluminanceAtMaxExposure, 100)
			}
		})
	}

	bad := ExposureValue{ISO: 0, FNumber: rat64{56, 10}, ShutterSpeed: rat64{1, 4000}}
	assert.Error(t, bad.Validate())
	assert.Equal(t, 1.0, bad.Scale(2560))
}

func TestLoadFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "more")
	require.NoError(t, os.Mkdir(sub, 0o755))

	writeGrayPNG(t, filepath.Join(dir, "frame-002.png"), 20, 10, 255)
	writeGrayPNG(t, filepath.Join(sub, "frame-001.png"), 20, 10, 128)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("strategy: full\nmax_width: 10\n"), 0o644))

	seq := NewSequence()
	require.NoError(t, seq.LoadFilesAndDirs(dir))
	require.NoError(t, seq.Finalize())

	require.Len(t, seq.Frames, 2)
	assert.Equal(t, "full", seq.Strategy)
	assert.Equal(t, "frame-002.png", seq.Frames[0].Filename(), "sorted by full path")
	assert.Equal(t, "frame-001.png", seq.Frames[1].Filename())

	for _, f := range seq.Frames {
		require.NotNil(t, f.Texture)
		assert.Equal(t, 10, f.Texture.Bounds().Dx(), "downscaled to max_width")
		assert.Equal(t, EncodingSRGB, f.Encoding)
	}

	r, g, b, _ := seq.Frames[0].Texture.HDRAt(3, 3).HDRRGBA()
	assert.InDelta(t, 1.0, r, 1e-3)
	assert.InDelta(t, 1.0, g, 1e-3)
	assert.InDelta(t, 1.0, b, 1e-3)

	// sRGB 128 is about 21% linear
	r, _, _, _ = seq.Frames[1].Texture.HDRAt(3, 3).HDRRGBA()
	assert.InDelta(t, 0.214, r, 0.01)
}

func TestLoadMissing(t *testing.T) {
	seq := NewSequence()
	assert.ErrorIs(t, seq.LoadFilesAndDirs(filepath.Join(t.TempDir(), "nope")), os.ErrNotExist)
	assert.ErrorIs(t, seq.Finalize(), ErrNoFrames)
}

func TestLoadHDR(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "scene.hdr")
	tex := exposure.NewUniformTexture(8, 4, hdrcolor.RGB{R: 4, G: 2, B: 0.5})

	w, err := os.Create(filename)
	require.NoError(t, err)
	require.NoError(t, rgbe.Encode(w, tex))
	require.NoError(t, w.Close())

	f, err := loadHDR(filename)
	require.NoError(t, err)
	require.NotNil(t, f.Texture)
	assert.Equal(t, image.Rect(0, 0, 8, 4), f.Texture.Bounds())

	r, g, b, _ := f.Texture.HDRAt(5, 2).HDRRGBA()
	assert.InDelta(t, 4.0, r, 0.05)
	assert.InDelta(t, 2.0, g, 0.05)
	assert.InDelta(t, 0.5, b, 0.03)
}

func TestLoadMask(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "mask.png")
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	img.SetGray(0, 0, color.Gray{Y: 255})
	img.SetGray(3, 1, color.Gray{Y: 128})
	w, err := os.Create(filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(w, img))
	require.NoError(t, w.Close())

	mask, err := LoadMask(filename)
	require.NoError(t, err)
	assert.Equal(t, 4, mask.Dx())
	assert.Equal(t, 2, mask.Dy())
	assert.InDelta(t, 1.0, mask.Get(0, 0), 1e-6)
	assert.InDelta(t, 0.0, mask.Get(1, 0), 1e-6)
	assert.InDelta(t, 0.214, mask.Get(3, 1), 0.01)
}

func TestDevelopLinearWithExposure(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	f := Frame{LoadedImage: img, Encoding: EncodingLinear}
	f.ExposureValue = ExposureValue{ISO: 100, FNumber: rat64{2, 1}, ShutterSpeed: rat64{1, 256}}
	require.NoError(t, f.ExposureValue.Validate()) // EV 10, 2560 lux

	f.Develop(1280, 0)
	r, _, _, _ := f.Texture.HDRAt(1, 1).HDRRGBA()
	assert.InDelta(t, 2.0, r, 1e-4)

	mean, max := f.LuminanceStats()
	assert.InDelta(t, 2.0, mean, 1e-3)
	assert.InDelta(t, 2.0, max, 1e-3)
}

func TestRunSequence(t *testing.T) {
	dir := t.TempDir()
	seq := NewSequence()
	seq.PlotDir = filepath.Join(dir, "plots")
	seq.SpeedUp, seq.SpeedDown = 1, 1
	seq.FrameInterval = 100 * time.Millisecond
	seq.MaskFile = filepath.Join(dir, "mask.png")
	writeGrayPNG(t, seq.MaskFile, 4, 4, 255)

	// A bright scene the exposure has to walk down toward, 0.1 EV a frame
	for i := 0; i < 12; i++ {
		seq.AddFrame(Frame{LoadFilename: filepath.Join(dir, "f.hdr"), Texture: exposure.NewUniformTexture(32, 32, hdrcolor.RGB{R: 8, G: 8, B: 8})})
	}
	require.NoError(t, seq.Finalize())

	rep, err := seq.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Frames, 12)
	assert.Equal(t, exposure.StrategyTrimmed, rep.Strategy)
	for i := 1; i < len(rep.Frames); i++ {
		step := rep.Frames[i-1].Exposure - rep.Frames[i].Exposure
		assert.InDelta(t, 0.1, step, 1e-4, "frame %d", i)
	}
	assert.InDelta(t, -1.2, rep.FinalExposure, 1e-3)
	assert.Equal(t, rep.Frames[11].Exposure, rep.FinalExposure)
	assert.Less(t, rep.ExposureMean, 0.0)
	assert.Greater(t, rep.ExposureStdDev, 0.0)
	assert.NotEmpty(t, rep.ExposureHistogram)

	plots, err := filepath.Glob(filepath.Join(seq.PlotDir, "hist-*.png"))
	require.NoError(t, err)
	assert.Len(t, plots, 12)
	assert.FileExists(t, filepath.Join(seq.PlotDir, "mask.png"))

	out, err := rep.AsYaml()
	require.NoError(t, err)
	assert.Contains(t, out, "final_exposure")
}

func TestRunCancelled(t *testing.T) {
	seq := NewSequence()
	seq.AddFrame(Frame{LoadFilename: "a.hdr", Texture: exposure.NewUniformTexture(64, 64, hdrcolor.RGB{R: 1, G: 1, B: 1})})
	require.NoError(t, seq.Finalize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := seq.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

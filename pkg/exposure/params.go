package exposure

import(
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrBadUniform = errors.New("bad uniform block")

// UniformSize is the size in bytes of the packed Params block.
const UniformSize = 6 * 4

// Params is the per-dispatch parameter block. It is built once per frame by
// Settings.Prepare and is read-only while the kernels run.
type Params struct {
	MinLogLum      float32
	InvLogLumRange float32
	LogLumRange    float32
	NumPixels      float32
	DeltaT         float32 // max change to the exposure this frame
	Correction     float32 // reserved, no kernel reads it
}

func (p Params)String() string {
	return fmt.Sprintf("params{min:%.3f, range:%.3f, pixels:%.0f, dt:%.4f}",
		p.MinLogLum, p.LogLumRange, p.NumPixels, p.DeltaT)
}

// MaxLogLum is the top of the metered range.
func (p Params)MaxLogLum() float32 { return p.MinLogLum + p.LogLumRange }

// Uniform packs the params as six little-endian float32s, in the order
// min_log_lum, inv_log_lum_range, log_lum_range, num_pixels, delta_t, correction.
func (p Params)Uniform() []byte {
	b := make([]byte, UniformSize)
	for i, f := range p.fields() {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func ParamsFromUniform(b []byte) (Params, error) {
	if len(b) != UniformSize {
		return Params{}, fmt.Errorf("%d bytes, want %d: %w", len(b), UniformSize, ErrBadUniform)
	}

	var f [6]float32
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}

	return Params{
		MinLogLum:      f[0],
		InvLogLumRange: f[1],
		LogLumRange:    f[2],
		NumPixels:      f[3],
		DeltaT:         f[4],
		Correction:     f[5],
	}, nil
}

func (p Params)fields() [6]float32 {
	return [6]float32{p.MinLogLum, p.InvLogLumRange, p.LogLumRange, p.NumPixels, p.DeltaT, p.Correction}
}

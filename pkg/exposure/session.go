package exposure

import(
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mdouchement/hdr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/abworrall/auto-exposure/pkg/compute"
	"github.com/abworrall/auto-exposure/pkg/emath"
)

type options struct {
	dev    *compute.Device
	hist   *Histogram
	logger *zerolog.Logger
	hook   HistogramHook
}

// A HistogramHook sees each frame's histogram after the build pass and before
// the reducer consumes it.
type HistogramHook func(p Params, bins [NumBins]uint32)

type Option func(*options)

func WithDevice(dev *compute.Device) Option    { return func(o *options) { o.dev = dev } }
func WithLogger(l zerolog.Logger) Option       { return func(o *options) { o.logger = &l } }

// WithHistogram makes the session build into a histogram it shares with
// others. The caller must then make sure frames using it never overlap;
// Registry does that.
func WithHistogram(h *Histogram) Option        { return func(o *options) { o.hist = h } }

func WithHistogramHook(fn HistogramHook) Option { return func(o *options) { o.hook = fn } }

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.dev == nil {
		o.dev = compute.NewDevice()
	}
	if o.hist == nil {
		o.hist = NewHistogram()
	}
	if o.logger == nil {
		o.logger = &log.Logger
	}
	return o
}

// A Session owns the persisted exposure for one view. Frame is the only thing
// that changes it, and frames on a session never overlap.
type Session struct {
	settings Settings
	strategy ReductionStrategy
	curve    Curve
	dev      *compute.Device
	hist     *Histogram
	hook     HistogramHook
	log      zerolog.Logger

	mu         sync.Mutex // held for the whole of a frame
	state      State
	prevChange float32
	frames     int

	exposure   atomic.Uint32 // float32 bits of state[0], for readers
}

func NewSession(settings Settings, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	rs, err := settings.ReductionStrategy()
	if err != nil {
		return nil, err
	}
	curve, err := settings.Curve()
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	s := &Session{
		settings: settings,
		strategy: rs,
		curve:    curve,
		dev:      o.dev,
		hist:     o.hist,
		hook:     o.hook,
		log:      o.logger.With().Str("strategy", rs.Name()).Logger(),
	}
	s.reset()
	return s, nil
}

func (s *Session)Settings() Settings         { return s.settings }
func (s *Session)Strategy() ReductionStrategy { return s.strategy }
func (s *Session)Curve() Curve                { return s.curve }
func (s *Session)Histogram() *Histogram       { return s.hist }

// Exposure is safe to call while a frame is running; it sees the value from
// the last completed frame.
func (s *Session)Exposure() float32 { return math.Float32frombits(s.exposure.Load()) }

func (s *Session)State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reader hands out the exposure without the ability to run frames.
func (s *Session)Reader() ExposureReader { return reader{s} }

type reader struct{ s *Session }

func (r reader)Exposure() float32 { return r.s.Exposure() }

// Reset puts the exposure back to its initial value, forgetting which way it
// was moving.
func (s *Session)Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session)reset() {
	s.state = NewState(s.settings.InitialExposure)
	s.prevChange = 0
	s.frames = 0
	s.publish()
}

func (s *Session)publish() { s.exposure.Store(math.Float32bits(s.state.Exposure())) }

// Frame meters one frame, elapsed after the previous one, and steps the
// exposure. If either pass fails the histogram is zeroed and the exposure is
// left alone.
func (s *Session)Frame(ctx context.Context, color hdr.Image, mask *emath.FloatGrid, elapsed time.Duration) (Reduction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.settings.Prepare(color.Bounds(), elapsed, s.prevChange)

	if err := BuildHistogram(ctx, s.dev, p, color, mask, s.hist); err != nil {
		s.hist.Clear()
		return Reduction{}, fmt.Errorf("frame %d: build histogram: %w", s.frames, err)
	}
	if s.hook != nil {
		s.hook(p, s.hist.Snapshot())
	}

	state := s.state
	red, err := s.strategy.Reduce(ctx, s.dev, p, s.hist, &state)
	if err != nil {
		s.hist.Clear()
		return Reduction{}, fmt.Errorf("frame %d: reduce '%s': %w", s.frames, s.strategy.Name(), err)
	}
	red.Compensated = red.Exposure + s.curve.Eval(red.AvgLogLum)

	s.state = state
	s.prevChange = red.Change
	s.frames++
	s.publish()

	s.log.Debug().
		Int("frame", s.frames).
		Stringer("params", p).
		Float32("avg", red.AvgLogLum).
		Float32("target", red.Target).
		Float32("exposure", red.Exposure).
		Float32("dt", p.DeltaT).
		Msg("auto exposure")

	return red, nil
}

// Frames is how many frames have completed since the last reset.
func (s *Session)Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

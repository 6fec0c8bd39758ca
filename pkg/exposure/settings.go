package exposure

import(
	"errors"
	"fmt"
	"image"
	"time"

	"gopkg.in/yaml.v2"
)

var ErrInvalidSettings = errors.New("invalid auto exposure settings")

// Settings are the user facing knobs. Exposure values are in log2 (EV) units.
type Settings struct {
	Min               float32      `yaml:"min"`
	Max               float32      `yaml:"max"`
	Correction        float32      `yaml:"correction"`        // reserved
	LowPercent        uint32       `yaml:"low_percent"`       // darkest share of weight to ignore
	HighPercent       uint32       `yaml:"high_percent"`      // keep weight up to here, ignore the rest
	SpeedUp           float32      `yaml:"speed_up"`          // EV/sec when adapting dark to bright
	SpeedDown         float32      `yaml:"speed_down"`        // EV/sec when adapting bright to dark
	InitialExposure   float32      `yaml:"initial_exposure"`
	Strategy          string       `yaml:"strategy"`
	CompensationCurve []CurvePoint `yaml:"compensation_curve,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		Min:         -8.0,
		Max:         8.0,
		LowPercent:  70,
		HighPercent: 95,
		SpeedUp:     3.0,
		SpeedDown:   1.0,
		Strategy:    StrategyTrimmed,
	}
}

// SettingsFromYaml overlays b on top of the defaults.
func SettingsFromYaml(b []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("settings yaml: %w", err)
	}
	return s, s.Validate()
}

func (s Settings)Validate() error {
	bad := func(format string, args ...interface{}) error {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidSettings)
	}

	if !(s.Max > s.Min) {
		return bad("max %.3f must be above min %.3f", s.Max, s.Min)
	}
	if s.SpeedUp < 0 || s.SpeedDown < 0 {
		return bad("speeds must not be negative (up %.3f, down %.3f)", s.SpeedUp, s.SpeedDown)
	}
	if s.LowPercent > s.HighPercent || s.HighPercent > 100 {
		return bad("percent window [%d,%d] must satisfy low <= high <= 100", s.LowPercent, s.HighPercent)
	}
	if _, err := s.ReductionStrategy(); err != nil {
		return bad("%v", err)
	}
	if len(s.CompensationCurve) > 0 {
		if _, err := NewCurve(s.CompensationCurve); err != nil {
			return bad("%v", err)
		}
	}
	return nil
}

// ReductionStrategy builds the configured strategy, carrying the percent
// window into TrimmedMean.
func (s Settings)ReductionStrategy() (ReductionStrategy, error) {
	rs, err := StrategyByName(s.Strategy)
	if err != nil {
		return nil, err
	}
	if _, ok := rs.(TrimmedMean); ok {
		return TrimmedMean{LowPercent: s.LowPercent, HighPercent: s.HighPercent}, nil
	}
	return rs, nil
}

// Curve returns the compensation curve, or the zero Curve if none is set.
func (s Settings)Curve() (Curve, error) {
	if len(s.CompensationCurve) == 0 {
		return Curve{}, nil
	}
	return NewCurve(s.CompensationCurve)
}

// Speed picks the adaptation rate from the direction of the previous frame's
// change. A negative change means the scene got brighter. With no direction
// yet (or an exact hit) the faster of the two is used.
func (s Settings)Speed(prevChange float32) float32 {
	switch {
	case prevChange < 0: return s.SpeedUp
	case prevChange > 0: return s.SpeedDown
	default:             return max(s.SpeedUp, s.SpeedDown)
	}
}

// Prepare builds the Params for one frame of the given size, elapsed time
// after the previous one. Time never runs backwards: a negative elapsed
// freezes the exposure for the frame.
func (s Settings)Prepare(bounds image.Rectangle, elapsed time.Duration, prevChange float32) Params {
	elapsed = max(elapsed, 0)
	rng := s.Max - s.Min
	return Params{
		MinLogLum:      s.Min,
		InvLogLumRange: 1.0 / rng,
		LogLumRange:    rng,
		NumPixels:      float32(bounds.Dx() * bounds.Dy()),
		DeltaT:         s.Speed(prevChange) * float32(elapsed.Seconds()),
		Correction:     s.Correction,
	}
}

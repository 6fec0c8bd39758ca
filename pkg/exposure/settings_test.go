package exposure

import(
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		ok     bool
	}{
		{"defaults", func(*Settings) {}, true},
		{"full mean", func(s *Settings) { s.Strategy = "full" }, true},
		{"empty range", func(s *Settings) { s.Max = s.Min }, false},
		{"inverted range", func(s *Settings) { s.Min, s.Max = 4, -4 }, false},
		{"negative speed", func(s *Settings) { s.SpeedDown = -1 }, false},
		{"inverted window", func(s *Settings) { s.LowPercent, s.HighPercent = 90, 10 }, false},
		{"window past 100", func(s *Settings) { s.HighPercent = 101 }, false},
		{"unknown strategy", func(s *Settings) { s.Strategy = "mode" }, false},
		{"unsorted curve", func(s *Settings) { s.CompensationCurve = []CurvePoint{{1, 0}, {0, 0}} }, false},
		{"sorted curve", func(s *Settings) { s.CompensationCurve = []CurvePoint{{0, 0}, {1, 0}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSettings)
			}
		})
	}
}

func TestSettingsFromYaml(t *testing.T) {
	s, err := SettingsFromYaml([]byte(`
min: -10
max: 6
strategy: full
speed_up: 2.5
compensation_curve:
  - {log_lum: -4, compensation: 1}
  - {log_lum: 4, compensation: -1}
`))
	require.NoError(t, err)

	assert.Equal(t, float32(-10), s.Min)
	assert.Equal(t, float32(6), s.Max)
	assert.Equal(t, "full", s.Strategy)
	assert.Equal(t, float32(2.5), s.SpeedUp)
	assert.Equal(t, float32(1.0), s.SpeedDown, "unset fields keep their defaults")
	assert.EqualValues(t, 70, s.LowPercent)
	require.Len(t, s.CompensationCurve, 2)

	_, err = SettingsFromYaml([]byte("min: 3\nmax: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestSettingsPrepare(t *testing.T) {
	s := DefaultSettings()
	s.Correction = 0.25

	p := s.Prepare(rect(1920, 1080), 500*time.Millisecond, 0)
	assert.Equal(t, float32(-8), p.MinLogLum)
	assert.Equal(t, float32(16), p.LogLumRange)
	assert.Equal(t, float32(1.0/16), p.InvLogLumRange)
	assert.Equal(t, float32(1920*1080), p.NumPixels)
	assert.Equal(t, float32(0.25), p.Correction)

	tests := []struct {
		name       string
		prevChange float32
		want       float32
	}{
		{"first frame uses the faster speed", 0, 1.5},
		{"scene got brighter", -0.3, 1.5},
		{"scene got darker", 0.3, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := s.Prepare(rect(8, 8), 500*time.Millisecond, tt.prevChange)
			assert.InDelta(t, tt.want, p.DeltaT, 1e-6)
		})
	}

	assert.Zero(t, s.Prepare(rect(8, 8), -time.Second, 0).DeltaT, "time running backwards")
}

func TestSettingsReductionStrategy(t *testing.T) {
	s := DefaultSettings()
	s.LowPercent, s.HighPercent = 50, 90

	rs, err := s.ReductionStrategy()
	require.NoError(t, err)
	assert.Equal(t, TrimmedMean{LowPercent: 50, HighPercent: 90}, rs)
}

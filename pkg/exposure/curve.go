package exposure

import(
	"errors"
	"fmt"
)

// A CurvePoint maps a metered log-luminance to an exposure compensation.
type CurvePoint struct {
	LogLum       float32 `yaml:"log_lum"`
	Compensation float32 `yaml:"compensation"`
}

// Curve is a piecewise linear compensation curve, clamped past either end.
// The zero Curve evaluates to 0 everywhere.
type Curve struct {
	points []CurvePoint
}

func NewCurve(points []CurvePoint) (Curve, error) {
	if len(points) == 0 {
		return Curve{}, errors.New("compensation curve has no points")
	}
	for i := 1; i < len(points); i++ {
		if points[i].LogLum <= points[i-1].LogLum {
			return Curve{}, fmt.Errorf("compensation curve point %d (%.3f) not after point %d (%.3f)",
				i, points[i].LogLum, i-1, points[i-1].LogLum)
		}
	}

	c := Curve{points: make([]CurvePoint, len(points))}
	copy(c.points, points)
	return c, nil
}

func (c Curve)Len() int { return len(c.points) }

func (c Curve)Eval(logLum float32) float32 {
	n := len(c.points)
	switch {
	case n == 0:                          return 0
	case logLum <= c.points[0].LogLum:    return c.points[0].Compensation
	case logLum >= c.points[n-1].LogLum:  return c.points[n-1].Compensation
	}

	for i := 1; i < n; i++ {
		a, b := c.points[i-1], c.points[i]
		if logLum <= b.LogLum {
			t := (logLum - a.LogLum) / (b.LogLum - a.LogLum)
			return a.Compensation + t*(b.Compensation - a.Compensation)
		}
	}
	return c.points[n-1].Compensation
}

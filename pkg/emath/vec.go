package emath

import(
	"golang.org/x/image/math/f64"
)

// Vec3 is a 3-vector, used for color weights.
type Vec3 f64.Vec3

func (v Vec3)Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

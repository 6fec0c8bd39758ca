package emath

import "math"

// Some functions that only operate on basic types, that are useful

// Clamp32 works like the shader builtin; lo must be <= hi.
func Clamp32(v, lo, hi float32) float32 {
	if v < lo { return lo }
	if v > hi { return hi }
	return v
}

func ClampU64(v, lo, hi uint64) uint64 {
	if v < lo { return lo }
	if v > hi { return hi }
	return v
}

// Sign32 returns -1, 0 or 1.
func Sign32(v float32) float32 {
	switch {
	case v > 0: return 1
	case v < 0: return -1
	}
	return 0
}

func Log2f(v float32) float32  { return float32(math.Log2(float64(v))) }
func Exp2f(v float32) float32  { return float32(math.Exp2(float64(v))) }

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055 * math.Pow(f, 1.0/2.4) - 0.055
}

func Abs32(v float32) float32 {
	if v < 0 { return -v }
	return v
}

package exposure

import(
	"github.com/abworrall/auto-exposure/pkg/emath"
)

// MiddleGray is the log2 of the 1.2 calibration factor that the metered
// average is mapped to.
var MiddleGray = emath.Log2f(1.2)

// Smooth moves current toward target by at most deltaT. A negative deltaT
// counts as 0.
func Smooth(current, target, deltaT float32) float32 {
	change := target - current
	step := min(emath.Abs32(change), max(deltaT, 0))
	return current + emath.Sign32(change)*step
}

// settle is the common tail of both reducers: turn the metered average into a
// target, step the state toward it, and fill in the report.
func settle(p Params, avg float32, state *State, red *Reduction) {
	red.AvgLogLum = avg
	red.Target = MiddleGray - avg
	red.Previous = state.Exposure()
	red.Change = red.Target - red.Previous
	red.Exposure = Smooth(red.Previous, red.Target, p.DeltaT)
	*state = NewState(red.Exposure)
}

package exposure

import(
	"context"
	"errors"
	"fmt"

	"github.com/abworrall/auto-exposure/pkg/compute"
	"github.com/abworrall/auto-exposure/pkg/emath"
)

var ErrUnknownStrategy = errors.New("unknown reduction strategy")

// A ReductionStrategy turns a completed histogram into a target exposure, steps
// the state toward it, and leaves the histogram zeroed for the next frame.
// The two strategies meter differently in scenes with strong outliers, so
// switching between them changes the look.
type ReductionStrategy interface {
	Name() string
	Reduce(ctx context.Context, dev *compute.Device, p Params, hist *Histogram, state *State) (Reduction, error)
}

// Reduction reports what a reducer saw and did.
type Reduction struct {
	Strategy    string
	Weighted    float64 // FullMean: sum of count*bin. TrimmedMean: sum of clipped*logLum
	Total       uint64  // all weight in the histogram, bin 0 included
	Bin0        uint64
	Count       float64 // weight that went into the average
	AvgLogLum   float32
	Target      float32
	Previous    float32 // exposure before this frame
	Exposure    float32 // exposure after smoothing
	Change      float32 // Target - Previous
	Compensated float32 // Exposure plus the compensation curve, filled in by Session
}

func (r Reduction)String() string {
	return fmt.Sprintf("%s{avg:% .4f, target:% .4f, ev:% .4f, change:% .4f, total:%d}",
		r.Strategy, r.AvgLogLum, r.Target, r.Exposure, r.Change, r.Total)
}

const(
	StrategyTrimmed = "trimmed"
	StrategyFull    = "full"
)

// StrategyByName returns the strategy with default parameters.
func StrategyByName(name string) (ReductionStrategy, error) {
	switch name {
	case StrategyTrimmed, "": return DefaultTrimmedMean(), nil
	case StrategyFull:        return FullMean{}, nil
	default:
		return nil, fmt.Errorf("strategy '%s': %w", name, ErrUnknownStrategy)
	}
}

// TrimmedMean averages the part of the weighted distribution between two
// percentiles, ignoring the darkest LowPercent and the brightest
// 100-HighPercent. It is a strict prefix sum, so it runs as one invocation.
type TrimmedMean struct {
	LowPercent  uint32
	HighPercent uint32
}

func DefaultTrimmedMean() TrimmedMean { return TrimmedMean{LowPercent: 70, HighPercent: 95} }

func (tm TrimmedMean)Name() string { return StrategyTrimmed }

func (tm TrimmedMean)Reduce(ctx context.Context, dev *compute.Device, p Params, hist *Histogram, state *State) (Reduction, error) {
	red := Reduction{Strategy: tm.Name()}

	err := compute.Dispatch(ctx, dev, compute.Dim{X: 1, Y: 1}, compute.Dim{X: 1, Y: 1},
		func() *struct{} { return nil },
		func(_ *compute.Invocation, _ *struct{}) {
			var counts [NumBins]uint64
			var total uint64
			for i := range counts {
				counts[i] = uint64(hist.take(i))
				total += counts[i]
			}

			first := total * uint64(tm.LowPercent) / 100
			last := total * uint64(tm.HighPercent) / 100

			// With nothing above the floor there is no signal to window, so
			// the average falls back to 0 like an empty window does.
			var sum, count float64
			if total > counts[0] {
				var cum uint64
				prevClipped := first
				for i := range counts {
					cum += counts[i]
					clipped := emath.ClampU64(cum, first, last)
					n := clipped - prevClipped
					prevClipped = clipped

					sum += float64(n) * float64(BinLogLuminance(i, p))
					count += float64(n)
				}
			}

			avg := float32(0)
			if count > 0 {
				avg = float32(sum / count)
			}

			red.Weighted, red.Count, red.Total, red.Bin0 = sum, count, total, counts[0]
			settle(p, avg, state, &red)
		})

	return red, err
}

// FullMean is the weighted mean of every bin above the floor, done as a
// parallel tree reduction by one workgroup with an invocation per bin.
type FullMean struct{}

func (FullMean)Name() string { return StrategyFull }

type reduceArena struct {
	weighted [NumBins]uint64
	totals   [NumBins]uint64
}

func (fm FullMean)Reduce(ctx context.Context, dev *compute.Device, p Params, hist *Histogram, state *State) (Reduction, error) {
	red := Reduction{Strategy: fm.Name()}

	err := compute.Dispatch(ctx, dev, compute.Dim{X: 1, Y: 1}, compute.Dim{X: NumBins, Y: 1},
		func() *reduceArena { return &reduceArena{} },
		func(inv *compute.Invocation, sh *reduceArena) {
			i := inv.LocalIndex
			count := uint64(hist.take(int(i)))
			sh.totals[i] = count
			sh.weighted[i] = count * uint64(i)
			inv.Barrier()

			for cutoff := uint32(NumBins / 2); cutoff > 0; cutoff >>= 1 {
				if i < cutoff {
					sh.weighted[i] += sh.weighted[i+cutoff]
					sh.totals[i] += sh.totals[i+cutoff]
				}
				inv.Barrier()
			}

			if i != 0 {
				return
			}

			// count is bin 0 here; those pixels are below the floor and don't
			// take part in the average. No weight above it meters as 0.
			weighted, total := sh.weighted[0], sh.totals[0]
			avg := float32(0)
			if lit := total - count; lit > 0 {
				indexAvg := float32(weighted)/float32(lit) - 1.0
				avg = p.MinLogLum + indexAvg/254.0*p.LogLumRange
			}

			red.Weighted, red.Total, red.Bin0, red.Count = float64(weighted), total, count, float64(total-count)
			settle(p, avg, state, &red)
		})

	return red, err
}

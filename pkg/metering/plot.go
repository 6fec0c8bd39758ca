package metering

import(
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/abworrall/auto-exposure/pkg/exposure"
)

const(
	plotBarWidth = 3
	plotHeight   = 256
)

// PlotHistogram draws the bins on a log scale, with the metered average
// marked in red. Bin 0 is drawn gray since it sits below the metered range.
func PlotHistogram(bins [exposure.NumBins]uint32, p exposure.Params, red exposure.Reduction, title string) *gg.Context {
	w := exposure.NumBins * plotBarWidth
	dc := gg.NewContext(w, plotHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	peak := 1.0
	for _, n := range bins {
		peak = math.Max(peak, math.Log1p(float64(n)))
	}

	for i, n := range bins {
		if n == 0 {
			continue
		}
		h := math.Log1p(float64(n)) / peak * (plotHeight - 20)
		if i == 0 {
			dc.SetRGB(0.6, 0.6, 0.6)
		} else {
			dc.SetRGB(0.1, 0.1, 0.4)
		}
		dc.DrawRectangle(float64(i*plotBarWidth), plotHeight-h, plotBarWidth, h)
		dc.Fill()
	}

	// Where the average sits, in bin units
	x := (1 + float64((red.AvgLogLum - p.MinLogLum) / p.LogLumRange) * 254) * plotBarWidth
	dc.SetRGB(1, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(x, 0, x, plotHeight)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	dc.DrawString(title, 10, 14)
	dc.DrawString(fmt.Sprintf("avg %.2f  ev %.2f", red.AvgLogLum, red.Exposure), 10, 30)

	return dc
}

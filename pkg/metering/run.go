package metering

import(
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codahale/hdrhistogram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/auto-exposure/pkg/compute"
	"github.com/abworrall/auto-exposure/pkg/exposure"
)

const maxLatencyMicros = int64(60 * time.Second / time.Microsecond)

// Run meters every frame in order through one session, advancing simulated
// time by FrameInterval per frame. Call Finalize first.
func (seq *Sequence)Run(ctx context.Context) (Report, error) {
	if len(seq.Frames) == 0 {
		return Report{}, ErrNoFrames
	}

	// Filled in by the hook, between the build and reduce passes
	var plotBins [exposure.NumBins]uint32
	var plotParams exposure.Params

	opts := []exposure.Option{
		exposure.WithDevice(compute.NewDevice(compute.WithLimit(seq.Workers))),
		exposure.WithLogger(log.Logger),
	}
	if seq.PlotDir != "" {
		if err := os.MkdirAll(seq.PlotDir, 0o755); err != nil {
			return Report{}, fmt.Errorf("plot dir '%s': %w", seq.PlotDir, err)
		}
		if seq.Mask != nil {
			if err := seq.Mask.ToImg("metering mask", filepath.Join(seq.PlotDir, "mask.png")); err != nil {
				return Report{}, fmt.Errorf("mask plot: %w", err)
			}
		}
		opts = append(opts, exposure.WithHistogramHook(func(p exposure.Params, bins [exposure.NumBins]uint32) {
			plotBins, plotParams = bins, p
		}))
	}

	sess, err := exposure.NewSession(seq.Settings, opts...)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Strategy: sess.Strategy().Name()}
	latency := hdrhistogram.New(1, maxLatencyMicros, 3)
	evHist := histogram.Histogram{NumBuckets: 64, ValMin: 0, ValMax: 256}
	exposures := make([]float64, 0, len(seq.Frames))

	lvl := zerolog.DebugLevel
	if seq.Verbosity > 0 {
		lvl = zerolog.InfoLevel
	}

	for i, f := range seq.Frames {
		if f.Texture == nil {
			return rep, fmt.Errorf("frame '%s' was never developed", f.Filename())
		}

		start := time.Now()
		red, err := sess.Frame(ctx, f.Texture, seq.Mask, seq.FrameInterval)
		elapsed := time.Since(start)
		if err != nil {
			return rep, fmt.Errorf("frame '%s': %w", f.Filename(), err)
		}

		latency.RecordValue(max(1, min(elapsed.Microseconds(), maxLatencyMicros)))
		evHist.Add(histogram.ScalarVal(evBucket(red.Exposure, seq.Settings)))
		exposures = append(exposures, float64(red.Exposure))

		rep.Frames = append(rep.Frames, FrameReport{
			Filename:    f.Filename(),
			AvgLogLum:   red.AvgLogLum,
			Target:      red.Target,
			Exposure:    red.Exposure,
			Compensated: red.Compensated,
			Latency:     elapsed,
		})

		log.WithLevel(lvl).
			Str("file", f.Filename()).
			Float32("avg", red.AvgLogLum).
			Float32("target", red.Target).
			Float32("ev", red.Exposure).
			Float32("compensated", red.Compensated).
			Dur("took", elapsed).
			Msg("metered")

		if seq.PlotDir != "" {
			dc := PlotHistogram(plotBins, plotParams, red, f.Filename())
			filename := filepath.Join(seq.PlotDir, fmt.Sprintf("hist-%04d.png", i))
			if err := dc.SavePNG(filename); err != nil {
				return rep, fmt.Errorf("plot '%s': %w", filename, err)
			}
		}
	}

	rep.FinalExposure = sess.Exposure()
	rep.ExposureMean, rep.ExposureStdDev = summarize(exposures)
	rep.LatencyMean = time.Duration(latency.Mean()) * time.Microsecond
	rep.LatencyP50 = time.Duration(latency.ValueAtQuantile(50)) * time.Microsecond
	rep.LatencyP99 = time.Duration(latency.ValueAtQuantile(99)) * time.Microsecond
	rep.LatencyMax = time.Duration(latency.Max()) * time.Microsecond
	rep.ExposureHistogram = fmt.Sprint(&evHist)

	return rep, nil
}

// evBucket maps an exposure onto [0,256) across the configured range.
func evBucket(ev float32, s exposure.Settings) int {
	b := int((ev - s.Min) / (s.Max - s.Min) * 256)
	return max(0, min(b, 255))
}

func summarize(xs []float64) (mean, sd float64) {
	switch len(xs) {
	case 0: return 0, 0
	case 1: return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

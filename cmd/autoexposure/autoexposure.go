package main

import(
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/abworrall/auto-exposure/pkg/metering"
)

var(
	fVerbosity  int
	fStrategy   string
	fMin        float32
	fMax        float32
	fSpeedUp    float32
	fSpeedDown  float32
	fMask       string
	fInterval   time.Duration
	fMaxWidth   int
	fWorkers    int
	fPlots      string
	fReport     string
)

func init() {
	flag.IntVarP(&fVerbosity, "verbosity", "v", 0, "how verbose to get")
	flag.StringVar(&fStrategy, "strategy", "", "how to reduce the histogram: trimmed, full")
	flag.Float32Var(&fMin, "min", 0, "lowest exposure (EV) that gets metered")
	flag.Float32Var(&fMax, "max", 0, "highest exposure (EV) that gets metered")
	flag.Float32Var(&fSpeedUp, "speed-up", 0, "EV/sec when adapting from a dark scene to a bright one")
	flag.Float32Var(&fSpeedDown, "speed-down", 0, "EV/sec when adapting from a bright scene to a dark one")
	flag.StringVar(&fMask, "mask", "", "metering mask image; bright areas count more")
	flag.DurationVar(&fInterval, "interval", 0, "simulated time between frames")
	flag.IntVar(&fMaxWidth, "max-width", 0, "downscale LDR frames wider than this")
	flag.IntVar(&fWorkers, "workers", 0, "workgroups to run at once (default GOMAXPROCS)")
	flag.StringVar(&fPlots, "plots", "", "write a histogram plot per frame into this dir")
	flag.StringVar(&fReport, "report", "", "write the run report as YAML to this file")
}

// applyFlags lets flags that were actually given override the config files.
func applyFlags(c *metering.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbosity":  c.Verbosity = fVerbosity
		case "strategy":   c.Strategy = fStrategy
		case "min":        c.Min = fMin
		case "max":        c.Max = fMax
		case "speed-up":   c.SpeedUp = fSpeedUp
		case "speed-down": c.SpeedDown = fSpeedDown
		case "mask":       c.MaskFile = fMask
		case "interval":   c.FrameInterval = fInterval
		case "max-width":  c.MaxWidth = fMaxWidth
		case "workers":    c.Workers = fWorkers
		case "plots":      c.PlotDir = fPlots
		}
	})
}

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if fVerbosity > 1 {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: autoexposure [flags] files-or-dirs...\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	seq := metering.NewSequence()
	if err := seq.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal().Err(err).Msg("load")
	}
	applyFlags(&seq.Config)

	if err := seq.Finalize(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if seq.Verbosity > 0 {
		log.Info().Msgf("Final configuration:-\n\n%s\n", seq.Config.AsYaml())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := seq.Run(ctx)
	if err != nil {
		stop()
		log.Fatal().Err(err).Msg("run")
	}
	log.Info().Msg(rep.String())

	if fReport != "" {
		out, err := rep.AsYaml()
		if err == nil {
			err = os.WriteFile(fReport, []byte(out), 0o644)
		}
		if err != nil {
			log.Fatal().Err(err).Str("file", fReport).Msg("report")
		}
	}
}

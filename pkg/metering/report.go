package metering

import(
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

// FrameReport is what happened to the exposure on one frame.
type FrameReport struct {
	Filename    string        `yaml:"file"`
	AvgLogLum   float32       `yaml:"avg_log_lum"`
	Target      float32       `yaml:"target"`
	Exposure    float32       `yaml:"exposure"`
	Compensated float32       `yaml:"compensated"`
	Latency     time.Duration `yaml:"latency"`
}

// A Report summarizes a metered sequence.
type Report struct {
	Strategy          string        `yaml:"strategy"`
	Frames            []FrameReport `yaml:"frames"`

	FinalExposure     float32       `yaml:"final_exposure"`
	ExposureMean      float64       `yaml:"exposure_mean"`
	ExposureStdDev    float64       `yaml:"exposure_stddev"`

	LatencyMean       time.Duration `yaml:"latency_mean"`
	LatencyP50        time.Duration `yaml:"latency_p50"`
	LatencyP99        time.Duration `yaml:"latency_p99"`
	LatencyMax        time.Duration `yaml:"latency_max"`

	ExposureHistogram string        `yaml:"exposure_histogram"`
}

func (r Report)String() string {
	return fmt.Sprintf("%s: %d frames, final EV %.3f (mean %.3f, sd %.3f), latency p50 %s p99 %s",
		r.Strategy, len(r.Frames), r.FinalExposure, r.ExposureMean, r.ExposureStdDev, r.LatencyP50, r.LatencyP99)
}

func (r Report)AsYaml() (string, error) {
	b, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("report yaml: %w", err)
	}
	return string(b), nil
}

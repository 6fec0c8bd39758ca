package metering

import(
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/auto-exposure/pkg/exposure"
)

type Config struct {
	exposure.Settings             `yaml:",inline"`

	Verbosity       int           `yaml:"verbosity"`
	FrameInterval   time.Duration `yaml:"frame_interval"`  // simulated time between frames
	MaskFile        string        `yaml:"mask,omitempty"`
	MaxWidth        int           `yaml:"max_width"`       // LDR frames wider than this get downscaled; 0 leaves them alone
	ReferenceLux    float64       `yaml:"reference_lux"`   // illuminance that maps to 1.0 for frames with EXIF data
	Workers         int           `yaml:"workers"`         // workgroups in flight; 0 means GOMAXPROCS
	PlotDir         string        `yaml:"histogram_plot,omitempty"`
}

func NewConfig() Config {
	return Config{
		Settings:      exposure.DefaultSettings(),
		FrameInterval: 16 * time.Millisecond,
		ReferenceLux:  2560, // EV 10
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read '%s': %w", filename, err)
	}

	c, err := newConfigFromYaml(contents)
	if err != nil {
		return c, fmt.Errorf("config parse '%s': %w", filename, err)
	}
	return c, nil
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatal().Err(err).Msg("can't marshal config yaml")
	}
	return string(b)
}

// Finalize checks the config once all the overrides are in.
func (c *Config)Finalize() error {
	if c.FrameInterval < 0 {
		return fmt.Errorf("frame_interval %s is negative: %w", c.FrameInterval, exposure.ErrInvalidSettings)
	}
	if c.ReferenceLux <= 0 {
		c.ReferenceLux = NewConfig().ReferenceLux
	}
	return c.Settings.Validate()
}

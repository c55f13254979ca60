package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/estimator"
	"github.com/san-kum/dimerfit/internal/models"
	"github.com/san-kum/dimerfit/internal/optim"
)

const (
	DefaultIterations = 10000
	DefaultInterval   = 95.0
	DefaultGridPoints = 100
	DefaultSeed       = 12345
	DefaultCodec      = "zstd"
)

type Config struct {
	Model     string          `yaml:"model"`
	Region    string          `yaml:"region"`
	Log       bool            `yaml:"log"`
	Guess     []float64       `yaml:"guess,omitempty"`
	Fixed     []string        `yaml:"fixed,omitempty"`
	Groups    []string        `yaml:"groups,omitempty"`
	Seed      int64           `yaml:"seed"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Fit       FitConfig       `yaml:"fit"`
	Storage   StorageConfig   `yaml:"storage"`
}

type BootstrapConfig struct {
	Iterations int     `yaml:"iterations"`
	Interval   float64 `yaml:"interval"`
	GridPoints int     `yaml:"grid_points"`
	Workers    int     `yaml:"workers"`
}

type FitConfig struct {
	MaxEvals int     `yaml:"max_evals"`
	FTol     float64 `yaml:"ftol"`
	XTol     float64 `yaml:"xtol"`
	GTol     float64 `yaml:"gtol"`
}

type StorageConfig struct {
	Codec string `yaml:"codec"`
}

func DefaultConfig() *Config {
	fit := optim.DefaultSettings()
	return &Config{
		Model:  "paired",
		Region: string(dataset.RegionPost),
		Seed:   DefaultSeed,
		Bootstrap: BootstrapConfig{
			Iterations: DefaultIterations,
			Interval:   DefaultInterval,
			GridPoints: DefaultGridPoints,
			Workers:    1,
		},
		Fit: FitConfig{
			MaxEvals: fit.MaxEvals,
			FTol:     fit.FTol,
			XTol:     fit.XTol,
			GTol:     fit.GTol,
		},
		Storage: StorageConfig{Codec: DefaultCodec},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Guess = append([]float64(nil), c.Guess...)
	out.Fixed = append([]string(nil), c.Fixed...)
	out.Groups = append([]string(nil), c.Groups...)
	return &out
}

// Estimator converts the file configuration into a validated estimator
// configuration.
func (c *Config) Estimator() (estimator.Config, error) {
	kind, err := models.ParseKind(c.Model)
	if err != nil {
		return estimator.Config{}, fmt.Errorf("%w: %w", estimator.ErrInvalidConfig, err)
	}
	region, err := dataset.ParseRegion(c.Region)
	if err != nil {
		return estimator.Config{}, fmt.Errorf("%w: %w", estimator.ErrInvalidConfig, err)
	}

	ec := estimator.DefaultConfig(kind)
	ec.Region = region
	ec.Log = c.Log
	ec.Seed = c.Seed
	ec.Groups = append([]string(nil), c.Groups...)
	if len(c.Guess) > 0 {
		ec = ec.WithGuess(c.Guess...)
	}
	for _, p := range c.Fixed {
		ec = ec.Fix(p)
	}
	ec.Iterations = c.Bootstrap.Iterations
	ec.Interval = c.Bootstrap.Interval
	ec.GridPoints = c.Bootstrap.GridPoints
	ec.Workers = c.Bootstrap.Workers
	ec.Fit = optim.Settings{
		MaxEvals: c.Fit.MaxEvals,
		FTol:     c.Fit.FTol,
		XTol:     c.Fit.XTol,
		GTol:     c.Fit.GTol,
	}

	if err := ec.Validate(); err != nil {
		return estimator.Config{}, err
	}
	return ec, nil
}

package nn

import (
	"fmt"
	"math"
	"math/rand"
)

// Config controls index construction. Start with [DefaultConfig], set Dim,
// and override the fields you need.
type Config struct {
	// Dim is the number of coordinates of every point. Must be >= 1.
	Dim int

	// Metric is the distance function. Default: EuclideanMetric.
	Metric DistanceMetric

	// MinSize is the smallest leaf bucket a VP-tree keeps outside the root.
	// Removals that leave a leaf below MinSize merge it with its sibling.
	// Must be >= 1. Default: 1.
	MinSize int

	// MaxSize is the largest leaf bucket before the leaf is split.
	// Must be >= 2*MinSize-1 so a split never produces an underfull leaf.
	// Default: 2.
	MaxSize int

	// MaxImbalance is the largest fraction of a VP-tree subtree's elements
	// one child may hold after a mutation before the subtree is rebuilt.
	// Must be in (0.5, 1]; 1 disables rebuilding. Default: 0.75.
	MaxImbalance float64

	// SampleSize is the number of vantage point candidates drawn per split.
	// Must be >= 1. Default: 5.
	SampleSize int

	// Seed seeds the VP-tree's random source when Rand is nil, making builds
	// reproducible.
	Seed int64

	// Rand overrides the random source used for vantage point sampling.
	// It is owned by the index afterwards and must not be shared.
	Rand *rand.Rand

	// CellSize is the edge length of a grid cell. Only used by the grid
	// index. Must be > 0. Default: 1.
	CellSize float64

	// Logger receives debug output from the index and, through New, one
	// record per operation. Default: nil (silent).
	Logger *Logger

	// Metrics receives operation timings through New. Default: nil.
	Metrics MetricsCollector
}

// DefaultConfig returns a Config with the defaults of every field except Dim.
func DefaultConfig() Config {
	return Config{
		Metric:       EuclideanMetric{},
		MinSize:      1,
		MaxSize:      2,
		MaxImbalance: 0.75,
		SampleSize:   5,
		CellSize:     1,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.MinSize == 0 {
		cfg.MinSize = 1
	}
	if cfg.MaxSize == 0 {
		if cfg.MinSize > math.MaxInt/2 {
			cfg.MaxSize = math.MaxInt
		} else {
			cfg.MaxSize = max(2, 2*cfg.MinSize-1)
		}
	}
	if cfg.MaxImbalance == 0 {
		cfg.MaxImbalance = 0.75
	}
	if cfg.SampleSize == 0 {
		cfg.SampleSize = 5
	}
	if cfg.CellSize == 0 {
		cfg.CellSize = 1
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.Dim < 1 {
		return fmt.Errorf("%w: Dim must be >= 1, got %d", ErrInvalidConfig, cfg.Dim)
	}
	if cfg.MinSize < 1 {
		return fmt.Errorf("%w: MinSize must be >= 1, got %d", ErrInvalidConfig, cfg.MinSize)
	}
	if cfg.MaxSize < cfg.MinSize {
		return fmt.Errorf("%w: MaxSize (%d) must be >= MinSize (%d)", ErrInvalidConfig, cfg.MaxSize, cfg.MinSize)
	}
	// MaxSize >= 2*MinSize-1, written so that it cannot overflow.
	if cfg.MaxSize-cfg.MinSize < cfg.MinSize-1 {
		return fmt.Errorf("%w: MaxSize must be >= 2*MinSize-1, got MinSize %d and MaxSize %d", ErrInvalidConfig, cfg.MinSize, cfg.MaxSize)
	}
	if !(cfg.MaxImbalance > 0.5 && cfg.MaxImbalance <= 1) {
		return fmt.Errorf("%w: MaxImbalance must be in (0.5, 1], got %f", ErrInvalidConfig, cfg.MaxImbalance)
	}
	if cfg.SampleSize < 1 {
		return fmt.Errorf("%w: SampleSize must be >= 1, got %d", ErrInvalidConfig, cfg.SampleSize)
	}
	if !(cfg.CellSize > 0) {
		return fmt.Errorf("%w: CellSize must be > 0, got %f", ErrInvalidConfig, cfg.CellSize)
	}
	if m, ok := cfg.Metric.(MinkowskiMetric); ok && m.P < 1 {
		return fmt.Errorf("%w: MinkowskiMetric P must be >= 1, got %f", ErrInvalidConfig, m.P)
	}
	return nil
}

// prepareConfig applies defaults and validates, returning the usable copy.
func prepareConfig(cfg Config) (Config, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg *Config) random() *rand.Rand {
	if cfg.Rand != nil {
		return cfg.Rand
	}
	return rand.New(rand.NewSource(cfg.Seed))
}

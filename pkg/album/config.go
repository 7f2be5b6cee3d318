package album

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/cluster"

	"github.com/kelseyhightower/envconfig"
)

// Strategy names of the moment clustering pass.
const (
	StrategySequential = "sequential"
	StrategyDensity    = "density"
)

// Config tunes the album pipeline. LoadConfig reads it from ALBUM_* variables.
type Config struct {
	TripSeparation     time.Duration `envconfig:"TRIP_SEPARATION" default:"48h"`
	SpatialThreshold   float64       `envconfig:"SPATIAL_THRESHOLD" default:"175"`
	TemporalThreshold  time.Duration `envconfig:"TEMPORAL_THRESHOLD" default:"3h"`
	HighlightThreshold float64       `envconfig:"HIGHLIGHT_THRESHOLD" default:"0.85"`
	OutlierThreshold   float64       `envconfig:"OUTLIER_THRESHOLD" default:"2.5"`

	Strategy              string  `envconfig:"STRATEGY" default:"sequential"`
	DensityEps            float64 `envconfig:"DENSITY_EPS" default:"0.3"`
	DensityMinPts         int     `envconfig:"DENSITY_MIN_PTS" default:"3"`
	DensityVisualWeight   float64 `envconfig:"DENSITY_VISUAL_WEIGHT" default:"0.7"`
	DensityGeoWeight      float64 `envconfig:"DENSITY_GEO_WEIGHT" default:"0.3"`
	DensityMaxGeoDistance float64 `envconfig:"DENSITY_MAX_GEO_DISTANCE" default:"200"`

	MaxCandidates   int    `envconfig:"MAX_CANDIDATES" default:"10"`
	TripConcurrency int    `envconfig:"TRIP_CONCURRENCY" default:"4"`
	TimeZone        string `envconfig:"TIME_ZONE" default:"Local"`

	Location *time.Location `ignored:"true"`
}

// DefaultConfig returns the stock settings without consulting the environment.
func DefaultConfig() Config {
	density := cluster.DefaultDensityOptions()
	return Config{
		TripSeparation:     cluster.DefaultTripSeparation,
		SpatialThreshold:   cluster.DefaultSpatialThreshold,
		TemporalThreshold:  cluster.DefaultTemporalThreshold,
		HighlightThreshold: cluster.DefaultHighlightThreshold,
		OutlierThreshold:   cluster.DefaultOutlierThreshold,

		Strategy:              StrategySequential,
		DensityEps:            density.Eps,
		DensityMinPts:         density.MinPts,
		DensityVisualWeight:   density.VisualWeight,
		DensityGeoWeight:      density.GeoWeight,
		DensityMaxGeoDistance: density.MaxGeoDistance,

		MaxCandidates:   10,
		TripConcurrency: 4,
		TimeZone:        "Local",
		Location:        time.Local,
	}
}

// LoadConfig reads the ALBUM_* environment variables on top of the defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("ALBUM", &cfg); err != nil {
		return Config{}, fmt.Errorf("album config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings and resolves TimeZone into Location.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategySequential, StrategyDensity:
	default:
		return fmt.Errorf("album config: unknown strategy %q", c.Strategy)
	}
	if c.TripSeparation <= 0 || c.TemporalThreshold <= 0 {
		return fmt.Errorf("album config: durations must be positive")
	}
	if c.SpatialThreshold <= 0 {
		return fmt.Errorf("album config: spatial threshold must be positive")
	}
	if c.MaxCandidates < 0 {
		return fmt.Errorf("album config: max candidates must not be negative")
	}
	if c.TripConcurrency <= 0 {
		c.TripConcurrency = 1
	}
	if c.Location == nil {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return fmt.Errorf("album config: time zone %q: %w", c.TimeZone, err)
		}
		c.Location = loc
	}
	return nil
}

func (c Config) momentOptions() cluster.MomentOptions {
	return cluster.MomentOptions{
		SpatialThreshold:  c.SpatialThreshold,
		TemporalThreshold: c.TemporalThreshold,
	}
}

func (c Config) densityOptions() cluster.DensityOptions {
	return cluster.DensityOptions{
		Eps:            c.DensityEps,
		MinPts:         c.DensityMinPts,
		VisualWeight:   c.DensityVisualWeight,
		GeoWeight:      c.DensityGeoWeight,
		MaxGeoDistance: c.DensityMaxGeoDistance,
	}
}

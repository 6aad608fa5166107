// Package config holds the settings shared by the pipeline programs: where the raw
// tables live, where artifacts are written, the holdout season and model knobs.
//
// Every program builds a Config with Load and passes it (or the parts it needs) down
// explicitly; nothing in the racing packages reads paths from globals.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Model names accepted by the learn program.
const (
	ModelForest = "forest"
	ModelMLP    = "mlp"
	ModelCART   = "cart"
)

// Qualifying modes.
const (
	QualifyingAuto = "auto"
	QualifyingOn   = "on"
	QualifyingOff  = "off"
)

// Config is the pipeline configuration.
type Config struct {
	// DataDir holds the raw source tables (results, races, drivers, ...).
	DataDir string `koanf:"data_dir"`

	// OutDir receives the base tables, predictions, model and plots.
	OutDir string `koanf:"out_dir"`

	// HoldoutYear is the season excluded from fitting and used for evaluation.
	HoldoutYear int `koanf:"holdout_year"`

	// Qualifying selects whether q_pos is used: auto, on or off.
	Qualifying string `koanf:"qualifying"`

	// Model selects the regressor: forest, mlp or cart.
	Model string `koanf:"model"`

	Trees              int     `koanf:"trees"`
	CARTMaxDepth       int     `koanf:"cart_max_depth"`
	Seed               int64   `koanf:"seed"`
	ValidationFraction float64 `koanf:"validation_fraction"`

	// MinPos and MaxPos bound persisted predictions.
	MinPos   float64 `koanf:"min_pos"`
	MaxPos   float64 `koanf:"max_pos"`
	Decimals int     `koanf:"decimals"`

	MLPEpochs    int     `koanf:"mlp_epochs"`
	MLPBatchSize int     `koanf:"mlp_batch_size"`
	MLPLearnRate float64 `koanf:"mlp_learn_rate"`

	// TopK lists the k values reported by the evaluator.
	TopK []int `koanf:"top_k"`

	PlotWidthIn  float64 `koanf:"plot_width_in"`
	PlotHeightIn float64 `koanf:"plot_height_in"`

	// Addr is the viewer listen address.
	Addr string `koanf:"addr"`

	// DSN is the Ergast MySQL connection string used by gendata.
	DSN string `koanf:"dsn"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DataDir:            ".",
		OutDir:             ".",
		HoldoutYear:        2024,
		Qualifying:         QualifyingAuto,
		Model:              ModelForest,
		Trees:              400,
		CARTMaxDepth:       12,
		Seed:               42,
		ValidationFraction: 0.2,
		MinPos:             1,
		MaxPos:             20,
		Decimals:           2,
		MLPEpochs:          200,
		MLPBatchSize:       100,
		MLPLearnRate:       0.001,
		TopK:               []int{3, 10},
		PlotWidthIn:        8,
		PlotHeightIn:       6,
		Addr:               ":8501",
		DSN:                "ergast?parseTime=true",
	}
}

// Validate checks the configuration for values no stage can work with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if strings.TrimSpace(c.OutDir) == "" {
		errs = append(errs, errors.New("out_dir must not be empty"))
	}
	if c.HoldoutYear <= 0 {
		errs = append(errs, fmt.Errorf("holdout_year must be positive, got %d", c.HoldoutYear))
	}
	switch c.Qualifying {
	case QualifyingAuto, QualifyingOn, QualifyingOff:
	default:
		errs = append(errs, fmt.Errorf("qualifying must be auto, on or off, got %q", c.Qualifying))
	}
	switch c.Model {
	case ModelForest, ModelMLP, ModelCART:
	default:
		errs = append(errs, fmt.Errorf("unknown model %q", c.Model))
	}
	if c.Trees <= 0 {
		errs = append(errs, fmt.Errorf("trees must be positive, got %d", c.Trees))
	}
	if c.CARTMaxDepth == 0 || c.CARTMaxDepth < -1 {
		errs = append(errs, fmt.Errorf("cart_max_depth must be positive or -1, got %d", c.CARTMaxDepth))
	}
	if c.ValidationFraction <= 0 || c.ValidationFraction >= 1 {
		errs = append(errs, fmt.Errorf("validation_fraction must be in (0,1), got %v", c.ValidationFraction))
	}
	if c.MinPos >= c.MaxPos {
		errs = append(errs, fmt.Errorf("min_pos %v must be below max_pos %v", c.MinPos, c.MaxPos))
	}
	if c.Decimals < 0 {
		errs = append(errs, fmt.Errorf("decimals must not be negative, got %d", c.Decimals))
	}
	if c.MLPBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("mlp_batch_size must be positive, got %d", c.MLPBatchSize))
	}
	for _, k := range c.TopK {
		if k <= 0 {
			errs = append(errs, fmt.Errorf("top_k values must be positive, got %d", k))
		}
	}
	return errors.Join(errs...)
}

// BaseAllPath is the joined multi-year table.
func (c *Config) BaseAllPath() string {
	return filepath.Join(c.OutDir, "base_all_years.csv")
}

// BaseYearPath is the joined table filtered to one season.
func (c *Config) BaseYearPath(year int) string {
	return filepath.Join(c.OutDir, fmt.Sprintf("base_%d.csv", year))
}

// FlatPath is the flat predictions file for a season.
func (c *Config) FlatPath(year int) string {
	return filepath.Join(c.OutDir, fmt.Sprintf("predictions_%d_flat.csv", year))
}

// OrderedPath is the predictions file grouped by race.
func (c *Config) OrderedPath(year int) string {
	return filepath.Join(c.OutDir, fmt.Sprintf("predicted_order_by_race_%d.csv", year))
}

func (c *Config) ModelPath() string {
	return filepath.Join(c.OutDir, "model.gob")
}

func (c *Config) ScatterPath() string {
	return filepath.Join(c.OutDir, "plot_pred_vs_actual.png")
}

func (c *Config) SpearmanPath() string {
	return filepath.Join(c.OutDir, "plot_spearman_by_race.png")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsAreValid(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2024, cfg.HoldoutYear)
	assert.Equal(t, []int{3, 10}, cfg.TopK)
	assert.Equal(t, ModelForest, cfg.Model)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := New()
	cfg.DataDir = ""
	cfg.ValidationFraction = 1.5
	cfg.MinPos = 20
	cfg.Model = "svm"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data_dir")
	assert.Contains(t, err.Error(), "validation_fraction")
	assert.Contains(t, err.Error(), "min_pos")
	assert.Contains(t, err.Error(), "svm")
}

func TestPaths(t *testing.T) {
	cfg := New()
	cfg.OutDir = "out"
	assert.Equal(t, filepath.Join("out", "base_all_years.csv"), cfg.BaseAllPath())
	assert.Equal(t, filepath.Join("out", "base_2024.csv"), cfg.BaseYearPath(2024))
	assert.Equal(t, filepath.Join("out", "predictions_2023_flat.csv"), cfg.FlatPath(2023))
	assert.Equal(t, filepath.Join("out", "predicted_order_by_race_2024.csv"), cfg.OrderedPath(2024))
	assert.Equal(t, filepath.Join("out", "model.gob"), cfg.ModelPath())
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f1.yaml")
	yaml := "data_dir: /data/f1\nholdout_year: 2023\ntrees: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("F1_TREES", "75")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/f1", cfg.DataDir)
	assert.Equal(t, 2023, cfg.HoldoutYear)
	assert.Equal(t, 75, cfg.Trees)
	// untouched defaults survive
	assert.Equal(t, 0.2, cfg.ValidationFraction)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestResolveCapabilities(t *testing.T) {
	cfg := New()

	caps, err := ResolveCapabilities(cfg, true)
	require.NoError(t, err)
	assert.True(t, caps.Qualifying)

	caps, err = ResolveCapabilities(cfg, false)
	require.NoError(t, err)
	assert.False(t, caps.Qualifying)

	cfg.Qualifying = QualifyingOff
	caps, err = ResolveCapabilities(cfg, true)
	require.NoError(t, err)
	assert.False(t, caps.Qualifying)

	cfg.Qualifying = QualifyingOn
	_, err = ResolveCapabilities(cfg, false)
	require.Error(t, err)
}

func TestLoadTopKFromEnv(t *testing.T) {
	t.Setenv("F1_TOP_K", "3, 5,10")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 10}, cfg.TopK)

	t.Setenv("F1_TOP_K", "1")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cfg.TopK)

	t.Setenv("F1_TOP_K", "3,x")
	_, err = Load("")
	require.Error(t, err)
}

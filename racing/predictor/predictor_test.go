package predictor

import (
	"math"
	"path/filepath"
	"testing"

	"f1predict/racing/config"
	"f1predict/racing/f1data"
	"f1predict/racing/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// season builds a grid of results where lower driver ids tend to finish ahead.
func season(years []int, drivers, rounds int) []f1data.RaceResult {
	var rows []f1data.RaceResult
	id := 0
	for _, y := range years {
		for r := 1; r <= rounds; r++ {
			for d := 1; d <= drivers; d++ {
				id++
				finish := float64((d+r+y)%drivers + 1)
				if d <= drivers/2 {
					finish = float64((d+r)%(drivers/2) + 1)
				}
				rows = append(rows, f1data.RaceResult{
					ResultID:      id,
					RaceID:        y*100 + r,
					Year:          y,
					Round:         r,
					CircuitID:     r,
					DriverID:      d,
					DriverRef:     "d" + string(rune('a'+d)),
					ConstructorID: (d + 1) / 2,
					Grid:          float64(d),
					FinishPos:     finish,
					QPos:          math.NaN(),
				})
			}
		}
	}
	return rows
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Trees = 15
	return cfg
}

func TestClipRound(t *testing.T) {
	assert.Equal(t, 1.0, ClipRound(0.3, 1, 20, 2))
	assert.Equal(t, 20.0, ClipRound(25.7, 1, 20, 2))
	assert.Equal(t, 3.14, ClipRound(3.14159, 1, 20, 2))
	assert.Equal(t, 7.0, ClipRound(6.6, 1, 20, 0))
}

func TestNewUnknownModel(t *testing.T) {
	_, err := New("svm", config.New())
	require.ErrorIs(t, err, ErrUnknownModel)
}

func TestSplitUsesClassifiedRowsOnly(t *testing.T) {
	rows := []features.Row{
		{RaceResult: f1data.RaceResult{Year: 2023, FinishPos: 1}},
		{RaceResult: f1data.RaceResult{Year: 2023, FinishPos: math.NaN()}},
		{RaceResult: f1data.RaceResult{Year: 2024, FinishPos: 2}},
		{RaceResult: f1data.RaceResult{Year: 2025, FinishPos: 2}},
		{RaceResult: f1data.RaceResult{Year: 0, FinishPos: 3}},
	}
	train, eval := Split(rows, 2024)
	assert.Len(t, train, 1)
	assert.Len(t, eval, 1)
}

func TestTrainPredictionsInRange(t *testing.T) {
	cfg := testConfig()
	set := features.Derive(season([]int{2022, 2023, 2024}, 10, 4), features.Options{HoldoutYear: 2024})
	res, err := Train(set, cfg)
	require.NoError(t, err)
	require.Len(t, res.Predictions, 40)
	assert.False(t, math.IsNaN(res.ValidationMAE))
	for _, p := range res.Predictions {
		assert.Equal(t, 2024, p.Year)
		assert.GreaterOrEqual(t, p.PredPos, 1.0)
		assert.LessOrEqual(t, p.PredPos, 20.0)
		assert.InDelta(t, p.PredPos, math.Round(p.PredPos*100)/100, 1e-9)
	}
}

func TestValidationSplitDoesNotChangeHoldout(t *testing.T) {
	set := features.Derive(season([]int{2022, 2023, 2024}, 8, 3), features.Options{HoldoutYear: 2024})

	a := testConfig()
	a.ValidationFraction = 0.2
	b := testConfig()
	b.ValidationFraction = 0.5

	ra, err := Train(set, a)
	require.NoError(t, err)
	rb, err := Train(set, b)
	require.NoError(t, err)
	assert.Equal(t, ra.Predictions, rb.Predictions)
}

func TestTrainWithoutTrainingRows(t *testing.T) {
	set := features.Derive(season([]int{2024}, 4, 2), features.Options{HoldoutYear: 2024})
	_, err := Train(set, testConfig())
	require.ErrorIs(t, err, ErrNoTrainingRows)
}

func TestSaveLoadForest(t *testing.T) {
	cfg := testConfig()
	set := features.Derive(season([]int{2023, 2024}, 6, 3), features.Options{HoldoutYear: 2024})
	res, err := Train(set, cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, Save(path, res, cfg.HoldoutYear))

	bundle, model, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ModelForest, bundle.Model)
	assert.Equal(t, res.Features, bundle.Features)
	assert.Equal(t, res.Medians, bundle.Medians)

	_, eval := Split(set.Rows, cfg.HoldoutYear)
	again, err := Predict(model, eval, bundle.Features, cfg)
	require.NoError(t, err)
	assert.Equal(t, res.Predictions, again)
}

func TestSaveLoadCART(t *testing.T) {
	cfg := testConfig()
	cfg.Model = config.ModelCART
	cfg.CARTMaxDepth = 6
	set := features.Derive(season([]int{2022, 2023, 2024}, 6, 3), features.Options{HoldoutYear: 2024})
	res, err := Train(set, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, res.Predictions)
	for _, p := range res.Predictions {
		assert.True(t, p.PredPos >= cfg.MinPos && p.PredPos <= cfg.MaxPos, p.PredPos)
	}

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, Save(path, res, cfg.HoldoutYear))
	bundle, model, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ModelCART, bundle.Model)
	assert.Nil(t, bundle.Forest)

	_, eval := Split(set.Rows, cfg.HoldoutYear)
	again, err := Predict(model, eval, bundle.Features, cfg)
	require.NoError(t, err)
	assert.Equal(t, res.Predictions, again)
}

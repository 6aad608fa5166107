// Package predictor fits a finishing-position regressor on the seasons before the
// holdout and scores the holdout season.
package predictor

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"f1predict/racing/config"
	"f1predict/racing/evaluate"
	"f1predict/racing/f1data"
	"f1predict/racing/features"
	"f1predict/racing/forest"
	"f1predict/racing/mlp"

	"github.com/aunum/log"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoTrainingRows is returned when no classified row precedes the holdout season.
	ErrNoTrainingRows = errors.New("no training rows before holdout year")
	// ErrUnknownModel is returned by New for an unsupported model name.
	ErrUnknownModel = errors.New("unknown model")
)

// Regressor is a model mapping feature rows to finishing positions.
type Regressor interface {
	Fit(x *mat.Dense, y []float64) error
	Predict(x *mat.Dense) ([]float64, error)
}

// New returns an unfitted regressor by name.
func New(name string, cfg *config.Config) (Regressor, error) {
	switch name {
	case config.ModelForest:
		return forest.New(cfg.Trees, cfg.Seed), nil
	case config.ModelMLP:
		return mlp.New(cfg.MLPEpochs, cfg.MLPBatchSize, cfg.MLPLearnRate), nil
	case config.ModelCART:
		return forest.NewCART(cfg.CARTMaxDepth), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Split returns the classified rows before holdout and the classified rows of holdout.
func Split(rows []features.Row, holdout int) (train, eval []features.Row) {
	for _, r := range rows {
		if !r.Classified() {
			continue
		}
		switch {
		case r.Year < holdout:
			train = append(train, r)
		case r.Year == holdout:
			eval = append(eval, r)
		}
	}
	return train, eval
}

// Matrix lays out the named features of rows, one row per sample.
func Matrix(rows []features.Row, names []string) *mat.Dense {
	x := mat.NewDense(len(rows), len(names), nil)
	for i := range rows {
		x.SetRow(i, rows[i].Vector(names))
	}
	return x
}

// Targets returns the finishing positions of rows.
func Targets(rows []features.Row) []float64 {
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.FinishPos
	}
	return y
}

// ClipRound bounds v to [lo, hi] and rounds it to decimals places.
func ClipRound(v, lo, hi float64, decimals int) float64 {
	v = math.Max(lo, math.Min(hi, v))
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// Result is the outcome of Train.
type Result struct {
	Model         Regressor
	Features      []string
	Medians       map[string]float64
	ValidationMAE float64 // NaN when the training set is too small to split
	Predictions   []f1data.Prediction
}

// Train validates on a seeded 80/20 split of the training rows, refits a fresh model
// on all of them and predicts the holdout season.
func Train(set *features.Set, cfg *config.Config) (*Result, error) {
	train, eval := Split(set.Rows, cfg.HoldoutYear)
	if len(train) == 0 {
		return nil, ErrNoTrainingRows
	}
	if len(set.Names) == 0 {
		return nil, errors.New("no usable features")
	}
	log.Infof("train rows %d, holdout %d rows %d, features %v", len(train), cfg.HoldoutYear, len(eval), set.Names)

	res := &Result{Features: set.Names, Medians: set.Medians}
	var err error
	if res.ValidationMAE, err = validate(train, set.Names, cfg); err != nil {
		return nil, err
	}
	if math.IsNaN(res.ValidationMAE) {
		log.Info("too few training rows for a validation split")
	} else {
		log.Infof("MAE (val): %.3f", res.ValidationMAE)
	}

	if res.Model, err = New(cfg.Model, cfg); err != nil {
		return nil, err
	}
	if err := res.Model.Fit(Matrix(train, set.Names), Targets(train)); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if res.Predictions, err = Predict(res.Model, eval, set.Names, cfg); err != nil {
		return nil, err
	}
	return res, nil
}

// validate fits a throwaway model on a seeded permutation's first part and returns
// its MAE on the rest.
func validate(train []features.Row, names []string, cfg *config.Config) (float64, error) {
	n := len(train)
	nTest := int(math.Ceil(cfg.ValidationFraction * float64(n)))
	if nTest < 1 || nTest >= n {
		return math.NaN(), nil
	}
	perm := rand.New(rand.NewSource(cfg.Seed)).Perm(n)
	fit := make([]features.Row, 0, n-nTest)
	test := make([]features.Row, 0, nTest)
	for k, i := range perm {
		if k < nTest {
			test = append(test, train[i])
		} else {
			fit = append(fit, train[i])
		}
	}
	model, err := New(cfg.Model, cfg)
	if err != nil {
		return 0, err
	}
	if err := model.Fit(Matrix(fit, names), Targets(fit)); err != nil {
		return 0, fmt.Errorf("validation fit: %w", err)
	}
	pred, err := model.Predict(Matrix(test, names))
	if err != nil {
		return 0, fmt.Errorf("validation predict: %w", err)
	}
	return evaluate.MAE(pred, Targets(test)), nil
}

// Predict scores rows with a fitted model and returns clipped, rounded predictions in
// row order.
func Predict(model Regressor, rows []features.Row, names []string, cfg *config.Config) ([]f1data.Prediction, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	pred, err := model.Predict(Matrix(rows, names))
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	out := make([]f1data.Prediction, len(rows))
	for i, r := range rows {
		out[i] = f1data.Prediction{
			Year:      r.Year,
			Round:     r.Round,
			RaceID:    r.RaceID,
			CircuitID: r.CircuitID,
			DriverRef: r.DriverRef,
			Team:      r.Team,
			Grid:      r.Grid,
			PredPos:   ClipRound(pred[i], cfg.MinPos, cfg.MaxPos, cfg.Decimals),
			FinishPos: r.FinishPos,
		}
	}
	return out, nil
}

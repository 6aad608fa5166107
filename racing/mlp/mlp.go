// Package mlp is a feed-forward network regressor built with goro on gorgonia.
package mlp

import (
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/aunum/gold/pkg/v1/dense"
	"github.com/aunum/goro/pkg/v1/layer"
	m "github.com/aunum/goro/pkg/v1/model"
	"github.com/aunum/log"

	g "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Regressor is a two hidden layer network with a linear output. Inputs and the
// target are standardised with the training means and deviations; the layers have
// no bias, so the network output is zero at the feature means and the target mean
// is restored in Predict.
type Regressor struct {
	Epochs    int
	BatchSize int
	LearnRate float64

	state state
	model *m.Sequential
}

// state is what Encode persists ahead of the learnables.
type state struct {
	NFeatures int
	BatchSize int
	LearnRate float64
	Means     []float64
	Stds      []float64
	YMean     float64
	YStd      float64
}

// New returns an untrained regressor.
func New(epochs, batchSize int, learnRate float64) *Regressor {
	return &Regressor{Epochs: epochs, BatchSize: batchSize, LearnRate: learnRate}
}

func buildModel(numcols, batchSize int, learnRate float64) (*m.Sequential, error) {
	xi := m.NewInput("x", []int{1, numcols}, m.AsType(tensor.Float32))
	yi := m.NewInput("y", []int{1, 1}, m.AsType(tensor.Float32))

	model, err := m.NewSequential("sp")
	if err != nil {
		return nil, err
	}
	model.AddLayers(
		layer.FC{Input: numcols, Output: numcols * 2, Name: "L0", NoBias: true},
		layer.FC{Input: numcols * 2, Output: 20, Name: "L1", NoBias: true},
		layer.FC{Input: 20, Output: 1, Name: "O0", NoBias: true, Activation: layer.NewLinear()},
	)
	optimizer := g.NewRMSPropSolver(g.WithBatchSize(float64(batchSize)), g.WithLearnRate(learnRate))
	err = model.Compile(xi, yi,
		m.WithOptimizer(optimizer),
		m.WithLoss(m.MSE),
		m.WithBatchSize(batchSize),
	)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Fit trains the network for Epochs passes of mini-batches over x.
func (r *Regressor) Fit(x *mat.Dense, y []float64) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return errors.New("mlp: no training rows")
	}
	if rows != len(y) {
		return fmt.Errorf("mlp: %d rows but %d targets", rows, len(y))
	}
	batchSize := r.BatchSize
	if batchSize < 1 || batchSize > rows {
		batchSize = rows
	}
	r.state = state{NFeatures: cols, BatchSize: batchSize, LearnRate: r.LearnRate}
	r.state.Means = make([]float64, cols)
	r.state.Stds = make([]float64, cols)
	for c := 0; c < cols; c++ {
		r.state.Means[c], r.state.Stds[c] = stat.MeanStdDev(mat.Col(nil, c, x), nil)
	}
	r.state.YMean, r.state.YStd = stat.MeanStdDev(y, nil)

	model, err := buildModel(cols, batchSize, r.LearnRate)
	if err != nil {
		return fmt.Errorf("mlp: build model: %w", err)
	}
	xt := tensor.FromMat64(r.standardise(x), tensor.As(g.Float32))
	yt := tensor.FromMat64(mat.NewDense(rows, 1, r.scaleTargets(y)), tensor.As(g.Float32))
	log.Infov("x shape", xt.Shape())
	log.Infov("learnables", model.Learnables())

	batches := rows / batchSize
	starttime := time.Now()
	for epoch := 0; epoch < r.Epochs; epoch++ {
		for batch := 0; batch < batches; batch++ {
			start := batch * batchSize
			end := start + batchSize
			xi, err := xt.Slice(dense.MakeRangedSlice(start, end))
			if err != nil {
				return err
			}
			yi, err := yt.Slice(dense.MakeRangedSlice(start, end))
			if err != nil {
				return err
			}
			if err := model.FitBatch(xi, yi); err != nil {
				return fmt.Errorf("mlp: epoch %d batch %d: %w", epoch, batch, err)
			}
			model.Tracker.LogStep(epoch, batch)
		}
		if epoch%50 == 0 || epoch == r.Epochs-1 {
			log.Infof("%v completed train epoch %v", time.Since(starttime), epoch)
		}
	}
	if err := model.Tracker.Clear(); err != nil {
		return err
	}
	r.model = model
	return nil
}

// Predict scores the rows of x one at a time.
func (r *Regressor) Predict(x *mat.Dense) ([]float64, error) {
	if r.model == nil {
		return nil, errors.New("mlp: model not fitted")
	}
	rows, cols := x.Dims()
	if cols != r.state.NFeatures {
		return nil, fmt.Errorf("mlp: %d features, model expects %d", cols, r.state.NFeatures)
	}
	xt := tensor.FromMat64(r.standardise(x), tensor.As(g.Float32))
	out := make([]float64, rows)
	for row := 0; row < rows; row++ {
		xi, err := xt.Slice(dense.MakeRangedSlice(row, row+1))
		if err != nil {
			return nil, err
		}
		if err := xi.Reshape(1, cols); err != nil {
			return nil, err
		}
		yHat, err := r.model.Predict(xi)
		if err != nil {
			return nil, fmt.Errorf("mlp: predict row %d: %w", row, err)
		}
		out[row] = r.unscale(float64(yHat.Data().([]float32)[0]))
	}
	return out, nil
}

func (r *Regressor) standardise(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if !(r.state.Stds[j] > 0) {
			return 0
		}
		return (v - r.state.Means[j]) / r.state.Stds[j]
	}, x)
	return out
}

func (r *Regressor) scaleTargets(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		if r.state.YStd > 0 {
			out[i] = (v - r.state.YMean) / r.state.YStd
		}
	}
	return out
}

func (r *Regressor) unscale(v float64) float64 {
	if r.state.YStd > 0 {
		return v*r.state.YStd + r.state.YMean
	}
	return r.state.YMean
}

// Encode writes the scaling state followed by the learnable node values.
func (r *Regressor) Encode(enc *gob.Encoder) error {
	if r.model == nil {
		return errors.New("mlp: model not fitted")
	}
	if err := enc.Encode(r.state); err != nil {
		return err
	}
	for _, node := range r.model.Learnables() {
		if err := enc.Encode(node.Value()); err != nil {
			return err
		}
	}
	return nil
}

// Decode restores a regressor written by Encode.
func (r *Regressor) Decode(dec *gob.Decoder) error {
	var s state
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("mlp: decode state: %w", err)
	}
	model, err := buildModel(s.NFeatures, s.BatchSize, s.LearnRate)
	if err != nil {
		return fmt.Errorf("mlp: build model: %w", err)
	}
	learnnodes := model.Learnables()
	for _, node := range learnnodes {
		if err := dec.Decode(node.Value()); err != nil {
			return fmt.Errorf("mlp: decode learnables: %w", err)
		}
	}
	if err := model.SetLearnables(learnnodes); err != nil {
		return err
	}
	r.state, r.model = s, model
	r.BatchSize, r.LearnRate = s.BatchSize, s.LearnRate
	return nil
}

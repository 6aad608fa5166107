// Package forest is a random forest of bagged CART regression trees.
package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/aunum/log"
	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned by Predict before Fit.
var ErrNotFitted = errors.New("forest: model not fitted")

// Forest averages the predictions of regression trees grown on bootstrap samples.
// Exported fields make it gob-encodable.
type Forest struct {
	NTrees    int
	Seed      int64
	MinLeaf   int
	NFeatures int
	Trees     []Tree
}

// New returns an unfitted forest of n trees. Tree i draws its bootstrap sample from a
// source seeded with seed+i, so a fit is reproducible whatever the scheduling.
func New(n int, seed int64) *Forest {
	return &Forest{NTrees: n, Seed: seed, MinLeaf: 1}
}

// Fit grows the trees in parallel on the rows of x against y.
func (f *Forest) Fit(x *mat.Dense, y []float64) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return errors.New("forest: no training rows")
	}
	if rows != len(y) {
		return fmt.Errorf("forest: %d rows but %d targets", rows, len(y))
	}
	if f.NTrees < 1 {
		return fmt.Errorf("forest: invalid tree count %d", f.NTrees)
	}
	if f.MinLeaf < 1 {
		f.MinLeaf = 1
	}
	features := make([][]float64, cols)
	for c := range features {
		features[c] = mat.Col(nil, c, x)
	}

	trees := make([]Tree, f.NTrees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := &treeBuilder{cols: features, y: y, minLeaf: f.MinLeaf}
			sample := make([]int, rows)
			for t := range jobs {
				rng := rand.New(rand.NewSource(f.Seed + int64(t)))
				for i := range sample {
					sample[i] = rng.Intn(rows)
				}
				trees[t] = b.build(sample)
			}
		}()
	}
	for t := 0; t < f.NTrees; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	f.Trees = trees
	f.NFeatures = cols
	log.Infof("forest: grew %d trees on %d rows x %d features", len(trees), rows, cols)
	return nil
}

// Predict returns the mean tree prediction for every row of x.
func (f *Forest) Predict(x *mat.Dense) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != f.NFeatures {
		return nil, fmt.Errorf("forest: %d features, model expects %d", cols, f.NFeatures)
	}
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := range out {
		mat.Row(row, i, x)
		s := 0.0
		for t := range f.Trees {
			s += f.Trees[t].predict(row)
		}
		out[i] = s / float64(len(f.Trees))
	}
	return out, nil
}

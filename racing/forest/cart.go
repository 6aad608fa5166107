package forest

import (
	"errors"
	"fmt"

	"github.com/sjwhitworth/golearn/base"
	"github.com/sjwhitworth/golearn/trees"
	"gonum.org/v1/gonum/mat"
)

// CART is a single golearn regression tree grown on the squared error criterion.
// MaxDepth -1 grows the tree until its leaves are pure.
type CART struct {
	MaxDepth  int64
	NFeatures int
	// Level is set instead of Tree when the training target was constant: golearn
	// answers 0 on the right of a root it could not split.
	Level *float64
	Tree  *trees.CARTDecisionTreeRegressor
}

// NewCART returns an unfitted tree limited to maxDepth levels.
func NewCART(maxDepth int) *CART {
	return &CART{MaxDepth: int64(maxDepth)}
}

// Fit grows the tree on the rows of x.
func (c *CART) Fit(x *mat.Dense, y []float64) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return errors.New("cart: no training rows")
	}
	if rows != len(y) {
		return fmt.Errorf("cart: %d rows but %d targets", rows, len(y))
	}
	c.NFeatures, c.Level, c.Tree = cols, nil, nil
	if constant(y) {
		v := y[0]
		c.Level = &v
		return nil
	}
	inst, err := instances(x, y)
	if err != nil {
		return err
	}
	tree := trees.NewDecisionTreeRegressor(trees.MSE, c.MaxDepth)
	if err := tree.Fit(inst); err != nil {
		return fmt.Errorf("cart: %w", err)
	}
	c.Tree = tree
	return nil
}

// Predict returns the leaf value reached by each row of x.
func (c *CART) Predict(x *mat.Dense) ([]float64, error) {
	if c.Level == nil && c.Tree == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != c.NFeatures {
		return nil, fmt.Errorf("cart: %d features, model expects %d", cols, c.NFeatures)
	}
	out := make([]float64, rows)
	if c.Level != nil {
		for i := range out {
			out[i] = *c.Level
		}
		return out, nil
	}
	inst, err := instances(x, nil)
	if err != nil {
		return nil, err
	}
	copy(out, c.Tree.Predict(inst))
	return out, nil
}

func constant(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}

// instances copies x into golearn's row store, with y as the class attribute when
// it is given.
func instances(x *mat.Dense, y []float64) (*base.DenseInstances, error) {
	rows, cols := x.Dims()
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, cols)
	for j := range specs {
		specs[j] = inst.AddAttribute(base.NewFloatAttribute(fmt.Sprintf("x%d", j)))
	}
	var target base.AttributeSpec
	if y != nil {
		attr := base.NewFloatAttribute("y")
		target = inst.AddAttribute(attr)
		if err := inst.AddClassAttribute(attr); err != nil {
			return nil, fmt.Errorf("cart: %w", err)
		}
	}
	if err := inst.Extend(rows); err != nil {
		return nil, fmt.Errorf("cart: %w", err)
	}
	for i := 0; i < rows; i++ {
		for j, spec := range specs {
			inst.Set(spec, i, base.PackFloatToBytes(x.At(i, j)))
		}
		if y != nil {
			inst.Set(target, i, base.PackFloatToBytes(y[i]))
		}
	}
	return inst, nil
}

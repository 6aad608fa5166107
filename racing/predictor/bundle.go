package predictor

import (
	"encoding/gob"
	"fmt"
	"os"

	"f1predict/racing/config"
	"f1predict/racing/forest"
	"f1predict/racing/mlp"
)

// Bundle is everything predict needs to score a season without refitting. An mlp
// model's learnables follow the bundle in the same gob stream.
type Bundle struct {
	Model       string
	HoldoutYear int
	Features    []string
	Medians     map[string]float64
	Forest      *forest.Forest
	CART        *forest.CART
}

// Save writes the fitted model of res to filename.
func Save(filename string, res *Result, holdout int) error {
	b := Bundle{HoldoutYear: holdout, Features: res.Features, Medians: res.Medians}
	var net *mlp.Regressor
	switch model := res.Model.(type) {
	case *forest.Forest:
		b.Model, b.Forest = config.ModelForest, model
	case *forest.CART:
		b.Model, b.CART = config.ModelCART, model
	case *mlp.Regressor:
		b.Model, net = config.ModelMLP, model
	default:
		return fmt.Errorf("%w: cannot save %T", ErrUnknownModel, res.Model)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := gob.NewEncoder(f)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if net != nil {
		if err := net.Encode(enc); err != nil {
			return fmt.Errorf("encode network: %w", err)
		}
	}
	return f.Close()
}

// Load reads a bundle written by Save and returns it with its fitted regressor.
func Load(filename string) (*Bundle, Regressor, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, nil, fmt.Errorf("decode model %s: %w", filename, err)
	}
	switch b.Model {
	case config.ModelForest:
		if b.Forest == nil {
			return nil, nil, fmt.Errorf("model %s has no forest", filename)
		}
		return &b, b.Forest, nil
	case config.ModelCART:
		if b.CART == nil {
			return nil, nil, fmt.Errorf("model %s has no tree", filename)
		}
		return &b, b.CART, nil
	case config.ModelMLP:
		net := &mlp.Regressor{}
		if err := net.Decode(dec); err != nil {
			return nil, nil, err
		}
		return &b, net, nil
	}
	return nil, nil, fmt.Errorf("%w: %q in %s", ErrUnknownModel, b.Model, filename)
}

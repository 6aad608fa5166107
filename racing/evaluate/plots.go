package evaluate

import (
	"fmt"
	"io"
	"math"
	"sort"

	"f1predict/racing/f1data"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Bounds of the position axes.
const (
	axisMin = 1
	axisMax = 20
)

// ScatterPlot draws actual (x) against predicted (y) positions of the classified rows
// with a dashed identity line.
func ScatterPlot(preds []f1data.Prediction, title string) (*plot.Plot, error) {
	var xys plotter.XYs
	for _, race := range GroupByRace(preds) {
		for _, p := range race.Rows {
			xys = append(xys, plotter.XY{X: p.FinishPos, Y: p.PredPos})
		}
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual finishing position"
	p.Y.Label.Text = "Predicted finishing position"
	p.X.Min, p.X.Max = axisMin, axisMax
	p.Y.Min, p.Y.Max = axisMin, axisMax
	p.Add(plotter.NewGrid())

	if len(xys) > 0 {
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("scatter: %w", err)
		}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: axisMin, Y: axisMin}, {X: axisMax, Y: axisMax}})
	if err != nil {
		return nil, fmt.Errorf("identity line: %w", err)
	}
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(identity)
	return p, nil
}

// SpearmanPlot draws the per-race rank correlations as bars, highest first. Races
// without a defined correlation are left out.
func SpearmanPlot(scores []RaceScore, title string) (*plot.Plot, error) {
	var defined []RaceScore
	for _, s := range scores {
		if !math.IsNaN(s.Spearman) {
			defined = append(defined, s)
		}
	}
	sort.SliceStable(defined, func(i, j int) bool { return defined[i].Spearman > defined[j].Spearman })

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Spearman rank corr"
	p.Y.Min, p.Y.Max = -1, 1
	if len(defined) == 0 {
		return p, nil
	}
	values := make(plotter.Values, len(defined))
	names := make([]string, len(defined))
	for i, s := range defined {
		values[i] = s.Spearman
		names[i] = fmt.Sprint(s.RaceID)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	return p, nil
}

// SavePlot writes p to file; the format follows the extension.
func SavePlot(p *plot.Plot, widthIn, heightIn float64, file string) error {
	return p.Save(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, file)
}

// WritePlot renders p to w in format ("svg", "png", ...).
func WritePlot(w io.Writer, p *plot.Plot, widthIn, heightIn float64, format string) error {
	wt, err := p.WriterTo(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

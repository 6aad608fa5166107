// Package evaluate scores predicted finishing positions against actual results and
// renders the comparison plots.
package evaluate

import (
	"fmt"
	"io"
	"math"
	"sort"

	"f1predict/racing/f1data"

	"gonum.org/v1/gonum/stat"
)

// MAE is the mean absolute error of pred against actual, NaN for empty input.
func MAE(pred, actual []float64) float64 {
	if len(pred) == 0 || len(pred) != len(actual) {
		return math.NaN()
	}
	s := 0.0
	for i := range pred {
		s += math.Abs(pred[i] - actual[i])
	}
	return s / float64(len(pred))
}

// Race is the classified predictions of one race.
type Race struct {
	RaceID int
	Rows   []f1data.Prediction
}

// GroupByRace keeps rows with both a predicted and an actual position and groups
// them by raceId ascending, rows in input order.
func GroupByRace(preds []f1data.Prediction) []Race {
	index := make(map[int]int)
	var races []Race
	for _, p := range preds {
		if !p.Classified() || math.IsNaN(p.PredPos) {
			continue
		}
		i, ok := index[p.RaceID]
		if !ok {
			i = len(races)
			index[p.RaceID] = i
			races = append(races, Race{RaceID: p.RaceID})
		}
		races[i].Rows = append(races[i].Rows, p)
	}
	sort.Slice(races, func(a, b int) bool { return races[a].RaceID < races[b].RaceID })
	return races
}

// order returns row indexes sorted by key, ties in appearance order.
func order(rows []f1data.Prediction, key func(f1data.Prediction) float64) []int {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return key(rows[idx[a]]) < key(rows[idx[b]]) })
	return idx
}

func predicted(p f1data.Prediction) float64 { return p.PredPos }
func actual(p f1data.Prediction) float64    { return p.FinishPos }

// TopKHit is |top k predicted ∩ top k actual| / k for one race. The denominator
// stays k when the race has fewer than k rows.
func TopKHit(rows []f1data.Prediction, k int) float64 {
	if k <= 0 {
		return math.NaN()
	}
	top := func(key func(f1data.Prediction) float64) map[int]bool {
		set := make(map[int]bool, k)
		for n, i := range order(rows, key) {
			if n == k {
				break
			}
			set[i] = true
		}
		return set
	}
	p, a := top(predicted), top(actual)
	hits := 0
	for i := range p {
		if a[i] {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// ranks assigns 1..n by key order, ties broken by appearance.
func ranks(rows []f1data.Prediction, key func(f1data.Prediction) float64) []float64 {
	r := make([]float64, len(rows))
	for pos, i := range order(rows, key) {
		r[i] = float64(pos + 1)
	}
	return r
}

// Spearman is the rank correlation of predicted and actual positions of one race,
// NaN with fewer than two rows.
func Spearman(rows []f1data.Prediction) float64 {
	if len(rows) < 2 {
		return math.NaN()
	}
	return stat.Correlation(ranks(rows, predicted), ranks(rows, actual), nil)
}

// RaceScore holds the per-race metrics.
type RaceScore struct {
	RaceID   int
	Rows     int
	Spearman float64
	TopK     map[int]float64
}

// Report is the outcome of Evaluate.
type Report struct {
	Rows     int
	MAE      float64
	TopK     map[int]float64 // mean over races
	Spearman float64         // mean over races with a defined value
	Races    []RaceScore
	Ks       []int
}

// Evaluate computes every metric over the classified rows of preds.
func Evaluate(preds []f1data.Prediction, ks []int) Report {
	races := GroupByRace(preds)
	rep := Report{TopK: make(map[int]float64), Ks: ks}
	var pred, act []float64
	for _, race := range races {
		score := RaceScore{RaceID: race.RaceID, Rows: len(race.Rows), TopK: make(map[int]float64)}
		for _, p := range race.Rows {
			pred = append(pred, p.PredPos)
			act = append(act, p.FinishPos)
		}
		for _, k := range ks {
			score.TopK[k] = TopKHit(race.Rows, k)
		}
		score.Spearman = Spearman(race.Rows)
		rep.Races = append(rep.Races, score)
	}
	rep.Rows = len(pred)
	rep.MAE = MAE(pred, act)

	for _, k := range ks {
		var v []float64
		for _, s := range rep.Races {
			v = append(v, s.TopK[k])
		}
		rep.TopK[k] = mean(v)
	}
	var rho []float64
	for _, s := range rep.Races {
		if !math.IsNaN(s.Spearman) {
			rho = append(rho, s.Spearman)
		}
	}
	rep.Spearman = mean(rho)
	return rep
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Print writes the summary lines of the report for season year.
func (r Report) Print(w io.Writer, year int) error {
	if _, err := fmt.Fprintf(w, "Rows evaluated: %d over %d races\n", r.Rows, len(r.Races)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "MAE (%d): %.3f\n", year, r.MAE); err != nil {
		return err
	}
	for _, k := range r.Ks {
		if _, err := fmt.Fprintf(w, "Top-%d hit rate: %.3f\n", k, r.TopK[k]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Mean Spearman (per race): %.3f\n", r.Spearman)
	return err
}

// Package features derives the rolling history features the predictor learns from.
// Every feature at a (year, round) is built from strictly earlier events only.
package features

import (
	"fmt"
	"math"
	"sort"

	"f1predict/racing/f1data"

	"github.com/aunum/log"
	"github.com/go-gota/gota/series"
)

// Feature names, as they appear in model bundles and logs.
const (
	Grid            = "grid"
	QPos            = f1data.ColQPos
	DrvLast5        = "drv_last5"
	DrvLast10       = "drv_last10"
	TeamLast5       = "team_last5"
	DrvCircuitHist  = "drv_circuit_hist"
	TeamCircuitHist = "team_circuit_hist"
)

// Canonical is the full feature list in model column order.
var Canonical = []string{Grid, QPos, DrvLast5, DrvLast10, TeamLast5, DrvCircuitHist, TeamCircuitHist}

// Window sizes of the rolling features.
const (
	driverWindow      = 5
	driverLongWindow  = 10
	teamWindow        = 5
	circuitWindow     = 3
	teamCircuitWindow = 3
)

// Row is a joined result with its derived features.
type Row struct {
	f1data.RaceResult
	DrvLast5        float64
	DrvLast10       float64
	TeamLast5       float64
	DrvCircuitHist  float64
	TeamCircuitHist float64
}

// Value returns the named feature of r, NaN for an unknown name.
func (r *Row) Value(name string) float64 {
	if p := r.field(name); p != nil {
		return *p
	}
	return math.NaN()
}

func (r *Row) field(name string) *float64 {
	switch name {
	case Grid:
		return &r.Grid
	case QPos:
		return &r.QPos
	case DrvLast5:
		return &r.DrvLast5
	case DrvLast10:
		return &r.DrvLast10
	case TeamLast5:
		return &r.TeamLast5
	case DrvCircuitHist:
		return &r.DrvCircuitHist
	case TeamCircuitHist:
		return &r.TeamCircuitHist
	}
	return nil
}

// Vector returns the features of r in the order of names.
func (r *Row) Vector(names []string) []float64 {
	v := make([]float64, len(names))
	for i, n := range names {
		v[i] = r.Value(n)
	}
	return v
}

// Options control feature derivation.
type Options struct {
	// HoldoutYear separates the training population (earlier seasons) used for
	// imputation medians from the evaluated season.
	HoldoutYear int
	// Qualifying makes q_pos part of the feature set.
	Qualifying bool
	// Medians, when set, are the imputation values of a previously fitted model. The
	// feature set is then the canonical features with a stored median.
	Medians map[string]float64
}

// Set is the outcome of Derive.
type Set struct {
	Rows    []Row
	Names   []string           // features kept, in canonical order
	Medians map[string]float64 // training medians used for imputation
}

// Derive sorts rows by (driverId, year, round), computes the rolling features and
// imputes missing feature values with training-population medians.
func Derive(results []f1data.RaceResult, opt Options) *Set {
	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = Row{RaceResult: r}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Round < b.Round
	})

	byDriver := groupBy(rows, func(r *Row) string { return fmt.Sprint(r.DriverID) })
	byTeam := groupBy(rows, func(r *Row) string { return fmt.Sprint(r.ConstructorID) })
	byDriverCircuit := groupBy(rows, func(r *Row) string { return fmt.Sprint(r.DriverID, "/", r.CircuitID) })
	byTeamCircuit := groupBy(rows, func(r *Row) string { return fmt.Sprint(r.ConstructorID, "/", r.CircuitID) })

	rolling(rows, byDriver, driverWindow, func(r *Row) *float64 { return &r.DrvLast5 })
	rolling(rows, byDriver, driverLongWindow, func(r *Row) *float64 { return &r.DrvLast10 })
	rolling(rows, byTeam, teamWindow, func(r *Row) *float64 { return &r.TeamLast5 })
	rolling(rows, byDriverCircuit, circuitWindow, func(r *Row) *float64 { return &r.DrvCircuitHist })
	rolling(rows, byTeamCircuit, teamCircuitWindow, func(r *Row) *float64 { return &r.TeamCircuitHist })

	set := &Set{Rows: rows, Medians: make(map[string]float64)}
	if opt.Medians != nil {
		for _, name := range Canonical {
			if med, ok := opt.Medians[name]; ok {
				set.Names = append(set.Names, name)
				set.Medians[name] = med
			}
		}
		Impute(set.Rows, set.Medians)
		return set
	}
	for _, name := range available(opt) {
		med, ok := trainingMedian(rows, name, opt.HoldoutYear)
		if !ok {
			log.Infof("dropping feature %s: no training values", name)
			continue
		}
		set.Names = append(set.Names, name)
		set.Medians[name] = med
	}
	Impute(set.Rows, set.Medians)
	log.Infof("derived %d rows with features %v", len(rows), set.Names)
	return set
}

// Impute replaces NaN feature values with the given medians.
func Impute(rows []Row, medians map[string]float64) {
	for i := range rows {
		for name, med := range medians {
			if p := rows[i].field(name); p != nil && math.IsNaN(*p) {
				*p = med
			}
		}
	}
}

func available(opt Options) []string {
	var names []string
	for _, n := range Canonical {
		if n == QPos && !opt.Qualifying {
			continue
		}
		names = append(names, n)
	}
	return names
}

// groupBy returns the row indexes of each group, in row order.
func groupBy(rows []Row, key func(*Row) string) [][]int {
	index := make(map[string]int)
	var groups [][]int
	for i := range rows {
		k := key(&rows[i])
		g, ok := index[k]
		if !ok {
			g = len(groups)
			index[k] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// rolling fills dst of every row with the prior mean of finishing positions in its group.
// Rows of an unknown season carry no usable outcome for others.
func rolling(rows []Row, groups [][]int, size int, dst func(*Row) *float64) {
	for _, g := range groups {
		seq := make([]Obs, len(g))
		for k, i := range g {
			r := rows[i]
			seq[k] = Obs{Year: r.Year, Round: r.Round, Value: r.FinishPos}
			if r.Year == 0 {
				seq[k].Value = math.NaN()
			}
		}
		for k, v := range PriorMeans(seq, size) {
			*dst(&rows[g[k]]) = v
		}
	}
}

// trainingMedian is the median of the known values of name over rows from seasons
// before holdout.
func trainingMedian(rows []Row, name string, holdout int) (float64, bool) {
	var vals []float64
	for i := range rows {
		r := &rows[i]
		if r.Year == 0 || r.Year >= holdout {
			continue
		}
		if v := r.Value(name); !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN(), false
	}
	return series.Floats(vals).Median(), true
}

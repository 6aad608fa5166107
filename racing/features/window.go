package features

import (
	"math"
	"sort"
)

// Obs is one outcome of a group at an event (year, round). Value is NaN when the
// outcome is unknown.
type Obs struct {
	Year  int
	Round int
	Value float64
}

func (o Obs) before(p Obs) bool {
	if o.Year != p.Year {
		return o.Year < p.Year
	}
	return o.Round < p.Round
}

// PriorMeans returns, for every observation of seq, the mean of the non-NaN values
// among the size most recent observations from strictly earlier events. An event's own
// observations are never visible to it. The result is NaN when the window holds no
// known value. seq need not be sorted; results are index-aligned with seq.
func PriorMeans(seq []Obs, size int) []float64 {
	out := make([]float64, len(seq))
	order := make([]int, len(seq))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return seq[order[a]].before(seq[order[b]]) })

	start := 0 // first sorted position of the current event
	for pos, idx := range order {
		if pos > 0 && seq[order[pos-1]].before(seq[idx]) {
			start = pos
		}
		lo := start - size
		if lo < 0 {
			lo = 0
		}
		sum, n := 0.0, 0
		for _, j := range order[lo:start] {
			if v := seq[j].Value; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			out[idx] = math.NaN()
		} else {
			out[idx] = sum / float64(n)
		}
	}
	return out
}

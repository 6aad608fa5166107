package features

import (
	"math"
	"testing"

	"f1predict/racing/f1data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func result(id, year, round, circuit, driver, team int, grid, finish float64) f1data.RaceResult {
	return f1data.RaceResult{
		ResultID:      id,
		RaceID:        year*100 + round,
		Year:          year,
		Round:         round,
		CircuitID:     circuit,
		DriverID:      driver,
		ConstructorID: team,
		Grid:          grid,
		FinishPos:     finish,
		QPos:          nan,
	}
}

func byResult(set *Set) map[int]Row {
	out := make(map[int]Row, len(set.Rows))
	for _, r := range set.Rows {
		out[r.ResultID] = r
	}
	return out
}

func TestPriorMeansScenario(t *testing.T) {
	seq := []Obs{
		{2023, 1, 1}, {2023, 2, 3}, {2023, 3, 5}, {2023, 4, 2}, {2023, 5, 4}, {2023, 6, nan},
	}
	got := PriorMeans(seq, 5)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 1.0, got[1])
	assert.Equal(t, 2.0, got[2])
	assert.Equal(t, 3.0, got[5])
}

func TestPriorMeansSkipsUnknownAndSameEvent(t *testing.T) {
	seq := []Obs{
		{2023, 2, 4}, // deliberately out of order
		{2023, 1, 2},
		{2023, 1, 6},
		{2023, 2, 8},
		{2023, 3, nan},
		{2023, 4, 1},
	}
	got := PriorMeans(seq, 3)
	assert.True(t, math.IsNaN(got[1]))
	assert.True(t, math.IsNaN(got[2]))
	assert.Equal(t, 4.0, got[0], "round 1 only")
	assert.Equal(t, 4.0, got[3])
	// window of three rows before round 3 is {6, 4, 8} in sorted order
	assert.Equal(t, 6.0, got[4])
	// NaN occupies a slot but is ignored in the mean
	assert.Equal(t, 6.0, got[5])
}

func TestPriorMeansEmptyWindow(t *testing.T) {
	got := PriorMeans([]Obs{{2020, 1, nan}, {2020, 2, nan}}, 5)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.Empty(t, PriorMeans(nil, 5))
}

func TestDeriveDriverScenario(t *testing.T) {
	var rows []f1data.RaceResult
	for i, pos := range []float64{1, 3, 5, 2, 4, nan} {
		rows = append(rows, result(i+1, 2023, i+1, 10+i, 7, 1, 1, pos))
	}
	set := Derive(rows, Options{HoldoutYear: 2024})
	got := byResult(set)
	assert.Equal(t, 3.0, got[6].DrvLast5)
	assert.Equal(t, 3.0, got[6].DrvLast10)
	assert.Equal(t, 2.75, got[5].DrvLast5)
}

func TestDeriveTeamNeverSeesSameRace(t *testing.T) {
	rows := []f1data.RaceResult{
		result(1, 2023, 1, 3, 1, 9, 1, 1),
		result(2, 2023, 1, 3, 2, 9, 2, 4),
		result(3, 2023, 2, 4, 1, 9, 1, 10),
		result(4, 2023, 2, 4, 2, 9, 2, 2),
		result(5, 2023, 3, 3, 1, 9, 1, 3),
	}
	got := byResult(Derive(rows, Options{HoldoutYear: 2024}))
	assert.Equal(t, 2.5, got[3].TeamLast5)
	assert.Equal(t, 2.5, got[4].TeamLast5)
	assert.Equal(t, 4.25, got[5].TeamLast5)
	assert.Equal(t, 1.0, got[5].DrvCircuitHist)
	assert.Equal(t, 2.5, got[5].TeamCircuitHist)
}

func TestDeriveNoLeakage(t *testing.T) {
	base := []f1data.RaceResult{
		result(1, 2022, 1, 3, 1, 9, 1, 2),
		result(2, 2022, 1, 3, 2, 8, 2, 1),
		result(3, 2022, 2, 4, 1, 9, 3, 5),
		result(4, 2022, 2, 4, 2, 8, 1, 3),
		result(5, 2023, 1, 3, 1, 9, 2, 4),
		result(6, 2023, 1, 3, 2, 8, 4, 6),
	}
	later := append(append([]f1data.RaceResult{}, base...),
		result(7, 2025, 1, 3, 1, 9, 1, 1),
		result(8, 2025, 1, 3, 2, 8, 2, 20),
		result(9, 2025, 2, 4, 1, 8, 1, 20),
	)
	opt := Options{HoldoutYear: 2024}
	a := byResult(Derive(base, opt))
	b := byResult(Derive(later, opt))
	names := Derive(base, opt).Names
	for id := 1; id <= len(base); id++ {
		ra, rb := a[id], b[id]
		assert.Equal(t, ra.Vector(names), rb.Vector(names), "result %d", id)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	rows := []f1data.RaceResult{
		result(1, 2022, 1, 3, 1, 9, 1, 2),
		result(2, 2022, 1, 3, 2, 9, 2, nan),
		result(3, 2023, 1, 3, 1, 9, nan, 1),
		result(4, 2023, 1, 3, 2, 9, 4, 3),
		result(5, 2024, 1, 3, 1, 9, 2, 2),
	}
	first := Derive(rows, Options{HoldoutYear: 2024})
	second := Derive(rows, Options{HoldoutYear: 2024})
	require.Equal(t, first.Names, second.Names)
	require.Equal(t, first.Medians, second.Medians)
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].ResultID, second.Rows[i].ResultID)
		assert.Equal(t, first.Rows[i].Vector(first.Names), second.Rows[i].Vector(second.Names))
	}
}

func TestDeriveImputesWithTrainingMedians(t *testing.T) {
	rows := []f1data.RaceResult{
		result(1, 2022, 1, 3, 1, 9, 2, 1),
		result(2, 2022, 1, 3, 2, 9, 4, 2),
		result(3, 2023, 1, 3, 3, 9, 6, 3),
		result(4, 2024, 1, 3, 4, 9, 20, 4),
		result(5, 2024, 1, 3, 5, 9, 20, 5),
		result(6, 2024, 1, 3, 6, 9, nan, 6),
	}
	set := Derive(rows, Options{HoldoutYear: 2024})
	assert.Equal(t, 4.0, set.Medians[Grid])
	got := byResult(set)
	assert.Equal(t, 4.0, got[6].Grid)
	for _, r := range set.Rows {
		for _, n := range set.Names {
			assert.False(t, math.IsNaN(r.Value(n)), "%s of result %d", n, r.ResultID)
		}
	}
}

func TestDeriveQualifyingCapability(t *testing.T) {
	rows := []f1data.RaceResult{
		result(1, 2022, 1, 3, 1, 9, 2, 1),
		result(2, 2022, 2, 3, 1, 9, 4, 2),
		result(3, 2024, 1, 3, 1, 9, 1, 1),
	}
	rows[0].QPos, rows[1].QPos = 3, 5

	without := Derive(rows, Options{HoldoutYear: 2024})
	assert.NotContains(t, without.Names, QPos)

	with := Derive(rows, Options{HoldoutYear: 2024, Qualifying: true})
	assert.Equal(t, Canonical, with.Names)
	assert.Equal(t, 4.0, byResult(with)[3].QPos)
}

func TestDeriveDropsFeatureWithoutTrainingValues(t *testing.T) {
	rows := []f1data.RaceResult{
		result(1, 2023, 1, 3, 1, 9, 2, 1),
		result(2, 2024, 1, 3, 1, 9, 2, 1),
	}
	rows[1].QPos = 1
	set := Derive(rows, Options{HoldoutYear: 2024, Qualifying: true})
	assert.NotContains(t, set.Names, QPos)
	assert.NotContains(t, set.Names, DrvLast5, "first training race has no history")
	assert.Contains(t, set.Names, Grid)
	_, ok := set.Medians[DrvLast5]
	assert.False(t, ok)
}

func TestDeriveWithStoredMedians(t *testing.T) {
	rows := []f1data.RaceResult{
		result(1, 2025, 1, 3, 1, 9, nan, 2),
		result(2, 2025, 2, 3, 1, 9, 5, 1),
	}
	set := Derive(rows, Options{HoldoutYear: 2024, Medians: map[string]float64{Grid: 8, DrvLast5: 6}})
	assert.Equal(t, []string{Grid, DrvLast5}, set.Names)
	got := byResult(set)
	assert.Equal(t, 8.0, got[1].Grid)
	assert.Equal(t, 6.0, got[1].DrvLast5)
	assert.Equal(t, 2.0, got[2].DrvLast5)
}

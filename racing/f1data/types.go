// Package f1data reads the raw Ergast-style tables, joins them into one row per
// (race, driver) and reads/writes every flat file the pipeline hands between programs.
package f1data

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMissingTable is returned when a required source table cannot be found.
	ErrMissingTable = errors.New("missing table")
	// ErrMissingColumn is returned when a table lacks a column the join needs.
	ErrMissingColumn = errors.New("missing column")
)

// RaceResult is one joined (race, driver) row. Positions are NaN when unknown.
type RaceResult struct {
	ResultID      int
	RaceID        int
	Year          int // 0 when the race is not in the races table
	Round         int
	CircuitID     int
	DriverID      int
	DriverRef     string
	ConstructorID int
	Team          string
	Status        string
	Grid          float64 // 0 = pit-lane start
	FinishPos     float64
	QPos          float64
}

// Classified reports whether the row has a numeric finishing position and a known season.
func (r RaceResult) Classified() bool {
	return r.Year > 0 && !math.IsNaN(r.FinishPos)
}

// Prediction is one row of the predictions files.
type Prediction struct {
	Year      int
	Round     int
	RaceID    int
	CircuitID int
	DriverRef string
	Team      string
	Grid      float64
	PredPos   float64
	FinishPos float64
}

// Classified rows (rows with an actual finishing position) are the ones the evaluator scores.
func (p Prediction) Classified() bool {
	return !math.IsNaN(p.FinishPos)
}

// ParsePosition coerces a raw position cell to a number. Codes such as "R", "DQ",
// "NC", `\N` or an empty cell become NaN.
func ParsePosition(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// FormatFloat renders v for a CSV cell, NaN as an empty cell.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

// normKey canonicalises an identifier cell so "7", " 7" and "7.0" (as Excel exports
// numbers) join to the same key.
func normKey(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func atoi(s string) (int, error) {
	return strconv.Atoi(normKey(s))
}

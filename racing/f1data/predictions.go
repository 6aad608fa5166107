package f1data

import (
	"fmt"
	"io"
	"sort"
)

// PredictionColumns is the column layout of both predictions files.
var PredictionColumns = []string{
	"year", "round", "raceId", "circuitId", "driverRef", "team", "grid", "pred_pos", "finish_pos",
}

func (p Prediction) record() []string {
	return []string{
		formatInt(p.Year),
		formatInt(p.Round),
		formatInt(p.RaceID),
		formatInt(p.CircuitID),
		p.DriverRef,
		p.Team,
		FormatFloat(p.Grid),
		FormatFloat(p.PredPos),
		FormatFloat(p.FinishPos),
	}
}

// WriteFlat writes predictions in the given order.
func WriteFlat(w io.Writer, preds []Prediction) error {
	records := make([][]string, 0, len(preds)+1)
	records = append(records, PredictionColumns)
	for _, p := range preds {
		records = append(records, p.record())
	}
	df := loadFrame(records)
	if df.Err != nil {
		return fmt.Errorf("build predictions frame: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// OrderByRace returns a copy of preds sorted by raceId, then predicted position
// ascending. Ties keep their input order.
func OrderByRace(preds []Prediction) []Prediction {
	out := append([]Prediction(nil), preds...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RaceID != out[j].RaceID {
			return out[i].RaceID < out[j].RaceID
		}
		return out[i].PredPos < out[j].PredPos
	})
	return out
}

// WriteOrdered writes the per-race predicted order.
func WriteOrdered(w io.Writer, preds []Prediction) error {
	return WriteFlat(w, OrderByRace(preds))
}

// ReadFlat parses a predictions file.
func ReadFlat(r io.Reader) ([]Prediction, error) {
	df := readFrame(r)
	if df.Err != nil {
		return nil, fmt.Errorf("read predictions: %w", df.Err)
	}
	cols, err := columns(df, "predictions", "raceId", "driverRef", "pred_pos", "finish_pos")
	if err != nil {
		return nil, err
	}
	optional := func(name string) []string {
		c, err := column(df, "predictions", name)
		if err != nil {
			return make([]string, df.Nrow())
		}
		return c
	}
	year, round, circuit := optional("year"), optional("round"), optional("circuitId")
	team, grid := optional("team"), optional("grid")

	preds := make([]Prediction, df.Nrow())
	for i := range preds {
		raceID, err := atoi(cols["raceId"][i])
		if err != nil {
			return nil, fmt.Errorf("predictions row %d: raceId %q: %w", i+1, cols["raceId"][i], err)
		}
		p := Prediction{
			RaceID:    raceID,
			DriverRef: cols["driverRef"][i],
			Team:      team[i],
			Grid:      ParsePosition(grid[i]),
			PredPos:   ParsePosition(cols["pred_pos"][i]),
			FinishPos: ParsePosition(cols["finish_pos"][i]),
		}
		p.Year, _ = atoi(year[i])
		p.Round, _ = atoi(round[i])
		p.CircuitID, _ = atoi(circuit[i])
		preds[i] = p
	}
	return preds, nil
}

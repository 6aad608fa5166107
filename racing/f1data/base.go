package f1data

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
)

// Base is the joined per-(race, driver) table: the raw cells as persisted plus the
// typed rows the later stages work on. Records and Rows are index-aligned.
type Base struct {
	Columns       []string
	Records       [][]string
	Rows          []RaceResult
	HasQualifying bool
}

// Season returns the subset of the table belonging to year.
func (b *Base) Season(year int) *Base {
	out := &Base{Columns: b.Columns, HasQualifying: b.HasQualifying}
	for i, r := range b.Rows {
		if r.Year == year {
			out.Records = append(out.Records, b.Records[i])
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// WriteBase writes the table as CSV with a header row. A table without rows is
// written as its header.
func WriteBase(w io.Writer, b *Base) error {
	records := make([][]string, 0, len(b.Records)+1)
	records = append(records, b.Columns)
	records = append(records, b.Records...)
	df := loadFrame(records)
	if df.Err != nil {
		return fmt.Errorf("build base frame: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// ReadBase parses a table written by WriteBase.
func ReadBase(r io.Reader) (*Base, error) {
	df := readFrame(r)
	if df.Err != nil {
		return nil, fmt.Errorf("read base: %w", df.Err)
	}
	records := df.Records()
	b := &Base{Columns: records[0], Records: records[1:]}
	for _, c := range b.Columns {
		if c == ColQPos {
			b.HasQualifying = true
		}
	}
	b.Rows = make([]RaceResult, 0, len(b.Records))
	for i, rec := range b.Records {
		row, err := parseRow(b.Columns, rec)
		if err != nil {
			return nil, fmt.Errorf("base row %d: %w", i+1, err)
		}
		b.Rows = append(b.Rows, row)
	}
	return b, nil
}

// parseRow builds a RaceResult from named cells. Identifiers must be integers; race
// metadata may be empty (unmatched race) and positions coerce to NaN.
func parseRow(cols []string, rec []string) (RaceResult, error) {
	cell := func(name string) (string, bool) {
		for i, c := range cols {
			if c == name && i < len(rec) {
				return rec[i], true
			}
		}
		return "", false
	}
	var row RaceResult
	var err error
	for _, id := range []struct {
		name string
		dst  *int
	}{
		{"raceId", &row.RaceID},
		{"driverId", &row.DriverID},
		{"constructorId", &row.ConstructorID},
	} {
		v, ok := cell(id.name)
		if !ok {
			return RaceResult{}, fmt.Errorf("%w: %s", ErrMissingColumn, id.name)
		}
		if *id.dst, err = atoi(v); err != nil {
			return RaceResult{}, fmt.Errorf("%s %q: %w", id.name, v, err)
		}
	}
	optionalInt := func(name string) int {
		v, _ := cell(name)
		n, err := atoi(v)
		if err != nil {
			return 0
		}
		return n
	}
	row.ResultID = optionalInt("resultId")
	row.Year = optionalInt("year")
	row.Round = optionalInt("round")
	row.CircuitID = optionalInt("circuitId")
	row.DriverRef, _ = cell("driverRef")
	row.Team, _ = cell("team")
	row.Status, _ = cell("status")

	row.Grid = math.NaN()
	if v, ok := cell("grid"); ok {
		row.Grid = ParsePosition(v)
	}
	row.FinishPos = math.NaN()
	if v, ok := cell("finish_pos"); ok {
		row.FinishPos = ParsePosition(v)
	} else if v, ok := cell("position"); ok {
		row.FinishPos = ParsePosition(v)
	}
	row.QPos = math.NaN()
	if v, ok := cell(ColQPos); ok {
		row.QPos = ParsePosition(v)
	}
	return row, nil
}

// AttachQualifying adds q_pos to a base table that was joined without it.
func AttachQualifying(b *Base, q dataframe.DataFrame) error {
	if b.HasQualifying {
		return nil
	}
	qpos, err := minQualifying(q)
	if err != nil {
		return err
	}
	b.Columns = append(append([]string{}, b.Columns...), ColQPos)
	for i := range b.Rows {
		v, ok := qpos[[2]string{formatInt(b.Rows[i].RaceID), formatInt(b.Rows[i].DriverID)}]
		if !ok {
			v = math.NaN()
		}
		b.Rows[i].QPos = v
		b.Records[i] = append(append([]string{}, b.Records[i]...), FormatFloat(v))
	}
	b.HasQualifying = true
	return nil
}

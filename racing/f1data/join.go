package f1data

import (
	"fmt"
	"math"

	"github.com/aunum/log"
	"github.com/go-gota/gota/dataframe"
)

// Stems of the raw tables.
const (
	TableResults      = "results"
	TableRaces        = "races"
	TableDrivers      = "drivers"
	TableConstructors = "constructors"
	TableStatus       = "status"
	TableQualifying   = "qualifying"
	TableCircuits     = "circuits"
)

// Columns appended to the results columns by the join, in output order.
var joinedColumns = []string{
	"year", "round", "circuitId",
	"driverRef", "code", "forename", "surname", "nationality",
	"team", "status", "finish_pos",
}

// ColQPos is the optional qualifying summary column.
const ColQPos = "q_pos"

// Tables are the raw inputs of the join. Qualifying is nil when not available.
type Tables struct {
	Results      dataframe.DataFrame
	Races        dataframe.DataFrame
	Drivers      dataframe.DataFrame
	Constructors dataframe.DataFrame
	Status       dataframe.DataFrame
	Qualifying   *dataframe.DataFrame
}

// LoadTables reads the required tables, and qualifying when withQualifying is set.
func LoadTables(l Loader, withQualifying bool) (Tables, error) {
	var t Tables
	var err error
	required := []struct {
		stem string
		dst  *dataframe.DataFrame
	}{
		{TableDrivers, &t.Drivers},
		{TableConstructors, &t.Constructors},
		{TableRaces, &t.Races},
		{TableResults, &t.Results},
		{TableStatus, &t.Status},
	}
	for _, r := range required {
		if *r.dst, err = l.Load(r.stem); err != nil {
			return Tables{}, err
		}
		rows, cols := r.dst.Dims()
		log.Infof("loaded %s: %d rows, %d columns", r.stem, rows, cols)
	}
	if withQualifying {
		q, err := l.Load(TableQualifying)
		if err != nil {
			return Tables{}, err
		}
		t.Qualifying = &q
	}
	return t, nil
}

// lookup indexes the requested columns of a reference table by key column. The first
// row wins on duplicate keys so a left join never multiplies result rows.
type lookup struct {
	index map[string]int
	cols  map[string][]string
}

func newLookup(df dataframe.DataFrame, table, key string, fields ...string) (lookup, error) {
	cols, err := columns(df, table, append([]string{key}, fields...)...)
	if err != nil {
		return lookup{}, err
	}
	index := make(map[string]int, len(cols[key]))
	for i, k := range cols[key] {
		k = normKey(k)
		if _, dup := index[k]; !dup {
			index[k] = i
		}
	}
	return lookup{index: index, cols: cols}, nil
}

// get returns field for key, "" when the key is unmatched.
func (l lookup) get(key, field string) string {
	i, ok := l.index[normKey(key)]
	if !ok {
		return ""
	}
	return l.cols[field][i]
}

// Join left-joins results with races, drivers, constructors and status, derives
// finish_pos and, when qualifying is present, q_pos. The output has exactly one row per
// results row, in input order.
func Join(t Tables) (*Base, error) {
	res, err := columns(t.Results, TableResults, "raceId", "driverId", "constructorId", "statusId", "position")
	if err != nil {
		return nil, err
	}
	races, err := newLookup(t.Races, TableRaces, "raceId", "year", "round", "circuitId")
	if err != nil {
		return nil, err
	}
	drivers, err := newLookup(t.Drivers, TableDrivers, "driverId", "driverRef", "code", "forename", "surname", "nationality")
	if err != nil {
		return nil, err
	}
	constructors, err := newLookup(t.Constructors, TableConstructors, "constructorId", "name")
	if err != nil {
		return nil, err
	}
	status, err := newLookup(t.Status, TableStatus, "statusId", "status")
	if err != nil {
		return nil, err
	}
	var qpos map[[2]string]float64
	if t.Qualifying != nil {
		if qpos, err = minQualifying(*t.Qualifying); err != nil {
			return nil, err
		}
	}

	header := t.Results.Names()
	base := &Base{
		Columns:       append(append([]string{}, header...), joinedColumns...),
		HasQualifying: qpos != nil,
	}
	if base.HasQualifying {
		base.Columns = append(base.Columns, ColQPos)
	}
	raw := t.Results.Records()[1:]
	base.Records = make([][]string, 0, len(raw))
	base.Rows = make([]RaceResult, 0, len(raw))
	for i, rec := range raw {
		raceID, driverID := res["raceId"][i], res["driverId"][i]
		finish := ParsePosition(res["position"][i])
		out := append([]string{}, rec...)
		out = append(out,
			races.get(raceID, "year"),
			races.get(raceID, "round"),
			races.get(raceID, "circuitId"),
			drivers.get(driverID, "driverRef"),
			drivers.get(driverID, "code"),
			drivers.get(driverID, "forename"),
			drivers.get(driverID, "surname"),
			drivers.get(driverID, "nationality"),
			constructors.get(res["constructorId"][i], "name"),
			status.get(res["statusId"][i], "status"),
			FormatFloat(finish),
		)
		q := math.NaN()
		if base.HasQualifying {
			if v, ok := qpos[[2]string{normKey(raceID), normKey(driverID)}]; ok {
				q = v
			}
			out = append(out, FormatFloat(q))
		}
		row, err := parseRow(base.Columns, out)
		if err != nil {
			return nil, fmt.Errorf("results row %d: %w", i+1, err)
		}
		base.Records = append(base.Records, out)
		base.Rows = append(base.Rows, row)
	}
	log.Infof("joined %d result rows (qualifying: %v)", len(base.Rows), base.HasQualifying)
	return base, nil
}

// minQualifying returns the lowest numeric qualifying position per (raceId, driverId).
func minQualifying(q dataframe.DataFrame) (map[[2]string]float64, error) {
	cols, err := columns(q, TableQualifying, "raceId", "driverId", "position")
	if err != nil {
		return nil, err
	}
	out := make(map[[2]string]float64)
	for i := range cols["raceId"] {
		p := ParsePosition(cols["position"][i])
		if math.IsNaN(p) {
			continue
		}
		key := [2]string{normKey(cols["raceId"][i]), normKey(cols["driverId"][i])}
		if cur, ok := out[key]; !ok || p < cur {
			out[key] = p
		}
	}
	return out, nil
}

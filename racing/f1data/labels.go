package f1data

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
)

// RaceLabel is a display label for one race of a season.
type RaceLabel struct {
	RaceID int
	Round  int
	Label  string
}

// RaceLabels builds "RR | Grand Prix — Circuit (Location, Country)" labels for the
// races of year, sorted by round. Circuits missing from the circuits table leave
// their part of the label empty.
func RaceLabels(races, circuits dataframe.DataFrame, year int) ([]RaceLabel, error) {
	rc, err := columns(races, TableRaces, "raceId", "year", "round", "circuitId", "name")
	if err != nil {
		return nil, err
	}
	cl, err := newLookup(circuits, TableCircuits, "circuitId", "name", "location", "country")
	if err != nil {
		return nil, err
	}
	var labels []RaceLabel
	for i := range rc["raceId"] {
		y, err := atoi(rc["year"][i])
		if err != nil || y != year {
			continue
		}
		id, err := atoi(rc["raceId"][i])
		if err != nil {
			return nil, fmt.Errorf("races row %d: raceId %q: %w", i+1, rc["raceId"][i], err)
		}
		round, _ := atoi(rc["round"][i])
		cid := rc["circuitId"][i]
		labels = append(labels, RaceLabel{
			RaceID: id,
			Round:  round,
			Label: fmt.Sprintf("%02d | %s — %s (%s, %s)", round, rc["name"][i],
				cl.get(cid, "name"), cl.get(cid, "location"), cl.get(cid, "country")),
		})
	}
	sort.SliceStable(labels, func(i, j int) bool { return labels[i].Round < labels[j].Round })
	return labels, nil
}

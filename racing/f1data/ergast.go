package f1data

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
)

// ErgastTables are the tables gendata exports, in dependency order.
var ErgastTables = []string{
	TableCircuits, TableRaces, TableDrivers, TableConstructors, TableStatus, TableResults, TableQualifying,
}

// ergastNull is how the Ergast CSV dumps spell SQL NULL.
const ergastNull = `\N`

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ExportTable copies every row of table from db to w as CSV, NULL cells as `\N`.
func ExportTable(ctx context.Context, db *sql.DB, table string, w io.Writer) (int, error) {
	if !tableName.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("columns of %s: %w", table, err)
	}
	records := [][]string{names}
	cells := make([]sql.NullString, len(names))
	dest := make([]interface{}, len(names))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return 0, fmt.Errorf("scan %s: %w", table, err)
		}
		records = append(records, nullCells(cells))
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read %s: %w", table, err)
	}
	df := loadFrame(records)
	if df.Err != nil {
		return 0, fmt.Errorf("build %s frame: %w", table, df.Err)
	}
	return len(records) - 1, df.WriteCSV(w)
}

func nullCells(cells []sql.NullString) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if c.Valid {
			out[i] = c.String
		} else {
			out[i] = ergastNull
		}
	}
	return out
}

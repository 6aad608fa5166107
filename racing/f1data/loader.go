package f1data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Extensions tried, in order, when resolving a table stem.
var tableExtensions = []string{".csv", ".CSV", ".xlsx"}

// Loader resolves raw tables by stem (e.g. "drivers") inside Dir.
type Loader struct {
	Dir string
}

// Path returns the first existing file for stem, or "" when none exists.
func (l Loader) Path(stem string) string {
	for _, ext := range tableExtensions {
		p := filepath.Join(l.Dir, stem+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Exists reports whether a file for stem is present.
func (l Loader) Exists(stem string) bool {
	return l.Path(stem) != ""
}

// Load reads the table for stem. Every column is loaded as strings so identifiers,
// `\N` markers and status codes reach the join untouched.
func (l Loader) Load(stem string) (dataframe.DataFrame, error) {
	p := l.Path(stem)
	if p == "" {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s (csv/xlsx) in %s", ErrMissingTable, stem, l.Dir)
	}
	var df dataframe.DataFrame
	if strings.EqualFold(filepath.Ext(p), ".xlsx") {
		records, err := readSheet(p)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("read %s: %w", p, err)
		}
		df = loadFrame(records)
	} else {
		f, err := os.Open(p)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()
		df = readFrame(f)
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load %s: %w", p, df.Err)
	}
	return df, nil
}

func stringColumns() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	}
}

// loadFrame builds a string-typed frame from records whose first row is the header.
// A header without rows gives a frame with those columns and no rows, which gota's
// LoadRecords rejects.
func loadFrame(records [][]string) dataframe.DataFrame {
	if len(records) == 1 && len(records[0]) > 0 {
		cols := make([]series.Series, len(records[0]))
		for i, name := range records[0] {
			cols[i] = series.New([]string{}, series.String, name)
		}
		return dataframe.New(cols...)
	}
	return dataframe.LoadRecords(records, stringColumns()...)
}

// readFrame is dataframe.ReadCSV that also accepts header-only files.
func readFrame(r io.Reader) dataframe.DataFrame {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return dataframe.DataFrame{Err: err}
	}
	return loadFrame(records)
}

// readSheet returns the rows of the first worksheet, padded to the header width.
func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no worksheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty worksheet %s", sheets[0])
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			rows[i] = append(row, make([]string, width-len(row))...)
		} else if len(row) > width {
			rows[i] = row[:width]
		}
	}
	return rows, nil
}

// column returns the named column of df as strings.
func column(df dataframe.DataFrame, table, name string) ([]string, error) {
	for _, n := range df.Names() {
		if n == name {
			return df.Col(name).Records(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrMissingColumn, table, name)
}

// columns fetches several named columns at once.
func columns(df dataframe.DataFrame, table string, names ...string) (map[string][]string, error) {
	out := make(map[string][]string, len(names))
	for _, name := range names {
		col, err := column(df, table, name)
		if err != nil {
			return nil, err
		}
		out[name] = col
	}
	return out, nil
}

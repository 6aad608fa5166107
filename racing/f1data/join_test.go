package f1data

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTable(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	require.NoError(t, err)
}

// writeFixture lays out a small Ergast-style data directory.
func writeFixture(t *testing.T, withQualifying bool) string {
	t.Helper()
	dir := t.TempDir()
	writeTable(t, dir, "results.csv",
		"resultId,raceId,driverId,constructorId,number,grid,position,points,statusId",
		"1,10,1,100,44,1,1,25,1",
		"2,10,2,200,1,2,2,18,1",
		`3,10,3,100,63,0,\N,0,5`,
		"4,11,1,100,44,3,R,0,5",
		"5,11,2,200,1,1,1,25,1",
		"6,99,4,300,7,5,DQ,0,2", // race 99 and driver 4 are unknown
	)
	writeTable(t, dir, "races.csv",
		"raceId,year,round,circuitId,name",
		"10,2023,1,3,Bahrain Grand Prix",
		"11,2024,1,3,Bahrain Grand Prix",
	)
	writeTable(t, dir, "drivers.csv",
		"driverId,driverRef,code,forename,surname,nationality",
		"1,hamilton,HAM,Lewis,Hamilton,British",
		"2,max_verstappen,VER,Max,Verstappen,Dutch",
		"2,duplicate,DUP,Dup,Licate,None",
		"3,russell,RUS,George,Russell,British",
	)
	writeTable(t, dir, "constructors.csv",
		"constructorId,constructorRef,name",
		"100,mercedes,Mercedes",
		"200,red_bull,Red Bull",
	)
	writeTable(t, dir, "status.csv",
		"statusId,status",
		"1,Finished",
		"2,Disqualified",
		"5,Engine",
	)
	if withQualifying {
		writeTable(t, dir, "qualifying.csv",
			"qualifyId,raceId,driverId,constructorId,number,position",
			"1,10,1,100,44,2",
			"2,10,1,100,44,1",
			"3,10,2,200,1,3",
			"4,11,2,200,1,NC",
		)
	}
	return dir
}

func TestJoinKeepsEveryResultRow(t *testing.T) {
	dir := writeFixture(t, false)
	tables, err := LoadTables(Loader{Dir: dir}, false)
	require.NoError(t, err)

	base, err := Join(tables)
	require.NoError(t, err)
	require.Len(t, base.Rows, tables.Results.Nrow())
	require.Len(t, base.Records, tables.Results.Nrow())
	assert.False(t, base.HasQualifying)
	assert.NotContains(t, base.Columns, ColQPos)

	first := base.Rows[0]
	assert.Equal(t, 2023, first.Year)
	assert.Equal(t, "hamilton", first.DriverRef)
	assert.Equal(t, "Mercedes", first.Team)
	assert.Equal(t, "Finished", first.Status)
	assert.Equal(t, 1.0, first.FinishPos)

	// first occurrence wins on duplicate reference keys
	assert.Equal(t, "max_verstappen", base.Rows[1].DriverRef)

	// unmatched references become empty, the row survives
	orphan := base.Rows[5]
	assert.Equal(t, 0, orphan.Year)
	assert.Equal(t, "", orphan.DriverRef)
	assert.Equal(t, "", orphan.Team)
	assert.Equal(t, "Disqualified", orphan.Status)
	assert.False(t, orphan.Classified())
}

func TestJoinCoercesNonNumericPositions(t *testing.T) {
	dir := writeFixture(t, false)
	tables, err := LoadTables(Loader{Dir: dir}, false)
	require.NoError(t, err)
	base, err := Join(tables)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(base.Rows[2].FinishPos), `\N`)
	assert.True(t, math.IsNaN(base.Rows[3].FinishPos), "R")
	assert.True(t, math.IsNaN(base.Rows[5].FinishPos), "DQ")
	assert.Equal(t, 0.0, base.Rows[2].Grid, "pit-lane start stays 0")
}

func TestJoinQualifyingMinimum(t *testing.T) {
	dir := writeFixture(t, true)
	tables, err := LoadTables(Loader{Dir: dir}, true)
	require.NoError(t, err)
	base, err := Join(tables)
	require.NoError(t, err)

	require.True(t, base.HasQualifying)
	assert.Equal(t, ColQPos, base.Columns[len(base.Columns)-1])
	assert.Equal(t, 1.0, base.Rows[0].QPos)
	assert.Equal(t, 3.0, base.Rows[1].QPos)
	assert.True(t, math.IsNaN(base.Rows[2].QPos))
	assert.True(t, math.IsNaN(base.Rows[4].QPos), "NC only")
}

func TestLoadMissingRequiredTable(t *testing.T) {
	dir := writeFixture(t, false)
	require.NoError(t, os.Remove(filepath.Join(dir, "status.csv")))

	_, err := LoadTables(Loader{Dir: dir}, false)
	require.ErrorIs(t, err, ErrMissingTable)
	assert.Contains(t, err.Error(), "status")
}

func TestJoinMissingColumn(t *testing.T) {
	dir := writeFixture(t, false)
	writeTable(t, dir, "races.csv", "raceId,season,round,circuitId", "10,2023,1,3")
	tables, err := LoadTables(Loader{Dir: dir}, false)
	require.NoError(t, err)

	_, err = Join(tables)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "races.year")
}

func TestLoadExcelTable(t *testing.T) {
	dir := writeFixture(t, false)
	require.NoError(t, os.Remove(filepath.Join(dir, "status.csv")))

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"statusId", "status"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1, "Finished"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{2, "Disqualified"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{5, "Engine"}))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "status.xlsx")))
	require.NoError(t, f.Close())

	l := Loader{Dir: dir}
	assert.True(t, l.Exists("status"))
	tables, err := LoadTables(l, false)
	require.NoError(t, err)
	base, err := Join(tables)
	require.NoError(t, err)
	assert.Equal(t, "Engine", base.Rows[3].Status)
}

func TestBaseRoundTripAndSeason(t *testing.T) {
	dir := writeFixture(t, true)
	tables, err := LoadTables(Loader{Dir: dir}, true)
	require.NoError(t, err)
	base, err := Join(tables)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBase(&buf, base))
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(header, "resultId,raceId,driverId"))
	assert.True(t, strings.HasSuffix(header, "team,status,finish_pos,q_pos"))

	back, err := ReadBase(&buf)
	require.NoError(t, err)
	require.Len(t, back.Rows, len(base.Rows))
	assert.True(t, back.HasQualifying)
	assert.Equal(t, base.Rows[1].DriverRef, back.Rows[1].DriverRef)
	assert.Equal(t, base.Rows[0].QPos, back.Rows[0].QPos)

	season := base.Season(2024)
	require.Len(t, season.Rows, 2)
	for _, r := range season.Rows {
		assert.Equal(t, 2024, r.Year)
	}
}

func TestEmptyBaseRoundTrip(t *testing.T) {
	dir := writeFixture(t, false)
	tables, err := LoadTables(Loader{Dir: dir}, false)
	require.NoError(t, err)
	base, err := Join(tables)
	require.NoError(t, err)

	season := base.Season(1990)
	require.Empty(t, season.Rows)
	var buf bytes.Buffer
	require.NoError(t, WriteBase(&buf, season))
	assert.Equal(t, strings.Join(base.Columns, ",")+"\n", buf.String())

	back, err := ReadBase(&buf)
	require.NoError(t, err)
	assert.Equal(t, base.Columns, back.Columns)
	assert.Empty(t, back.Rows)
	assert.False(t, back.HasQualifying)
}

func TestJoinHeaderOnlyQualifying(t *testing.T) {
	dir := writeFixture(t, false)
	writeTable(t, dir, "qualifying.csv", "qualifyId,raceId,driverId,constructorId,number,position")
	l := Loader{Dir: dir}

	q, err := l.Load(TableQualifying)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Nrow())
	assert.Equal(t, 6, q.Ncol())

	tables, err := LoadTables(l, true)
	require.NoError(t, err)
	base, err := Join(tables)
	require.NoError(t, err)
	require.True(t, base.HasQualifying)
	for _, r := range base.Rows {
		assert.True(t, math.IsNaN(r.QPos))
	}
}

func TestAttachQualifying(t *testing.T) {
	dir := writeFixture(t, true)
	l := Loader{Dir: dir}
	tables, err := LoadTables(l, false)
	require.NoError(t, err)
	base, err := Join(tables)
	require.NoError(t, err)
	require.False(t, base.HasQualifying)

	q, err := l.Load(TableQualifying)
	require.NoError(t, err)
	require.NoError(t, AttachQualifying(base, q))
	assert.True(t, base.HasQualifying)
	assert.Equal(t, 1.0, base.Rows[0].QPos)
	assert.Len(t, base.Records[0], len(base.Columns))
}

func TestParsePosition(t *testing.T) {
	assert.Equal(t, 3.0, ParsePosition("3"))
	assert.Equal(t, 12.0, ParsePosition(" 12 "))
	for _, s := range []string{"R", "DQ", "NC", `\N`, "", "inf"} {
		assert.True(t, math.IsNaN(ParsePosition(s)), s)
	}
}

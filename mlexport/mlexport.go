package main

import (
	"flag"
	"fmt"
	"os"

	"f1predict/racing/config"
	"f1predict/racing/f1data"

	"github.com/aunum/log"
)

/* 	Mlexport 		-	joins the raw Ergast tables into the base table used to train the finishing position model
		Parameters are:
			-config		YAML configuration file 												(default $F1_CONFIG, else built-in defaults)
			-data		Directory holding results, races, drivers, constructors, status	(default data_dir, ".")
			-out		Directory the base tables are written to 								(default out_dir, ".")
			-year		Season written to base_<year>.csv 										(default holdout_year, 2024)
			-q			Qualifying mode, auto, on or off 										(default qualifying, auto)

		Each raw table is looked up as <name>.csv, <name>.CSV or <name>.xlsx. Results are left joined to races, drivers,
		constructors and status so every results row appears exactly once in the output, with empty cells where a reference
		row is missing. Non numeric positions (R, DQ, NC, \N) give an empty finish_pos.
		When qualifying is on, or auto and a qualifying table exists, q_pos holds the best qualifying position of the
		driver at that race.
		Two files are written: base_all_years.csv with every season and base_<year>.csv with the selected season only.
		Every setting can also be given as an F1_* environment variable, e.g. F1_DATA_DIR.
*/

const (
	VERMAJ   = 1
	VERMIN   = 0
	VERPATCH = 0
)

var (
	ConfigFile string
	DataDir    string
	OutDir     string
	Year       int
	Qualifying string
)

func main() {
	fmt.Printf("mlexport v%d.%d.%d\n", VERMAJ, VERMIN, VERPATCH)
	flag.StringVar(&ConfigFile, "config", "", "YAML configuration file")
	flag.StringVar(&DataDir, "data", "", "Directory holding the raw tables")
	flag.StringVar(&OutDir, "out", "", "Directory to write the base tables to")
	flag.IntVar(&Year, "year", 0, "Season to write as base_<year>.csv (default holdout year)")
	flag.StringVar(&Qualifying, "q", "", "Qualifying mode auto, on or off")
	flag.Parse()

	cfg, err := config.Load(ConfigFile)
	if err != nil {
		log.Fatal(err)
	}
	if DataDir != "" {
		cfg.DataDir = DataDir
	}
	if OutDir != "" {
		cfg.OutDir = OutDir
	}
	if Year != 0 {
		cfg.HoldoutYear = Year
	}
	if Qualifying != "" {
		cfg.Qualifying = Qualifying
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	loader := f1data.Loader{Dir: cfg.DataDir}
	caps, err := config.ResolveCapabilities(cfg, loader.Exists(f1data.TableQualifying))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Joining tables in %s, qualifying %v, season %d\n", cfg.DataDir, caps.Qualifying, cfg.HoldoutYear)

	tables, err := f1data.LoadTables(loader, caps.Qualifying)
	if err != nil {
		log.Fatal(err)
	}
	base, err := f1data.Join(tables)
	if err != nil {
		log.Fatal(err)
	}
	season := base.Season(cfg.HoldoutYear)
	if len(season.Rows) == 0 {
		log.Infof("no rows for season %d", cfg.HoldoutYear)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		log.Fatal(err)
	}
	for _, out := range []struct {
		path string
		base *f1data.Base
	}{
		{cfg.BaseAllPath(), base},
		{cfg.BaseYearPath(cfg.HoldoutYear), season},
	} {
		if err := writeBase(out.path, out.base); err != nil {
			log.Fatal("Failed to write ", out.path, " : ", err)
		}
	}
	fmt.Println("Saved:")
	fmt.Println(cfg.BaseAllPath())
	fmt.Println(cfg.BaseYearPath(cfg.HoldoutYear))
	printPeek(season, 10)
}

func writeBase(path string, b *f1data.Base) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f1data.WriteBase(f, b); err != nil {
		return err
	}
	return f.Close()
}

// printPeek shows the first rows of the season as a quick sanity check.
func printPeek(b *f1data.Base, n int) {
	if len(b.Rows) < n {
		n = len(b.Rows)
	}
	if n == 0 {
		return
	}
	fmt.Printf("\nPeek %d:\n", b.Rows[0].Year)
	fmt.Printf("%-8s %-6s %-20s %-20s %-5s %s\n", "raceId", "round", "driverRef", "team", "grid", "finish_pos")
	for _, r := range b.Rows[:n] {
		fmt.Printf("%-8d %-6d %-20s %-20s %-5s %s\n", r.RaceID, r.Round, r.DriverRef, r.Team,
			f1data.FormatFloat(r.Grid), f1data.FormatFloat(r.FinishPos))
	}
}

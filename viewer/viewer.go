package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"f1predict/racing/config"
	"f1predict/racing/f1data"

	"github.com/aunum/log"
)

/* 	Viewer 			-	web page comparing the predicted and actual order of each race of the holdout season
		Parameters are:
			-config		YAML configuration file 										(default $F1_CONFIG, else built-in defaults)
			-in			Flat predictions file 											(default <out_dir>/predictions_<year>_flat.csv)
			-data		Directory holding races and circuits 							(default data_dir)
			-year		Season shown 													(default holdout_year, 2024)
			-addr		Listen address 													(default addr, ":8501")

		GET /                          lists the races of the season as "RR | Grand Prix — Circuit (Location, Country)"
		GET /race/{raceId}             predicted order next to the actual order of classified finishers
		GET /race/{raceId}/scatter.svg predicted against actual positions for the race
*/

const (
	VERMAJ   = 1
	VERMIN   = 0
	VERPATCH = 0
)

var (
	ConfigFile string
	InFileName string
	DataDir    string
	Year       int
	Addr       string
)

func main() {
	fmt.Printf("Viewer v%d.%d.%d\n", VERMAJ, VERMIN, VERPATCH)
	flag.StringVar(&ConfigFile, "config", "", "YAML configuration file")
	flag.StringVar(&InFileName, "in", "", "Flat predictions file (default <out>/predictions_<year>_flat.csv)")
	flag.StringVar(&DataDir, "data", "", "Directory holding races and circuits")
	flag.IntVar(&Year, "year", 0, "Season shown")
	flag.StringVar(&Addr, "addr", "", "Listen address")
	flag.Parse()

	cfg, err := config.Load(ConfigFile)
	if err != nil {
		log.Fatal(err)
	}
	if DataDir != "" {
		cfg.DataDir = DataDir
	}
	if Year != 0 {
		cfg.HoldoutYear = Year
	}
	if Addr != "" {
		cfg.Addr = Addr
	}
	if InFileName == "" {
		InFileName = cfg.FlatPath(cfg.HoldoutYear)
	}

	f, err := os.Open(InFileName)
	if err != nil {
		log.Fatal("Failed to open input file ", InFileName, " : ", err)
	}
	preds, err := f1data.ReadFlat(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	loader := f1data.Loader{Dir: cfg.DataDir}
	races, err := loader.Load(f1data.TableRaces)
	if err != nil {
		log.Fatal(err)
	}
	circuits, err := loader.Load(f1data.TableCircuits)
	if err != nil {
		log.Fatal(err)
	}
	labels, err := f1data.RaceLabels(races, circuits, cfg.HoldoutYear)
	if err != nil {
		log.Fatal(err)
	}

	s := NewServer(cfg.HoldoutYear, labels, preds)
	log.Infof("serving %d races of %d on %s", len(labels), cfg.HoldoutYear, cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, s))
}

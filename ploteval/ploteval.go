package main

import (
	"flag"
	"fmt"
	"os"

	"f1predict/racing/config"
	"f1predict/racing/evaluate"
	"f1predict/racing/f1data"

	"github.com/aunum/log"
)

/* 	Ploteval 		-	scores the holdout predictions against the actual results and plots them
		Parameters are:
			-config		YAML configuration file 										(default $F1_CONFIG, else built-in defaults)
			-in			Flat predictions file 											(default <out_dir>/predictions_<year>_flat.csv)
			-out		Directory the plots are written to 								(default out_dir)
			-year		Season being evaluated 											(default holdout_year, 2024)
			-k			Comma separated top-k values 									(default top_k, 3,10)

		Only rows with a finishing position are scored. Prints the MAE, the top-k hit rate (drivers predicted in the top k
		that finished in the top k, divided by k and averaged over races) and the mean per-race Spearman rank correlation.
		Writes plot_pred_vs_actual.png, predicted against actual positions, and plot_spearman_by_race.png, the per-race
		correlations highest first.
*/

const (
	VERMAJ   = 1
	VERMIN   = 0
	VERPATCH = 0
)

var (
	ConfigFile string
	InFileName string
	OutDir     string
	Year       int
	TopK       string
)

func main() {
	fmt.Printf("Ploteval v%d.%d.%d\n", VERMAJ, VERMIN, VERPATCH)
	flag.StringVar(&ConfigFile, "config", "", "YAML configuration file")
	flag.StringVar(&InFileName, "in", "", "Flat predictions file (default <out>/predictions_<year>_flat.csv)")
	flag.StringVar(&OutDir, "out", "", "Directory to write plots to")
	flag.IntVar(&Year, "year", 0, "Season being evaluated")
	flag.StringVar(&TopK, "k", "", "Top-k values e.g. \"3,10\"")
	flag.Parse()

	cfg, err := config.Load(ConfigFile)
	if err != nil {
		log.Fatal(err)
	}
	if OutDir != "" {
		cfg.OutDir = OutDir
	}
	if Year != 0 {
		cfg.HoldoutYear = Year
	}
	if TopK != "" {
		if cfg.TopK, err = parseKs(TopK); err != nil {
			log.Fatal(err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
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

	rep := evaluate.Evaluate(preds, cfg.TopK)
	if err := rep.Print(os.Stdout, cfg.HoldoutYear); err != nil {
		log.Fatal(err)
	}

	scatter, err := evaluate.ScatterPlot(preds, fmt.Sprintf("Predicted vs Actual (%d)", cfg.HoldoutYear))
	if err != nil {
		log.Fatal(err)
	}
	if err := evaluate.SavePlot(scatter, cfg.PlotWidthIn, cfg.PlotHeightIn, cfg.ScatterPath()); err != nil {
		log.Fatal(err)
	}
	bars, err := evaluate.SpearmanPlot(rep.Races, fmt.Sprintf("Per-race rank correlation (%d)", cfg.HoldoutYear))
	if err != nil {
		log.Fatal(err)
	}
	// the bar chart is wider than tall, as there is one bar per race
	if err := evaluate.SavePlot(bars, cfg.PlotWidthIn*1.25, cfg.PlotHeightIn*5/6, cfg.SpearmanPath()); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Saved plots:")
	fmt.Println(cfg.ScatterPath())
	fmt.Println(cfg.SpearmanPath())
}

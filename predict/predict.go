package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"f1predict/racing/config"
	"f1predict/racing/evaluate"
	"f1predict/racing/f1data"
	"f1predict/racing/features"
	"f1predict/racing/predictor"

	"github.com/aunum/log"
)

/* 	Predict 		-	scores a season with a model saved by learn, without refitting
		Parameters are:
			-config		YAML configuration file 										(default $F1_CONFIG, else built-in defaults)
			-mn			Filename of the model 											(default <out_dir>/model.gob)
			-in			Joined base table 												(default <out_dir>/base_all_years.csv)
			-data		Directory holding the raw tables, used for qualifying 			(default data_dir)
			-out		Directory the predictions are written to 						(default out_dir)
			-year		Season to predict 												(default the model's holdout season)

		Features are rebuilt from the base table and gaps filled with the medians stored in the model, so a season after
		the one the model was trained for is scored the same way. Rows without a result (a season still running) are
		predicted too; the summary metrics only cover rows with a finishing position.
*/

const (
	VERMAJ   = 1
	VERMIN   = 0
	VERPATCH = 0
)

var (
	ConfigFile string
	ModelName  string
	InFileName string
	DataDir    string
	OutDir     string
	Year       int
)

func main() {
	fmt.Printf("Predict v%d.%d.%d\n", VERMAJ, VERMIN, VERPATCH)
	flag.StringVar(&ConfigFile, "config", "", "YAML configuration file")
	flag.StringVar(&ModelName, "mn", "", "Filename of the model (default <out>/model.gob)")
	flag.StringVar(&InFileName, "in", "", "Joined base table (default <out>/base_all_years.csv)")
	flag.StringVar(&DataDir, "data", "", "Directory holding the raw tables")
	flag.StringVar(&OutDir, "out", "", "Directory to write predictions to")
	flag.IntVar(&Year, "year", 0, "Season to predict (default the model's holdout season)")
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
	if ModelName == "" {
		ModelName = cfg.ModelPath()
	}
	if InFileName == "" {
		InFileName = cfg.BaseAllPath()
	}

	bundle, model, err := predictor.Load(ModelName)
	if err != nil {
		log.Fatal("Failed to load model ", ModelName, " : ", err)
	}
	if Year == 0 {
		Year = bundle.HoldoutYear
	}
	log.Infof("model %s trained before %d on %v", bundle.Model, bundle.HoldoutYear, bundle.Features)

	f, err := os.Open(InFileName)
	if err != nil {
		log.Fatal("Failed to open input file ", InFileName, " : ", err)
	}
	base, err := f1data.ReadBase(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}
	if needsQualifying(bundle) && !base.HasQualifying {
		q, err := f1data.Loader{Dir: cfg.DataDir}.Load(f1data.TableQualifying)
		if err != nil {
			log.Fatal("model uses q_pos: ", err)
		}
		if err := f1data.AttachQualifying(base, q); err != nil {
			log.Fatal(err)
		}
	}

	set := features.Derive(base.Rows, features.Options{HoldoutYear: bundle.HoldoutYear, Medians: bundle.Medians})
	var rows []features.Row
	for _, r := range set.Rows {
		if r.Year == Year {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		log.Fatalf("no rows for season %d in %s", Year, InFileName)
	}
	fmt.Printf("Read %d rows for season %d\n", len(rows), Year)

	preds, err := predictor.Predict(model, rows, bundle.Features, cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		log.Fatal(err)
	}
	if err := save(cfg.FlatPath(Year), preds, f1data.WriteFlat); err != nil {
		log.Fatal(err)
	}
	if err := save(cfg.OrderedPath(Year), preds, f1data.WriteOrdered); err != nil {
		log.Fatal(err)
	}

	rep := evaluate.Evaluate(preds, cfg.TopK)
	if rep.Rows > 0 {
		if err := rep.Print(os.Stdout, Year); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println("Saved:")
	fmt.Println(cfg.FlatPath(Year))
	fmt.Println(cfg.OrderedPath(Year))
}

func needsQualifying(b *predictor.Bundle) bool {
	for _, n := range b.Features {
		if n == features.QPos {
			return true
		}
	}
	return false
}

func save(filename string, preds []f1data.Prediction, write func(io.Writer, []f1data.Prediction) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := write(f, preds); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return f.Close()
}

package main

import (
	"flag"
	"fmt"
	"os"

	"f1predict/racing/config"
	"f1predict/racing/f1data"
	"f1predict/racing/features"
	"f1predict/racing/predictor"

	"github.com/aunum/log"
)

/* 	Learn 			-	derives the rolling history features, fits the finishing position model and predicts the holdout season
		Parameters are:
			-config		YAML configuration file 											(default $F1_CONFIG, else built-in defaults)
			-in 		Joined base table 													(default <out_dir>/base_all_years.csv)
			-data		Directory holding the raw tables, used for qualifying 				(default data_dir)
			-out		Directory for predictions and the model 							(default out_dir)
			-year		Holdout season 														(default holdout_year, 2024)
			-model		forest, mlp or cart														(default model, forest)
			-trees		Number of trees in the forest 										(default trees, 400)
			-depth		Maximum depth of the cart tree, -1 unlimited										(default cart_max_depth, 12)
			-it			Epochs when training the mlp 										(default mlp_epochs, 200)
			-lr			Learn rate of the mlp 												(default mlp_learn_rate, 0.001)
			-sf			Save the model to filename 											(default <out_dir>/model.gob)

		Features are the grid position, the qualifying position when available and the mean finishing position of the
		driver over the last 5 and 10 races, of the team over the last 5 results and of the driver and team over their last
		3 visits to the circuit. Only races before the one being described are used. Gaps are filled with the median over
		seasons before the holdout.
		20% of the training rows are held back to report a validation MAE, then the model is refit on every training row
		and used to predict the holdout season. Predictions are clipped to 1-20 and rounded to 2 decimal places and written
		to predictions_<year>_flat.csv and predicted_order_by_race_<year>.csv.
*/

const (
	VERMAJ   = 1
	VERMIN   = 0
	VERPATCH = 0
)

var (
	ConfigFile string
	InFile     string
	SaveFile   string
	DataDir    string
	OutDir     string
	Year       int
	Model      string
	Trees      int
	Depth      int
	MaxIter    int
	LearnRate  float64
)

func main() {
	fmt.Printf("Learn v%d.%d.%d\n", VERMAJ, VERMIN, VERPATCH)
	flag.StringVar(&ConfigFile, "config", "", "YAML configuration file")
	flag.StringVar(&InFile, "in", "", "Joined base table (default <out>/base_all_years.csv)")
	flag.StringVar(&DataDir, "data", "", "Directory holding the raw tables")
	flag.StringVar(&OutDir, "out", "", "Directory for predictions and model")
	flag.IntVar(&Year, "year", 0, "Holdout season")
	flag.StringVar(&Model, "model", "", "Model, forest, mlp or cart")
	flag.IntVar(&Trees, "trees", 0, "Number of trees")
	flag.IntVar(&Depth, "depth", 0, "Maximum depth of the cart tree, -1 for unlimited")
	flag.IntVar(&MaxIter, "it", 0, "Max epochs for the mlp")
	flag.Float64Var(&LearnRate, "lr", 0, "Learn rate for the mlp")
	flag.StringVar(&SaveFile, "sf", "", "Save the model to filename (default <out>/model.gob)")
	flag.Parse()

	cfg, err := config.Load(ConfigFile)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if InFile == "" {
		InFile = cfg.BaseAllPath()
	}
	if SaveFile == "" {
		SaveFile = cfg.ModelPath()
	}
	fmt.Printf("Learning from %s, holdout %d, model %s\n", InFile, cfg.HoldoutYear, cfg.Model)

	base := readBase(InFile)
	loader := f1data.Loader{Dir: cfg.DataDir}
	caps, err := config.ResolveCapabilities(cfg, base.HasQualifying || loader.Exists(f1data.TableQualifying))
	if err != nil {
		log.Fatal(err)
	}
	if caps.Qualifying && !base.HasQualifying {
		q, err := loader.Load(f1data.TableQualifying)
		if err != nil {
			log.Fatal(err)
		}
		if err := f1data.AttachQualifying(base, q); err != nil {
			log.Fatal(err)
		}
	}

	set := features.Derive(base.Rows, features.Options{HoldoutYear: cfg.HoldoutYear, Qualifying: caps.Qualifying})
	res, err := predictor.Train(set, cfg)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("MAE (val): %.3f\n", res.ValidationMAE)

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		log.Fatal(err)
	}
	if err := writePredictions(cfg, cfg.HoldoutYear, res.Predictions); err != nil {
		log.Fatal(err)
	}
	if err := predictor.Save(SaveFile, res, cfg.HoldoutYear); err != nil {
		log.Fatal("Failed to save model ", SaveFile, " : ", err)
	}
	fmt.Println("Saved:")
	fmt.Println(cfg.FlatPath(cfg.HoldoutYear))
	fmt.Println(cfg.OrderedPath(cfg.HoldoutYear))
	fmt.Println(SaveFile)
}

func applyFlags(cfg *config.Config) {
	if DataDir != "" {
		cfg.DataDir = DataDir
	}
	if OutDir != "" {
		cfg.OutDir = OutDir
	}
	if Year != 0 {
		cfg.HoldoutYear = Year
	}
	if Model != "" {
		cfg.Model = Model
	}
	if Trees != 0 {
		cfg.Trees = Trees
	}
	if Depth != 0 {
		cfg.CARTMaxDepth = Depth
	}
	if MaxIter != 0 {
		cfg.MLPEpochs = MaxIter
	}
	if LearnRate != 0 {
		cfg.MLPLearnRate = LearnRate
	}
}

func readBase(filename string) *f1data.Base {
	f, err := os.Open(filename)
	if err != nil {
		log.Fatal("Failed to open input file ", filename, " : ", err)
	}
	defer f.Close()
	base, err := f1data.ReadBase(f)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("read %d rows from %s (q_pos: %v)", len(base.Rows), filename, base.HasQualifying)
	return base
}

func writePredictions(cfg *config.Config, year int, preds []f1data.Prediction) error {
	for _, out := range []struct {
		path  string
		write func(*os.File) error
	}{
		{cfg.FlatPath(year), func(f *os.File) error { return f1data.WriteFlat(f, preds) }},
		{cfg.OrderedPath(year), func(f *os.File) error { return f1data.WriteOrdered(f, preds) }},
	} {
		f, err := os.Create(out.path)
		if err != nil {
			return err
		}
		if err := out.write(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", out.path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

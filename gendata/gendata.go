package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"f1predict/racing/config"
	"f1predict/racing/f1data"

	"github.com/aunum/log"
	_ "github.com/go-sql-driver/mysql"
)

/* 	Gendata 		-	exports the Ergast tables from a MySQL copy of the database to csv files for mlexport
		Parameters are:
		*	-u			Username to connect to the database
		*	-p 			Password used to connect to the database
			-config		YAML configuration file 									(default $F1_CONFIG, else built-in defaults)
			-db			Database connection string 									(default dsn, "ergast?parseTime=true")
			-data		Directory the csv files are written to 						(default data_dir)
			-tables		Tables to export 											(default circuits,races,drivers,constructors,status,results,qualifying)
			-timeout	Timeout per table 											(default 5m)
		(* must be supplied)

		Each table is written to <data>/<table>.csv with a header row. NULL values are written as \N, as in the csv
		files published by Ergast, so both sources can be used interchangeably.
*/

const (
	VERMAJ   = 1
	VERMIN   = 0
	VERPATCH = 0
)

var (
	ConfigFile string
	DBName     string
	DataDir    string
	Tables     string
	Timeout    time.Duration
)

func main() {
	fmt.Printf("Gendata v%d.%d.%d\n", VERMAJ, VERMIN, VERPATCH)
	flag.StringVar(&ConfigFile, "config", "", "YAML configuration file")
	sDB := flag.String("db", "", "Database connection string")
	sUser := flag.String("u", "", "DB Username")
	sPass := flag.String("p", "", "DB Password")
	flag.StringVar(&DataDir, "data", "", "Directory to write the csv files to")
	flag.StringVar(&Tables, "tables", strings.Join(f1data.ErgastTables, ","), "Tables to export")
	flag.DurationVar(&Timeout, "timeout", 5*time.Minute, "Timeout per table")
	flag.Parse()
	if *sUser == "" || *sPass == "" {
		log.Fatal("Username or password missing, specify with -u and -p options.")
	}

	cfg, err := config.Load(ConfigFile)
	if err != nil {
		log.Fatal(err)
	}
	if *sDB != "" {
		cfg.DSN = *sDB
	}
	if DataDir != "" {
		cfg.DataDir = DataDir
	}
	DBName = fmt.Sprintf("%s:%s@/%s", *sUser, *sPass, cfg.DSN)

	db, err := sql.Open("mysql", DBName)
	if err != nil {
		log.Fatal("(InitDatabase) Failed to open mysql database : ", err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal(err)
	}
	for _, table := range strings.Split(Tables, ",") {
		table = strings.TrimSpace(table)
		if table == "" {
			continue
		}
		n, err := export(db, table, filepath.Join(cfg.DataDir, table+".csv"))
		if err != nil {
			db.Close()
			log.Fatal("Export of ", table, " failed: ", err)
		}
		log.Infof("exported %d rows from %s", n, table)
	}
}

func export(db *sql.DB, table, filename string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	fn, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	defer fn.Close()
	n, err := f1data.ExportTable(ctx, db, table, fn)
	if err != nil {
		return n, err
	}
	return n, fn.Close()
}

package main

import (
	"html/template"
	"net/http"
	"sort"
	"strconv"

	"f1predict/racing/evaluate"
	"f1predict/racing/f1data"

	"github.com/aunum/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the race picker, per-race orders and scatter plots of one season.
type Server struct {
	r      chi.Router
	year   int
	labels []f1data.RaceLabel
	races  map[int]f1data.RaceLabel
	preds  map[int][]f1data.Prediction
}

// NewServer indexes preds by race and wires the routes.
func NewServer(year int, labels []f1data.RaceLabel, preds []f1data.Prediction) *Server {
	s := &Server{
		year:   year,
		labels: labels,
		races:  make(map[int]f1data.RaceLabel, len(labels)),
		preds:  make(map[int][]f1data.Prediction),
	}
	for _, l := range labels {
		s.races[l.RaceID] = l
	}
	for _, p := range preds {
		s.preds[p.RaceID] = append(s.preds[p.RaceID], p)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/", s.GETIndex)
	r.Get("/race/{raceID}", s.GETRace)
	r.Get("/race/{raceID}/scatter.svg", s.GETScatter)
	s.r = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.r.ServeHTTP(w, r)
}

func (s *Server) GETIndex(w http.ResponseWriter, r *http.Request) {
	render(w, indexTmpl, struct {
		Year   int
		Labels []f1data.RaceLabel
	}{s.year, s.labels})
}

// race resolves the raceID parameter; ok is false when the race is unknown.
func (s *Server) race(r *http.Request) (f1data.RaceLabel, []f1data.Prediction, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "raceID"))
	if err != nil {
		return f1data.RaceLabel{}, nil, false
	}
	label, known := s.races[id]
	rows, predicted := s.preds[id]
	if !known && !predicted {
		return f1data.RaceLabel{}, nil, false
	}
	if !known {
		label = f1data.RaceLabel{RaceID: id, Label: "Race " + strconv.Itoa(id)}
	}
	return label, rows, true
}

type orderRow struct {
	Pos       int
	DriverRef string
	Team      string
	Grid      string
	Value     string
}

func (s *Server) GETRace(w http.ResponseWriter, r *http.Request) {
	label, rows, ok := s.race(r)
	if !ok {
		http.Error(w, "Race not found", http.StatusNotFound)
		return
	}
	render(w, raceTmpl, struct {
		Year      int
		Race      f1data.RaceLabel
		Predicted []orderRow
		Actual    []orderRow
	}{s.year, label, predictedOrder(rows), actualOrder(rows)})
}

func (s *Server) GETScatter(w http.ResponseWriter, r *http.Request) {
	label, rows, ok := s.race(r)
	if !ok {
		http.Error(w, "Race not found", http.StatusNotFound)
		return
	}
	p, err := evaluate.ScatterPlot(rows, label.Label)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := evaluate.WritePlot(w, p, 6, 6, "svg"); err != nil {
		log.Error(err)
	}
}

func predictedOrder(rows []f1data.Prediction) []orderRow {
	sorted := append([]f1data.Prediction(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PredPos < sorted[j].PredPos })
	return table(sorted, func(p f1data.Prediction) float64 { return p.PredPos })
}

// actualOrder lists classified drivers by finishing position.
func actualOrder(rows []f1data.Prediction) []orderRow {
	var sorted []f1data.Prediction
	for _, p := range rows {
		if p.Classified() {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FinishPos < sorted[j].FinishPos })
	return table(sorted, func(p f1data.Prediction) float64 { return p.FinishPos })
}

func table(rows []f1data.Prediction, value func(f1data.Prediction) float64) []orderRow {
	out := make([]orderRow, len(rows))
	for i, p := range rows {
		out[i] = orderRow{
			Pos:       i + 1,
			DriverRef: p.DriverRef,
			Team:      p.Team,
			Grid:      f1data.FormatFloat(p.Grid),
			Value:     f1data.FormatFloat(value(p)),
		}
	}
	return out
}

func render(w http.ResponseWriter, t *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(w, data); err != nil {
		log.Error(err)
	}
}

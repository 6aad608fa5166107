package main

import "html/template"

const layoutHead = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>F1 Predictions {{.Year}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { padding: 2px 10px; text-align: left; }
.cols { display: flex; gap: 4em; }
</style></head><body>
<h1>F1 {{.Year}} – Predicted Results vs Actual</h1>
`

var indexTmpl = template.Must(template.New("index").Parse(layoutHead + `
<h2>Select race</h2>
<ul>
{{range .Labels}}<li><a href="/race/{{.RaceID}}">{{.Label}}</a></li>
{{else}}<li>No races for {{.Year}}</li>
{{end}}</ul>
</body></html>`))

var raceTmpl = template.Must(template.New("race").Parse(layoutHead + `
<p><a href="/">All races</a></p>
<h2>{{.Race.Label}}</h2>
<div class="cols">
<div><h3>Predicted order</h3>
<table><tr><th></th><th>driverRef</th><th>team</th><th>grid</th><th>pred_pos</th></tr>
{{range .Predicted}}<tr><td>{{.Pos}}</td><td>{{.DriverRef}}</td><td>{{.Team}}</td><td>{{.Grid}}</td><td>{{.Value}}</td></tr>
{{end}}</table></div>
<div><h3>Actual order</h3>
<table><tr><th></th><th>driverRef</th><th>team</th><th>grid</th><th>finish_pos</th></tr>
{{range .Actual}}<tr><td>{{.Pos}}</td><td>{{.DriverRef}}</td><td>{{.Team}}</td><td>{{.Grid}}</td><td>{{.Value}}</td></tr>
{{end}}</table></div>
</div>
<h3>Predicted vs Actual scatter (this race)</h3>
<img src="/race/{{.Race.RaceID}}/scatter.svg" alt="scatter">
</body></html>`))

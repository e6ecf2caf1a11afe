// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"io"
	"strconv"

	"github.com/google/safehtml/template"

	"github.com/peng-hpc/runanalysis/analyzer"
)

var htmlTemplate = template.Must(template.New("").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
</head>
<body>
<h1>{{.Name}}</h1>
<table class="jobs">
<tr><th>job<th>app<th>resolution<th>compiler<th>ranks<th>compute<th>setup<th>total<th>status
{{range .Jobs -}}
<tr><td>{{.ID}}<td>{{.App}}<td>{{.Resolution}}<td>{{.Compiler}}<td>{{.Ranks}}<td>{{.Compute}}<td>{{.Setup}}<td>{{.Total}}<td>{{.Status}}
{{end -}}
</table>
{{with .Compare}}
<h2>Speedup to {{.Baseline}} ranks</h2>
<table class="speedup">
<tr><th>ranks<th>compute<th>speedup
{{range .Rows -}}
<tr><td>{{.Ranks}}<td>{{.Compute}}<td>{{.Speedup}}
{{end -}}
</table>
<p>Average compute time {{.Average}}.</p>
{{end}}
<p>Environment: {{if .Static}}static{{else}}varies{{end}}.</p>
{{if .Warnings -}}
<h2>Warnings</h2>
<ul>
{{range .Warnings}}<li>{{.}}
{{end -}}
</ul>
{{end -}}
</body>
</html>
`))

type htmlReport struct {
	Name     string
	Jobs     []htmlJob
	Compare  *htmlCompare
	Static   bool
	Warnings []string
}

type htmlJob struct {
	ID, App, Resolution, Compiler, Ranks string
	Compute, Setup, Total, Status        string
}

type htmlCompare struct {
	Baseline int
	Rows     []htmlRank
	Average  string
}

type htmlRank struct {
	Ranks, Compute, Speedup string
}

// WriteHTML writes an HTML page titled name that summarizes doc.
func WriteHTML(w io.Writer, name string, doc *analyzer.Document) error {
	rep := htmlReport{
		Name:     name,
		Static:   doc.Environment.IsStatic,
		Warnings: doc.Warnings,
	}
	for _, id := range doc.JobIDs() {
		j := doc.Jobs[id]
		r := doc.Results.ByJob[id]
		s := j.Settings
		hj := htmlJob{
			ID:         id,
			App:        string(s.App),
			Resolution: string(s.Resolution),
			Compiler:   string(s.Compiler),
			Ranks:      strconv.Itoa(s.MPIRanks),
			Status:     status(j, r),
		}
		if r != nil && r.Timing != nil {
			hj.Compute = seconds(r.Timing.ComputeSeconds)
			hj.Setup = seconds(r.Timing.SetupSeconds)
			hj.Total = r.Timing.TotalTime
		}
		rep.Jobs = append(rep.Jobs, hj)
	}
	if c := doc.Results.MPICompare; c != nil {
		hc := &htmlCompare{Baseline: c.Baseline, Average: seconds(&c.AverageSeconds)}
		for _, e := range c.Entries {
			row := htmlRank{Ranks: strconv.Itoa(e.Ranks), Compute: seconds(&e.ComputeSeconds)}
			if e.Speedup != nil {
				row.Speedup = strconv.FormatFloat(*e.Speedup, 'f', 3, 64)
			}
			hc.Rows = append(hc.Rows, row)
		}
		rep.Compare = hc
	}
	return htmlTemplate.Execute(w, rep)
}

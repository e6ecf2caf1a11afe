// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/peng-hpc/runanalysis/analyzer"
	"github.com/peng-hpc/runanalysis/runconfig"
	"github.com/peng-hpc/runanalysis/speedup"
	"github.com/peng-hpc/runanalysis/timinglog"
)

func float(v float64) *float64 { return &v }

func testDoc(t *testing.T) *analyzer.Document {
	t.Helper()
	rec := func(id string, ranks int) runconfig.Record {
		return runconfig.Record{
			JobID:      id,
			App:        runconfig.AppMiniappThermal,
			Resolution: runconfig.G16000,
			Compiler:   runconfig.GCC,
			MPIRanks:   ranks,
			CFlags:     "-O2  -g",
		}
	}
	cmpRanks, err := speedup.Compute(map[int]float64{1: 10, 2: 6})
	if err != nil {
		t.Fatal(err)
	}
	return &analyzer.Document{
		Jobs: map[string]*analyzer.Job{
			"1001": {ID: "1001", Settings: rec("1001", 1)},
			"1002": {ID: "1002", Settings: rec("1002", 2), Errors: []string{"a: bad", "b: bad"}},
			"1003": {ID: "1003", Settings: rec("1003", 4)},
		},
		Results: analyzer.Results{
			ByJob: map[string]*analyzer.JobResult{
				"1001": {Timing: &timinglog.Result{
					Ran:            true,
					ComputeSeconds: float(10),
					SetupSeconds:   float(1.5),
					TotalTime:      "00:00:12",
					ElementsAvg:    float(1200),
					LoopsAvg:       float(6),
				}},
				"1002": {Timing: &timinglog.Result{Ran: true, ComputeSeconds: float(6)}},
				"1003": {Timing: &timinglog.Result{Ran: false, ErrFile: "run.err.1003"}},
			},
			MPICompare: cmpRanks,
		},
		Warnings: []string{"skipping run <bad>: incomplete"},
	}
}

func TestWriteBenchfmt(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBenchfmt(&buf, testDoc(t)); err != nil {
		t.Fatal(err)
	}
	want := `app: ISSM-MINIAPP-THERMAL
resolution: G16000
compiler: GCC
cflags: -O2 -g

BenchmarkTiming/ranks=1 1 10 sec/op 1.5 setup-sec/op 1200 elements 6 loops
BenchmarkTiming/ranks=2 1 6 sec/op
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("WriteBenchfmt mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, testDoc(t)); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"10.00s",
		"1.500s",
		"00:00:12",
		"ok, 2 errors",
		"not run",
		"speedup to 1 ranks",
		"0.600",
		"average compute 8.000s",
		"environment: varies",
		"\tskipping run <bad>: incomplete",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text report lacks %q:\n%s", want, got)
		}
	}
	for i, line := range strings.Split(got, "\n") {
		if strings.HasSuffix(line, " ") {
			t.Errorf("line %d has trailing blanks: %q", i+1, line)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, "thermal <scaling>", testDoc(t)); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"<title>thermal &lt;scaling&gt;</title>",
		"<td>1001<td>ISSM-MINIAPP-THERMAL",
		"<td>10.00s",
		"Speedup to 1 ranks",
		"<td>2<td>6.000s<td>0.600",
		"Environment: varies.",
		"<li>skipping run &lt;bad&gt;: incomplete",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML report lacks %q:\n%s", want, got)
		}
	}
}

func TestSaveJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "RESULTS")
	path, err := SaveJSON(dir, "thermal", testDoc(t))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "thermal.json"); path != want {
		t.Errorf("SaveJSON path = %s, want %s", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "{\n    \"environment\": {\n        \"is_static\": false") {
		t.Errorf("JSON not indented by four spaces:\n%.80s", data)
	}

	ids, err := JobIDs(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1001", "1002", "1003"}, ids); diff != "" {
		t.Errorf("JobIDs mismatch (-want +got):\n%s", diff)
	}

	if _, err := SaveJSON(dir, "", testDoc(t)); err == nil {
		t.Errorf("SaveJSON with empty name succeeded")
	}
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	names, err := Store(context.Background(), DirFS(dir), "thermal", testDoc(t), true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"results/thermal.json", "results/thermal.txt"}, names); diff != "" {
		t.Errorf("Store names mismatch (-want +got):\n%s", diff)
	}
	meta, err := os.ReadFile(filepath.Join(dir, "results", "thermal.json.meta"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "jobs: 3\nname: thermal\n"; string(meta) != want {
		t.Errorf("metadata = %q, want %q", meta, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "results", "thermal.txt")); err != nil {
		t.Errorf("text summary not stored: %v", err)
	}
}

func TestContentType(t *testing.T) {
	for _, test := range []struct {
		name, want string
	}{
		{"results/a.json", "application/json"},
		{"results/a.html", "text/html; charset=utf-8"},
		{"results/a.txt", "text/plain; charset=utf-8"},
	} {
		if got := contentType(test.name); got != test.want {
			t.Errorf("contentType(%q) = %q, want %q", test.name, got, test.want)
		}
	}
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gprof

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const flatHeader = `Flat profile:

Each sample counts as 0.01 seconds.
  %   cumulative   self              self     total
 time   seconds   seconds    calls  ms/call  ms/call  name
`

const flatRows = ` 19.81     10.22    10.22    62500     0.00     0.00  EnthalpyAnalysis::CreateKMatrixVolume(Element*)
 12.40     16.62     6.40  1000000     0.01     0.01  GaussPenta::GaussPoint(int)
  7.00     20.23     3.61                             main
  this line is garbage
  2.10     21.31     1.08     3000     0.36     0.36  Matrix::Echo()
`

const graph = `index % time    self  children    called     name
                                                 <spontaneous>
[1]     98.1    0.00   50.61                 main [1]
                0.00   50.61       1/1           execute(int, char**) [2]
-----------------------------------------------
                0.00   50.61       1/1           main [1]
[2]     98.1    0.00   50.61       1         execute(int, char**) [2]
               10.22   20.00   62500/62500       EnthalpyAnalysis::CreateKMatrixVolume(Element*) [3]
                6.40    0.00 1000000/1000000     GaussPenta::GaussPoint(int) [4]
-----------------------------------------------
                0.00   30.22   62500/62500       execute(int, char**) [2]
[3]     59.7   10.22   20.00   62500+12      EnthalpyAnalysis::CreateKMatrixVolume(Element*) [3]
-----------------------------------------------
                6.40    0.00 1000000/1000000     execute(int, char**) [2]
                                                 <spontaneous>
                0.00    0.00       1/1           init [9]
[4]     12.6    6.40    0.00 1000000         GaussPenta::GaussPoint(int) [4]
-----------------------------------------------
                1.08    0.00    3000/3000        execute(int, char**) [2]
[5]      2.1    1.08    0.00    3000         Matrix::Echo() [5]
-----------------------------------------------

 This table describes the call tree of the program.
`

// legend returns the lines gprof prints between the flat profile and
// the call graph header.
func legend() string {
	var b strings.Builder
	for i := 0; i < callGraphOffset-2; i++ {
		fmt.Fprintf(&b, " legend line %d\n", i)
	}
	return b.String()
}

func report() string {
	return flatHeader + flatRows + "\n" + legend() + graph
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func ip(v int) *int          { return &v }

func TestParse(t *testing.T) {
	got, err := Parse(strings.NewReader(report()), DefaultThreshold)
	if err != nil {
		t.Fatal(err)
	}

	wantFlat := []FlatEntry{
		{Percent: 19.81, CumulativeSeconds: 10.22, SelfSeconds: 10.22, Calls: i64(62500), SelfMsPerCall: f64(0), TotalMsPerCall: f64(0), Name: "EnthalpyAnalysis::CreateKMatrixVolume(Element*)"},
		{Percent: 12.40, CumulativeSeconds: 16.62, SelfSeconds: 6.40, Calls: i64(1000000), SelfMsPerCall: f64(0.01), TotalMsPerCall: f64(0.01), Name: "GaussPenta::GaussPoint(int)"},
		{Percent: 7.00, CumulativeSeconds: 20.23, SelfSeconds: 3.61, Name: "main"},
		{Malformed: true, Raw: "  this line is garbage"},
	}
	if diff := cmp.Diff(wantFlat, got.Flat); diff != "" {
		t.Errorf("flat profile mismatch (-want +got):\n%s", diff)
	}

	wantGraph := []Node{
		{Index: 1, Percent: 98.1, SelfSeconds: 0, ChildSeconds: 50.61, Name: "main", Parents: []*int{nil}, Children: []int{2}},
		{Index: 2, Percent: 98.1, SelfSeconds: 0, ChildSeconds: 50.61, Called: i64(1), Name: "execute(int, char**)", Parents: []*int{ip(1)}, Children: []int{3, 4}},
		{Index: 3, Percent: 59.7, SelfSeconds: 10.22, ChildSeconds: 20, Called: i64(62500), SelfRecursive: i64(12), Name: "EnthalpyAnalysis::CreateKMatrixVolume(Element*)", Parents: []*int{ip(2)}},
		{Index: 4, Percent: 12.6, SelfSeconds: 6.40, ChildSeconds: 0, Name: "GaussPenta::GaussPoint(int)", Parents: []*int{ip(2), nil, nil}},
	}
	if diff := cmp.Diff(wantGraph, got.CallGraph); diff != "" {
		t.Errorf("call graph mismatch (-want +got):\n%s", diff)
	}
	if len(got.Warnings) != 1 {
		t.Errorf("warnings = %q, want one for the malformed row", got.Warnings)
	}
}

func TestParseThresholdMonotonic(t *testing.T) {
	prev := -1
	for _, th := range []float64{0, 1, 2.5, 5, 10, 15, 50, 99, 100} {
		prof, err := Parse(strings.NewReader(report()), th)
		if err != nil {
			t.Fatalf("threshold %v: %v", th, err)
		}
		n := len(prof.Flat) + len(prof.CallGraph)
		if prev >= 0 && n > prev {
			t.Errorf("threshold %v retains %d entries, more than %d at a lower threshold", th, n, prev)
		}
		prev = n
	}
}

func TestParseZeroThreshold(t *testing.T) {
	prof, err := Parse(strings.NewReader(report()), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(prof.Flat) != 5 || len(prof.CallGraph) != 5 {
		t.Errorf("got %d flat entries and %d nodes, want 5 and 5", len(prof.Flat), len(prof.CallGraph))
	}
}

func TestParseNoCallGraph(t *testing.T) {
	for _, in := range []string{
		flatHeader + flatRows,
		flatHeader + flatRows + "\n\n",
	} {
		prof, err := Parse(strings.NewReader(in), DefaultThreshold)
		if err != nil {
			t.Errorf("Parse: %v", err)
			continue
		}
		if len(prof.Flat) != 4 || len(prof.CallGraph) != 0 {
			t.Errorf("got %d flat entries and %d nodes, want 4 and 0", len(prof.Flat), len(prof.CallGraph))
		}
	}
}

func TestParseMisaligned(t *testing.T) {
	for name, in := range map[string]string{
		"short legend": flatHeader + flatRows + "\n" + legend()[:len(legend())-len(" legend line 37\n")] + graph,
		"long legend":  flatHeader + flatRows + "\n" + " extra\n" + legend() + graph,
		"truncated":    flatHeader + flatRows + "\n" + " legend line 0\n",
		"no primary":   flatHeader + flatRows + "\n" + legend() + "index % time    self  children    called     name\n      caller [1]\n-----\n",
	} {
		_, err := Parse(strings.NewReader(in), DefaultThreshold)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%s: error = %v, want *SyntaxError", name, err)
		}
	}
}

func TestTrailingIndex(t *testing.T) {
	for _, test := range []struct {
		in   string
		want int
		ok   bool
	}{
		{"main [1]", 1, true},
		{"foo(int) [123]", 123, true},
		{"<cycle 1 as a whole> [7]", 7, true},
		{"<spontaneous>", 0, false},
		{"foo [x]", 0, false},
		{"foo", 0, false},
	} {
		got, ok := trailingIndex(test.in)
		if got != test.want || ok != test.ok {
			t.Errorf("trailingIndex(%q) = %d, %v, want %d, %v", test.in, got, ok, test.want, test.ok)
		}
	}
}

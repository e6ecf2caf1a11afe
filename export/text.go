// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/perf/benchunit"

	"github.com/peng-hpc/runanalysis/analyzer"
	"github.com/peng-hpc/runanalysis/internal/texttab"
)

// seconds formats a duration in seconds with three significant digits.
func seconds(v *float64) string {
	if v == nil {
		return ""
	}
	return benchunit.Scale(*v, benchunit.Decimal) + "s"
}

// status summarizes the outcome of a job.
func status(j *analyzer.Job, r *analyzer.JobResult) string {
	s := "ok"
	switch {
	case r == nil || r.Timing == nil:
		s = "no timing"
	case !r.Timing.Ran:
		s = "not run"
	}
	if n := len(j.Errors); n == 1 {
		s += ", 1 error"
	} else if n > 1 {
		s += fmt.Sprintf(", %d errors", n)
	}
	return s
}

// WriteText writes a plain text summary of doc to w: a table of jobs,
// the rank comparison, the environment, and any warnings.
func WriteText(w io.Writer, doc *analyzer.Document) error {
	var jobs texttab.Table
	jobs.Row().Cell("job").Cell("app").Cell("resolution").Cell("compiler").
		Cell("ranks", texttab.Right).Cell("compute", texttab.Right).Cell("setup", texttab.Right).
		Cell("total").Cell("status")
	for _, id := range doc.JobIDs() {
		j := doc.Jobs[id]
		r := doc.Results.ByJob[id]
		s := j.Settings
		jobs.Row().Cell(id).Cell(string(s.App)).Cell(string(s.Resolution)).Cell(string(s.Compiler)).
			Cell(strconv.Itoa(s.MPIRanks), texttab.Right)
		if r != nil && r.Timing != nil {
			jobs.Cell(seconds(r.Timing.ComputeSeconds), texttab.Right).
				Cell(seconds(r.Timing.SetupSeconds), texttab.Right).
				Cell(r.Timing.TotalTime)
		} else {
			jobs.Cell("").Cell("").Cell("")
		}
		jobs.Cell(status(j, r))
	}
	bw := bufio.NewWriter(w)
	if err := jobs.Format(bw); err != nil {
		return err
	}

	if c := doc.Results.MPICompare; c != nil {
		fmt.Fprintf(bw, "\nspeedup to %d ranks\n", c.Baseline)
		var ct texttab.Table
		ct.Row().Cell("ranks", texttab.Right).Cell("compute", texttab.Right).Cell("speedup", texttab.Right)
		for _, e := range c.Entries {
			ct.Row().Cell(strconv.Itoa(e.Ranks), texttab.Right).Cell(seconds(&e.ComputeSeconds), texttab.Right)
			if e.Speedup != nil {
				ct.Cell(strconv.FormatFloat(*e.Speedup, 'f', 3, 64), texttab.Right)
			}
		}
		if err := ct.Format(bw); err != nil {
			return err
		}
		fmt.Fprintf(bw, "average compute %s\n", seconds(&c.AverageSeconds))
	}

	if doc.Environment.IsStatic {
		fmt.Fprintf(bw, "\nenvironment: static\n")
	} else {
		fmt.Fprintf(bw, "\nenvironment: varies\n")
	}
	if len(doc.Warnings) > 0 {
		fmt.Fprintf(bw, "\nwarnings:\n")
		for _, msg := range doc.Warnings {
			fmt.Fprintf(bw, "\t%s\n", msg)
		}
	}
	return bw.Flush()
}

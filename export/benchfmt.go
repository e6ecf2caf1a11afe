// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/perf/benchfmt"

	"github.com/peng-hpc/runanalysis/analyzer"
	"github.com/peng-hpc/runanalysis/runconfig"
)

// Units of the benchmark values written by WriteBenchfmt.
const (
	UnitCompute  = "sec/op"
	UnitSetup    = "setup-sec/op"
	UnitElements = "elements"
	UnitLoops    = "loops"
)

// WriteBenchfmt writes the timings of doc to w in the Go benchmark
// format, so that runs can be compared with benchstat.
//
// Every job that ran yields one result named "Timing/ranks=N", with the
// selection and toolchain of the job as file configuration. Jobs
// without a timing are omitted.
func WriteBenchfmt(w io.Writer, doc *analyzer.Document) error {
	bw := benchfmt.NewWriter(w)
	for _, res := range Results(doc) {
		if err := bw.Write(res); err != nil {
			return err
		}
	}
	return nil
}

// Results returns the benchmark results WriteBenchfmt writes for doc,
// in job id order.
func Results(doc *analyzer.Document) []*benchfmt.Result {
	var out []*benchfmt.Result
	for _, id := range doc.JobIDs() {
		jr := doc.Results.ByJob[id]
		if jr == nil || jr.Timing == nil || !jr.Timing.Ran || jr.Timing.ComputeSeconds == nil {
			continue
		}
		t := jr.Timing
		s := doc.Jobs[id].Settings
		res := &benchfmt.Result{
			Config: fileConfig(s),
			Name:   benchfmt.Name(fmt.Sprintf("Timing/ranks=%d", s.MPIRanks)),
			Iters:  1,
			Values: []benchfmt.Value{{Value: *t.ComputeSeconds, Unit: UnitCompute}},
		}
		if t.SetupSeconds != nil {
			res.Values = append(res.Values, benchfmt.Value{Value: *t.SetupSeconds, Unit: UnitSetup})
		}
		if t.ElementsAvg != nil {
			res.Values = append(res.Values, benchfmt.Value{Value: *t.ElementsAvg, Unit: UnitElements})
		}
		if t.LoopsAvg != nil {
			res.Values = append(res.Values, benchfmt.Value{Value: *t.LoopsAvg, Unit: UnitLoops})
		}
		out = append(out, res)
	}
	return out
}

func fileConfig(s runconfig.Record) []benchfmt.Config {
	var cfg []benchfmt.Config
	add := func(key, val string) {
		// Configuration values end at the line.
		val = strings.Join(strings.Fields(val), " ")
		if val != "" {
			cfg = append(cfg, benchfmt.Config{Key: key, Value: []byte(val), File: true})
		}
	}
	add("app", string(s.App))
	add("resolution", string(s.Resolution))
	add("compiler", string(s.Compiler))
	add("cflags", s.CFlags)
	add("cpu", s.CPUModel)
	add("network", s.NetworkFabric)
	return cfg
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analyzer

import (
	"encoding/json"
	"sort"

	"github.com/peng-hpc/runanalysis/callgrind"
	"github.com/peng-hpc/runanalysis/gprof"
	"github.com/peng-hpc/runanalysis/runconfig"
	"github.com/peng-hpc/runanalysis/speedup"
	"github.com/peng-hpc/runanalysis/timinglog"
	"github.com/peng-hpc/runanalysis/vecreport"
)

// A Document is the analysis of a batch of runs.
type Document struct {
	Environment runconfig.Environment `json:"environment"`
	Jobs        map[string]*Job       `json:"jobs"`
	Results     Results               `json:"results"`

	// Warnings lists the runs and files that were skipped.
	Warnings []string `json:"warnings,omitempty"`
}

// A Job describes the artifacts of one job that were analyzed.
type Job struct {
	ID  string `json:"job_id"`
	Dir string `json:"dir"`

	// Files lists the analyzed artifact files.
	Files []string `json:"files"`

	// Settings is the configuration of the job, without a result
	// file.
	Settings runconfig.Record `json:"settings"`

	// Errors lists artifacts that could not be read.
	Errors []string `json:"errors,omitempty"`
}

// A JobResult holds the metrics of one job, by tool.
type JobResult struct {
	Timing        *timinglog.Result `json:"timing,omitempty"`
	CallProfile   *gprof.Profile    `json:"call_profile,omitempty"`
	Vectorization vecreport.Report  `json:"vectorization,omitempty"`
	CacheProfile  *callgrind.Entry  `json:"cache_profile,omitempty"`
}

// Results holds the per-job metrics and the rank comparison.
//
// It encodes as a single JSON object keyed by job id, with the rank
// comparison under "mpi_compare".
type Results struct {
	ByJob map[string]*JobResult

	// MPICompare is set if timings for more than one rank count were
	// found.
	MPICompare *speedup.Comparison
}

// Job ids are numeric (see artifact.ParseRunDir), so none can equal
// mpiCompareKey.
const mpiCompareKey = "mpi_compare"

func (r Results) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.ByJob)+1)
	for id, jr := range r.ByJob {
		m[id] = jr
	}
	if r.MPICompare != nil {
		m[mpiCompareKey] = r.MPICompare
	}
	return json.Marshal(m)
}

// JobIDs returns the ids of d's jobs in sorted order.
func (d *Document) JobIDs() []string {
	ids := make([]string, 0, len(d.Jobs))
	for id := range d.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analyzer turns the run directories of a batch of cluster jobs
// into a single Document.
//
// Analyze classifies every file of every run directory, hands each
// artifact to the parser for its tool, checks whether all runs shared
// one environment, and compares compute times across rank counts.
// Problems with a single run or file are reported as warnings or as
// errors of the affected job; they never abort the batch.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/peng-hpc/runanalysis/artifact"
	"github.com/peng-hpc/runanalysis/callgrind"
	"github.com/peng-hpc/runanalysis/gprof"
	"github.com/peng-hpc/runanalysis/runconfig"
	"github.com/peng-hpc/runanalysis/speedup"
	"github.com/peng-hpc/runanalysis/timinglog"
	"github.com/peng-hpc/runanalysis/vecreport"
)

// A Run is a finished run directory together with the metadata the
// job runner recorded for it.
type Run struct {
	Dir   string         `yaml:"dir"`
	Build map[string]any `yaml:"build"`
	Job   map[string]any `yaml:"job"`
}

// Options controls Analyze.
type Options struct {
	// Threshold is the call profile percentage below which entries
	// are dropped.
	Threshold float64

	// Comparator decides whether two records share an environment.
	// If nil, runconfig.Comparable is used.
	Comparator runconfig.Comparator

	// VecFilter restricts vectorization reports to source paths
	// containing it.
	VecFilter string

	// Warn, if non-nil, is called for every warning added to the
	// Document.
	Warn func(format string, args ...interface{})

	// Parallelism bounds the number of jobs parsed concurrently.
	// Values <= 0 mean no bound.
	Parallelism int
}

// DefaultOptions returns the Options used by the runanalyze command.
func DefaultOptions() *Options {
	return &Options{
		Threshold:   gprof.DefaultThreshold,
		Comparator:  runconfig.Comparable,
		Parallelism: 8,
		Warn: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
}

// A file is one classified artifact and its configuration.
type file struct {
	path string
	art  *artifact.Artifact
	rec  runconfig.Record
}

// A bucket holds the artifacts of one job.
type bucket struct {
	job   *Job
	files []file
}

type analysis struct {
	opts    *Options
	doc     *Document
	buckets map[string]*bucket
	records []runconfig.Record
}

func (a *analysis) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	a.doc.Warnings = append(a.doc.Warnings, msg)
	if a.opts.Warn != nil {
		a.opts.Warn("%s", msg)
	}
}

// Analyze analyzes runs.
//
// Analyze returns an error only if ctx is canceled. Runs and files that
// cannot be used are skipped with a warning, and artifacts that cannot
// be read are recorded in the Errors of their job.
func Analyze(ctx context.Context, runs []Run, opts *Options) (*Document, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	a := &analysis{
		opts: opts,
		doc: &Document{
			Jobs:    make(map[string]*Job),
			Results: Results{ByJob: make(map[string]*JobResult)},
		},
		buckets: make(map[string]*bucket),
	}
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.collect(run)
	}

	ids := make([]string, 0, len(a.buckets))
	for id := range a.buckets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Jobs are independent, so they are parsed concurrently. Each
	// goroutine writes only its own slot.
	results := make([]*JobResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, id := range ids {
		i, b := i, a.buckets[id]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = parseJob(b, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		a.doc.Jobs[id] = a.buckets[id].job
		a.doc.Results.ByJob[id] = results[i]
	}

	a.doc.Environment = runconfig.CheckStatic(a.records, opts.Comparator)
	a.compareRanks(ids)
	return a.doc, nil
}

// collect classifies the files of run into buckets.
func (a *analysis) collect(run Run) {
	_, jobID, err := artifact.ParseRunDir(filepath.Base(filepath.Clean(run.Dir)))
	if err != nil {
		a.warn("skipping run %s: %v", run.Dir, err)
		return
	}
	base, err := runconfig.FromMetadata(run.Build, run.Job)
	if err != nil {
		a.warn("skipping run %s: %v", run.Dir, err)
		return
	}
	base.JobID = jobID
	ents, err := os.ReadDir(run.Dir)
	if err != nil {
		a.warn("skipping run %s: %v", run.Dir, err)
		return
	}

	b := a.buckets[jobID]
	if b == nil {
		b = &bucket{job: &Job{ID: jobID, Dir: run.Dir, Settings: base}}
		a.buckets[jobID] = b
	} else {
		a.warn("run %s repeats job id %s of %s", run.Dir, jobID, b.job.Dir)
	}

	first := len(b.files) == 0
	for _, ent := range ents {
		if !ent.Type().IsRegular() {
			continue
		}
		art, err := artifact.Classify(ent.Name())
		if err != nil {
			a.warn("skipping file in %s: %v", run.Dir, err)
			continue
		}
		if art.Kind == artifact.Unknown {
			continue
		}
		art.JobID = jobID

		path := filepath.Join(run.Dir, ent.Name())
		rec := base.WithResultFile(path)
		rec.App = art.App
		rec.Resolution = art.Resolution
		rec.Compiler = art.Compiler
		rec.MPIRanks = art.MPIRanks
		a.records = append(a.records, rec)

		if first {
			b.job.Settings = rec.WithResultFile("")
			first = false
		}
		b.files = append(b.files, file{path, art, rec})
	}
}

// parseJob runs the parser of every tool that left artifacts in b.
func parseJob(b *bucket, opts *Options) *JobResult {
	res := new(JobResult)
	job := b.job
	fail := func(path string, err error) {
		job.Errors = append(job.Errors, fmt.Sprintf("%s: %v", path, err))
	}

	var stdout, stderr, cgOut, cgCore *file
	var profiles, reports []*file
	for i := range b.files {
		f := &b.files[i]
		switch f.art.Kind {
		case artifact.Stdout:
			if stdout != nil {
				fail(f.path, fmt.Errorf("second standard output log, using %s", stdout.path))
				continue
			}
			stdout = f
		case artifact.Stderr:
			if stderr == nil {
				stderr = f
			}
		case artifact.CallProfile:
			profiles = append(profiles, f)
		case artifact.VecReport:
			reports = append(reports, f)
		case artifact.CallgrindOut:
			cgOut = f
		case artifact.CallgrindCore:
			cgCore = f
		default:
			// Job scripts and logs of Valgrind runs carry no metrics.
			continue
		}
		job.Files = append(job.Files, f.path)
	}

	if stdout != nil {
		errPath := ""
		if stderr != nil {
			errPath = stderr.path
		}
		t, err := timinglog.ParseFile(stdout.path, errPath, stdout.rec.App)
		if err != nil {
			fail(stdout.path, err)
		} else {
			res.Timing = t
		}
	}

	for _, f := range profiles {
		if res.CallProfile != nil {
			fail(f.path, errors.New("second call profile"))
			continue
		}
		p, err := gprof.ParseFile(f.path, opts.Threshold)
		if err != nil {
			fail(f.path, err)
			continue
		}
		res.CallProfile = p
	}

	if len(reports) > 0 {
		vp := vecreport.Parser{PathFilter: opts.VecFilter}
		for _, f := range reports {
			if err := parseReport(&vp, f.path); err != nil {
				fail(f.path, err)
			}
		}
		res.Vectorization = vp.Report()
	}

	if cgOut != nil || cgCore != nil {
		var out, core string
		if cgOut != nil {
			out = cgOut.path
		}
		if cgCore != nil {
			core = cgCore.path
		}
		res.CacheProfile = callgrind.Describe(out, core)
	}
	return res
}

func parseReport(p *vecreport.Parser, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.Parse(f)
}

// compareRanks compares compute times across rank counts if more than
// one rank count has a timing.
func (a *analysis) compareRanks(ids []string) {
	times := make(map[int]float64)
	from := make(map[int]string)
	for _, id := range ids {
		t := a.doc.Results.ByJob[id].Timing
		if t == nil || !t.Ran || t.ComputeSeconds == nil {
			continue
		}
		ranks := a.doc.Jobs[id].Settings.MPIRanks
		if prev, ok := from[ranks]; ok {
			a.warn("job %s repeats %d ranks of job %s, using job %s", id, ranks, prev, prev)
			continue
		}
		times[ranks] = *t.ComputeSeconds
		from[ranks] = id
	}
	if len(times) < 2 {
		return
	}
	c, err := speedup.Compute(times)
	if err != nil {
		a.warn("comparing ranks: %v", err)
		return
	}
	a.doc.Results.MPICompare = c
}

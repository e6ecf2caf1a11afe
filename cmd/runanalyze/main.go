// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Runanalyze analyzes the run directories of a batch of cluster jobs
// and writes the result document.
//
// Usage:
//
//	runanalyze [flags] manifest.yaml
//	runanalyze [flags] rundir...
//
// A manifest lists the run directories together with the build and
// job metadata recorded when the jobs were submitted. Run directories
// given directly are analyzed with the default metadata.
//
// The document is saved as indented JSON to <out>/<name>.json, and a
// summary is printed to standard output in the format selected by
// -format: text (default), json, benchfmt or none. The benchfmt format
// can be compared across batches with benchstat.
//
// Optionally, the document is also rendered as HTML (-html), its rank
// comparison as a chart (-chart), inserted into a result database
// (-db), and uploaded to a Cloud Storage bucket (-gcs).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/peng-hpc/runanalysis/analyzer"
	"github.com/peng-hpc/runanalysis/export"
	"github.com/peng-hpc/runanalysis/resultdb"
	_ "github.com/peng-hpc/runanalysis/resultdb/sqlite3"
	"github.com/peng-hpc/runanalysis/runconfig"
	"github.com/peng-hpc/runanalysis/speedup"
)

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), `Usage: runanalyze [flags] manifest.yaml
       runanalyze [flags] rundir...

runanalyze analyzes the run directories of a batch of jobs and saves
the result document as JSON.

`)
		fs.PrintDefaults()
	}
}

func main() {
	log.SetPrefix("runanalyze: ")
	log.SetFlags(0)
	if err := runanalyze(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func runanalyze(ctx context.Context, w, wErr io.Writer, args []string) error {
	fs := flag.NewFlagSet("runanalyze", flag.ContinueOnError)
	fs.SetOutput(wErr)
	fs.Usage = usage(fs)
	var (
		flagOut       = fs.String("o", "RESULTS", "save the JSON document in `dir`")
		flagName      = fs.String("name", "", "result `name` (default: the manifest name, or the first run directory)")
		flagFormat    = fs.String("format", "text", "print the document as `format`: text, json, benchfmt or none")
		flagThreshold = fs.Float64("threshold", analyzer.DefaultOptions().Threshold, "drop call profile entries below `percent` of the run time")
		flagBroad     = fs.Bool("broad", false, "ignore source paths and compiler flags when checking for a shared environment")
		flagVecFilter = fs.String("vec-filter", "", "report vectorization only for source paths containing `substr`")
		flagJobs      = fs.Int("j", analyzer.DefaultOptions().Parallelism, "parse up to `n` jobs concurrently")
		flagHTML      = fs.String("html", "", "write an HTML summary to `file`")
		flagChart     = fs.String("chart", "", "draw the rank comparison to `file` (.png, .svg or .pdf)")
		flagDBDriver  = fs.String("db-driver", "sqlite3", "result database `driver`: sqlite3 or mysql")
		flagDB        = fs.String("db", "", "insert the document into the result database at `dsn`")
		flagGCS       = fs.String("gcs", "", "upload the document to Cloud Storage `bucket`")
		flagGCSCreds  = fs.String("gcs-credentials", "", "Cloud Storage credentials `file` (default: application default credentials)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	switch *flagFormat {
	case "text", "json", "benchfmt", "none":
	default:
		return fmt.Errorf("unknown format %q", *flagFormat)
	}

	name, runs, err := loadRuns(fs.Args())
	if err != nil {
		return err
	}
	if *flagName != "" {
		name = *flagName
	}

	opts := analyzer.DefaultOptions()
	opts.Threshold = *flagThreshold
	opts.VecFilter = *flagVecFilter
	opts.Parallelism = *flagJobs
	if *flagBroad {
		opts.Comparator = runconfig.ComparableBroad
	}
	opts.Warn = func(format string, args ...interface{}) {
		fmt.Fprintf(wErr, format+"\n", args...)
	}
	doc, err := analyzer.Analyze(ctx, runs, opts)
	if err != nil {
		return err
	}

	path, err := export.SaveJSON(*flagOut, name, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(wErr, "saved %s\n", path)

	switch *flagFormat {
	case "text":
		err = export.WriteText(w, doc)
	case "json":
		err = export.WriteJSON(w, doc)
	case "benchfmt":
		err = export.WriteBenchfmt(w, doc)
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if *flagHTML != "" {
		if err := writeFile(*flagHTML, func(w io.Writer) error { return export.WriteHTML(w, name, doc) }); err != nil {
			return err
		}
	}
	if *flagChart != "" {
		if c := doc.Results.MPICompare; c == nil {
			fmt.Fprintf(wErr, "no rank comparison, not drawing %s\n", *flagChart)
		} else if err := speedup.Chart(c, *flagChart); err != nil {
			return err
		}
	}
	if *flagDB != "" {
		db, err := resultdb.OpenSQL(*flagDBDriver, *flagDB)
		if err != nil {
			return fmt.Errorf("opening result database: %w", err)
		}
		id, err := db.Insert(ctx, name, doc)
		db.Close()
		if err != nil {
			return fmt.Errorf("inserting result: %w", err)
		}
		fmt.Fprintf(wErr, "inserted result %d\n", id)
	}
	if *flagGCS != "" {
		gcs, err := export.NewGCS(ctx, *flagGCS, *flagGCSCreds)
		if err != nil {
			return err
		}
		defer gcs.Close()
		objs, err := export.Store(ctx, gcs, name, doc, true)
		if err != nil {
			return fmt.Errorf("uploading to %s: %w", *flagGCS, err)
		}
		for _, obj := range objs {
			fmt.Fprintf(wErr, "uploaded gs://%s/%s\n", *flagGCS, obj)
		}
	}
	return nil
}

// loadRuns returns the result name and runs described by args: a
// single manifest file, or run directories.
func loadRuns(args []string) (string, []analyzer.Run, error) {
	if len(args) == 1 && isManifest(args[0]) {
		m, err := analyzer.LoadManifestFile(args[0])
		if err != nil {
			return "", nil, err
		}
		name := m.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		return name, m.Runs, nil
	}
	var runs []analyzer.Run
	for _, dir := range args {
		runs = append(runs, analyzer.Run{Dir: dir})
	}
	return filepath.Base(filepath.Clean(args[0])), runs, nil
}

func isManifest(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

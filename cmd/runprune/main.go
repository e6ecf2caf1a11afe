// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Runprune removes run directories that are not part of any result.
//
// Usage:
//
//	runprune [flags] outdir
//
// Runprune collects the job ids of every saved result document below
// the -results directory and, with -db, of every result stored in a
// result database. Each run directory in outdir whose job id is not
// among them is reported. Directories are only removed with -delete.
// Directories without a job id belong to unfinished runs and are
// always kept.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/go-sql-driver/mysql"

	"github.com/peng-hpc/runanalysis/artifact"
	"github.com/peng-hpc/runanalysis/export"
	"github.com/peng-hpc/runanalysis/resultdb"
	_ "github.com/peng-hpc/runanalysis/resultdb/sqlite3"
)

func main() {
	log.SetPrefix("runprune: ")
	log.SetFlags(0)
	if err := runprune(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func runprune(ctx context.Context, w, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("runprune", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: runprune [flags] outdir\n\n")
		flags.PrintDefaults()
	}
	var (
		flagResults  = flags.String("results", "RESULTS", "read saved result documents below `dir`")
		flagDBDriver = flags.String("db-driver", "sqlite3", "result database `driver`: sqlite3 or mysql")
		flagDB       = flags.String("db", "", "also keep the jobs of results in the database at `dsn`")
		flagDelete   = flags.Bool("delete", false, "remove unreferenced run directories instead of listing them")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return flag.ErrHelp
	}

	keep, err := resultJobs(*flagResults)
	if err != nil {
		return err
	}
	if *flagDB != "" {
		db, err := resultdb.OpenSQL(*flagDBDriver, *flagDB)
		if err != nil {
			return fmt.Errorf("opening result database: %w", err)
		}
		ids, err := db.JobIDs(ctx)
		db.Close()
		if err != nil {
			return err
		}
		for _, id := range ids {
			keep[id] = true
		}
	}
	if len(keep) == 0 {
		return errors.New("no result references any job; refusing to prune")
	}

	p, err := plan(flags.Arg(0), keep)
	if err != nil {
		return err
	}
	for _, dir := range p.keep {
		fmt.Fprintf(w, "keep %s\n", dir)
	}
	for _, dir := range p.remove {
		if !*flagDelete {
			fmt.Fprintf(w, "would delete %s\n", dir)
			continue
		}
		if err := os.RemoveAll(filepath.Join(flags.Arg(0), dir)); err != nil {
			return err
		}
		fmt.Fprintf(w, "deleted %s\n", dir)
	}
	return nil
}

// resultJobs returns the job ids referenced by the JSON result
// documents below dir. A missing dir references nothing.
func resultJobs(dir string) (map[string]bool, error) {
	keep := make(map[string]bool)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		ids, err := export.JobIDs(f)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, id := range ids {
			keep[id] = true
		}
		return nil
	})
	return keep, err
}

type prunePlan struct {
	keep, remove []string
}

// plan sorts the run directories in outDir into those to keep and
// those to remove.
func plan(outDir string, keep map[string]bool) (*prunePlan, error) {
	ents, err := os.ReadDir(outDir)
	if err != nil {
		return nil, err
	}
	p := new(prunePlan)
	for _, ent := range ents {
		if !ent.IsDir() {
			continue
		}
		_, id, err := artifact.ParseRunDir(ent.Name())
		if err != nil || keep[id] {
			p.keep = append(p.keep, ent.Name())
			continue
		}
		p.remove = append(p.remove, ent.Name())
	}
	sort.Strings(p.keep)
	sort.Strings(p.remove)
	return p, nil
}

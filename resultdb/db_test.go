// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resultdb_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/peng-hpc/runanalysis/analyzer"
	. "github.com/peng-hpc/runanalysis/resultdb"
	"github.com/peng-hpc/runanalysis/resultdb/dbtest"
	"github.com/peng-hpc/runanalysis/runconfig"
	"github.com/peng-hpc/runanalysis/timinglog"
)

func doc(compute map[string]float64, ids ...string) *analyzer.Document {
	d := &analyzer.Document{
		Jobs:    make(map[string]*analyzer.Job),
		Results: analyzer.Results{ByJob: make(map[string]*analyzer.JobResult)},
	}
	for i, id := range ids {
		d.Jobs[id] = &analyzer.Job{
			ID:  id,
			Dir: "/runs/ISSM-MINIAPP-THERMAL_G16000_GCC." + id,
			Settings: runconfig.Record{
				JobID:      id,
				App:        runconfig.AppMiniappThermal,
				Resolution: runconfig.G16000,
				Compiler:   runconfig.GCC,
				MPIRanks:   1 << i,
			},
		}
		jr := new(analyzer.JobResult)
		if c, ok := compute[id]; ok {
			jr.Timing = &timinglog.Result{Ran: true, ComputeSeconds: &c}
		}
		d.Results.ByJob[id] = jr
	}
	return d
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)
	defer SetNow(time.Time{})
	SetNow(time.Unix(86400, 0))

	id1, err := db.Insert(ctx, "thermal", doc(map[string]float64{"1001": 10}, "1001", "1002"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id2, err := db.Insert(ctx, "stress", doc(nil, "1002", "1003"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id1 == id2 {
		t.Fatalf("both results got id %d", id1)
	}

	sums, err := db.Results(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []Summary{
		{ID: id1, Name: "thermal", Created: "1970-01-02T00:00:00Z", Jobs: 2},
		{ID: id2, Name: "stress", Created: "1970-01-02T00:00:00Z", Jobs: 2},
	}
	if diff := cmp.Diff(want, sums); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%s", diff)
	}

	ids, err := db.JobIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1001", "1002", "1003"}, ids); diff != "" {
		t.Errorf("JobIDs mismatch (-want +got):\n%s", diff)
	}

	jobs, err := db.Jobs(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	ten := 10.0
	wantJobs := []JobRow{
		{id1, "1001", "/runs/ISSM-MINIAPP-THERMAL_G16000_GCC.1001", "ISSM-MINIAPP-THERMAL", "G16000", "GCC", 1, &ten},
		{id1, "1002", "/runs/ISSM-MINIAPP-THERMAL_G16000_GCC.1002", "ISSM-MINIAPP-THERMAL", "G16000", "GCC", 2, nil},
	}
	if diff := cmp.Diff(wantJobs, jobs); diff != "" {
		t.Errorf("Jobs mismatch (-want +got):\n%s", diff)
	}

	content, err := db.Content(ctx, id2)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Jobs map[string]json.RawMessage `json:"jobs"`
	}
	if err := json.Unmarshal(content, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Jobs) != 2 {
		t.Errorf("stored document has %d jobs, want 2", len(got.Jobs))
	}
}

func TestInsertEmpty(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)
	id, err := db.Insert(ctx, "empty", doc(nil))
	if err != nil {
		t.Fatal(err)
	}
	jobs, err := db.Jobs(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("empty result has jobs %v", jobs)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)
	id, err := db.Insert(ctx, "thermal", doc(nil, "1001"))
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, err := db.CountResults(ctx); err != nil || n != 0 {
		t.Errorf("CountResults = %d, %v, want 0", n, err)
	}
	if ids, err := db.JobIDs(ctx); err != nil || len(ids) != 0 {
		t.Errorf("JobIDs after Delete = %v, %v, want none", ids, err)
	}
	if err := db.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	if _, err := db.Content(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Content of deleted result error = %v, want ErrNotFound", err)
	}
}

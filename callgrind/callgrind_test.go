// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package callgrind

import "testing"

func TestDescribe(t *testing.T) {
	e := Describe("run/x.callgrind-out", "run/x.callgrind-vgcore")
	want := Entry{
		OutFile:  "run/x.callgrind-out",
		CoreFile: "run/x.callgrind-vgcore",
		Viewer:   "kcachegrind run/x.callgrind-out",
		Annotate: "callgrind_annotate run/x.callgrind-out",
	}
	if *e != want {
		t.Errorf("Describe = %+v, want %+v", *e, want)
	}

	if e := Describe("", "core"); e.Viewer != "" || e.Annotate != "" || e.CoreFile != "core" {
		t.Errorf("Describe without out file = %+v", *e)
	}
}

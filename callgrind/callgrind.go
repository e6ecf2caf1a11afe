// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package callgrind records where Valgrind's callgrind tool left its
// output. The binary profile is not parsed; Entry carries the commands
// that open it.
package callgrind

// An Entry points at the files of one callgrind run.
type Entry struct {
	OutFile  string `json:"out_file,omitempty"`
	CoreFile string `json:"core_file,omitempty"`

	// Viewer and Annotate are shell commands that display OutFile.
	Viewer   string `json:"viewer,omitempty"`
	Annotate string `json:"annotate,omitempty"`
}

// Describe returns the Entry for the given callgrind output and core
// files. Either may be empty.
func Describe(out, core string) *Entry {
	e := &Entry{OutFile: out, CoreFile: core}
	if out != "" {
		e.Viewer = "kcachegrind " + out
		e.Annotate = "callgrind_annotate " + out
	}
	return e
}

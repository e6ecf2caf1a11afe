// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package artifact classifies the files a finished cluster job leaves
// in its run directory.
//
// A run directory is named
//
//	<descriptor>.<job id>
//
// and every artifact file inside it is named
//
//	<APP>_<RESOLUTION>_<COMPILER>_MPI<N>[_<TOOL>].<ext>[.<runtime id>]
//
// A directory without a job id belongs to a run that is still in
// progress or was abandoned; ParseRunDir reports ErrRunIncomplete for
// it so callers can skip it.
package artifact

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peng-hpc/runanalysis/runconfig"
)

// Tool tokens that select an analysis.
const (
	ToolVecReport = "COMPILER-VEC-REPORT"
	ToolGprof     = "GPROF"
	ToolCallgrind = "VALGRIND-CALLGRIND"
	ToolVanilla   = "VANILLA"
)

// maxSegments is the number of underscore-separated name segments
// allowed before the extension.
const maxSegments = 5

// A Kind says what an artifact file contains.
type Kind int

const (
	Unknown Kind = iota
	Stdout
	Stderr
	JobScript
	VecReport
	CallProfile
	CallgrindOut
	CallgrindCore
	// Excluded is standard output or error of a run under a
	// Valgrind tool, whose timings are not representative.
	Excluded
)

var kindNames = []string{
	Unknown:       "unknown",
	Stdout:        "stdout",
	Stderr:        "stderr",
	JobScript:     "job",
	VecReport:     "vectorization",
	CallProfile:   "call_profile",
	CallgrindOut:  "callgrind_out",
	CallgrindCore: "callgrind_core",
	Excluded:      "excluded",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// An Artifact is a classified artifact file name.
type Artifact struct {
	// JobID is the job the artifact belongs to. Classify sets it
	// to RuntimeID; callers that know the run directory should
	// override it with the directory's job id.
	JobID string

	// RuntimeID is the numeric suffix after the extension, which
	// the batch system appends to standard output, standard error
	// and job script files. It is "" if there is no suffix.
	RuntimeID string

	App        runconfig.App
	Resolution runconfig.Resolution
	Compiler   runconfig.Compiler
	MPIRanks   int
	Tool       string // "" if the name has no tool segment
	Extension  string
	Kind       Kind
}

// A NamingError reports a file or directory name that does not follow
// the naming scheme.
type NamingError struct {
	Name string
	Msg  string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

// ErrRunIncomplete is returned by ParseRunDir for run directories that
// carry no job id.
var ErrRunIncomplete = errors.New("run directory has no job id")

// ParseRunDir splits a run directory name into its descriptor and job
// id at the first ".". Job ids are scheduler ids and must be decimal
// digits; anything else is a *NamingError.
func ParseRunDir(name string) (descriptor, jobID string, err error) {
	descriptor, jobID, ok := strings.Cut(name, ".")
	if !ok || jobID == "" {
		return "", "", fmt.Errorf("%s: %w", name, ErrRunIncomplete)
	}
	if _, err := strconv.ParseUint(jobID, 10, 64); err != nil {
		return "", "", &NamingError{name, fmt.Sprintf("job id %q is not numeric", jobID)}
	}
	return descriptor, jobID, nil
}

// Classify parses an artifact file name.
//
// It returns a *NamingError if name does not follow the naming scheme,
// and an error wrapping a *runconfig.LookupError if the app,
// resolution or compiler segment is not recognized.
func Classify(name string) (*Artifact, error) {
	stem, ext, ok := strings.Cut(name, ".")
	if !ok || stem == "" || ext == "" {
		return nil, &NamingError{name, "missing extension"}
	}
	a := new(Artifact)
	a.Extension, a.RuntimeID, _ = strings.Cut(ext, ".")
	if a.RuntimeID != "" {
		if _, err := strconv.ParseUint(a.RuntimeID, 10, 64); err != nil {
			return nil, &NamingError{name, fmt.Sprintf("runtime id %q is not numeric", a.RuntimeID)}
		}
	}
	a.JobID = a.RuntimeID

	segs := strings.Split(stem, "_")
	if len(segs) > maxSegments {
		return nil, &NamingError{name, fmt.Sprintf("too many name segments (%d > %d)", len(segs), maxSegments)}
	}
	if len(segs) < maxSegments-1 {
		return nil, &NamingError{name, fmt.Sprintf("too few name segments (%d < %d)", len(segs), maxSegments-1)}
	}

	mpi := segs[3]
	if !strings.HasPrefix(mpi, "MPI") {
		return nil, &NamingError{name, fmt.Sprintf("rank segment %q does not start with MPI", mpi)}
	}
	ranks, err := strconv.Atoi(mpi[len("MPI"):])
	if err != nil || ranks <= 0 || strings.HasPrefix(mpi[len("MPI"):], "+") {
		return nil, &NamingError{name, fmt.Sprintf("bad rank count in %q", mpi)}
	}
	a.MPIRanks = ranks
	if len(segs) == maxSegments {
		a.Tool = segs[4]
	}

	if a.App, err = runconfig.ParseApp(segs[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if a.Resolution, err = runconfig.ParseResolution(segs[1]); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if a.Compiler, err = runconfig.ParseCompiler(segs[2]); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	a.Kind = kindOf(a.Tool, a.Extension)
	return a, nil
}

func kindOf(tool, ext string) Kind {
	switch ext {
	case "out", "err":
		if strings.Contains(tool, "VALGRIND") {
			return Excluded
		}
		if ext == "out" {
			return Stdout
		}
		return Stderr
	case "job":
		return JobScript
	case "all", "opt", "miss":
		if tool == ToolVecReport {
			return VecReport
		}
	case "profile":
		if tool == ToolGprof {
			return CallProfile
		}
	case "callgrind-out":
		if tool == ToolCallgrind {
			return CallgrindOut
		}
	case "callgrind-vgcore":
		if tool == ToolCallgrind {
			return CallgrindCore
		}
	}
	return Unknown
}

// FileName returns the artifact file name for the given fields. tool
// and runtimeID may be empty.
func FileName(app runconfig.App, res runconfig.Resolution, compiler runconfig.Compiler, ranks int, tool, ext, runtimeID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s_%s_%s_MPI%d", app, res, compiler, ranks)
	if tool != "" {
		b.WriteString("_" + tool)
	}
	b.WriteString("." + ext)
	if runtimeID != "" {
		b.WriteString("." + runtimeID)
	}
	return b.String()
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runconfig describes the environment a simulation run was
// built and executed in, and decides when two runs can be compared.
//
// A Record holds every build, job and hardware parameter that can
// influence performance. Records are values: copying a Record yields
// an independent Record, and WithResultFile also clones the
// side-channel Extra map, so per-artifact copies never alias.
package runconfig

import "maps"

// A Record is the full configuration of one run, or of one artifact
// file produced by a run.
type Record struct {
	// Identifiers. These never take part in comparisons.
	ResultFile string `json:"result_file,omitempty"`
	JobID      string `json:"job_id"`
	SourcePath string `json:"source_path"`

	// Selection.
	App        App        `json:"app"`
	Resolution Resolution `json:"resolution"`
	Compiler   Compiler   `json:"compiler"`
	MPIRanks   int        `json:"mpi_num_ranks"`

	// Job resources.
	TimeLimit    string `json:"job_time_limit"`
	MemPerCPU    int    `json:"mem_per_cpu"`
	Tasks        int    `json:"number_of_tasks"`
	CPUFrequency string `json:"cpu_frequency_setting"`

	// Toolchain.
	GCCVersion            string `json:"gcc_version"`
	LLVMVersion           string `json:"llvm_version"`
	CFlags                string `json:"c_compiler_flags"`
	FortranFlags          string `json:"fortran_compiler_flags"`
	CXXFlags              string `json:"cxx_compiler_flags"`
	NumericLibraryVersion string `json:"petsc_version"`
	Instrumentation       bool   `json:"scorep_instrumentation"`
	InstrumentationFlags  string `json:"scorep_flags"`

	// Hardware and platform.
	OS              string `json:"os"`
	OSVersion       string `json:"os_version"`
	CPUModel        string `json:"cpu"`
	CPUCores        int    `json:"cpu_cores"`
	CPUSockets      int    `json:"cpu_count"`
	NodeMemoryMB    int    `json:"node_mem"`
	MemoryType      string `json:"mem_type"`
	MemoryFrequency int    `json:"mem_frequency"`
	VectorISA       string `json:"vector_type"`
	VectorBits      int    `json:"vector_bits"`
	NetworkFabric   string `json:"network"`
	NetworkGbps     int    `json:"network_speed"`

	// Extra holds metadata keys that are not recognized. It is
	// preserved for reporting only and is never compared.
	Extra map[string]any `json:"extra,omitempty"`
}

// WithResultFile returns a copy of r that points at path.
func (r Record) WithResultFile(path string) Record {
	r.ResultFile = path
	r.Extra = maps.Clone(r.Extra)
	return r
}

// A Comparator reports whether two records describe environments
// whose results may be compared.
//
// Comparators must be equivalence relations.
type Comparator func(a, b Record) bool

// key is the subset of Record that Comparable checks.
type key struct {
	sourcePath string
	flags      [3]string
	broadKey
}

// broadKey is the subset of Record that ComparableBroad checks.
type broadKey struct {
	app                  App
	resolution           Resolution
	compiler             Compiler
	mpiRanks             int
	timeLimit            string
	memPerCPU            int
	tasks                int
	cpuFrequency         string
	gccVersion           string
	llvmVersion          string
	numLibVersion        string
	instrumentation      bool
	instrumentationFlags string
	os                   string
	osVersion            string
	cpuModel             string
	cpuCores             int
	cpuSockets           int
	nodeMemoryMB         int
	memoryType           string
	memoryFrequency      int
	vectorISA            string
	vectorBits           int
	networkFabric        string
	networkGbps          int
}

func (r *Record) broadKey() broadKey {
	return broadKey{
		app:                  r.App,
		resolution:           r.Resolution,
		compiler:             r.Compiler,
		mpiRanks:             r.MPIRanks,
		timeLimit:            r.TimeLimit,
		memPerCPU:            r.MemPerCPU,
		tasks:                r.Tasks,
		cpuFrequency:         r.CPUFrequency,
		gccVersion:           r.GCCVersion,
		llvmVersion:          r.LLVMVersion,
		numLibVersion:        r.NumericLibraryVersion,
		instrumentation:      r.Instrumentation,
		instrumentationFlags: r.InstrumentationFlags,
		os:                   r.OS,
		osVersion:            r.OSVersion,
		cpuModel:             r.CPUModel,
		cpuCores:             r.CPUCores,
		cpuSockets:           r.CPUSockets,
		nodeMemoryMB:         r.NodeMemoryMB,
		memoryType:           r.MemoryType,
		memoryFrequency:      r.MemoryFrequency,
		vectorISA:            r.VectorISA,
		vectorBits:           r.VectorBits,
		networkFabric:        r.NetworkFabric,
		networkGbps:          r.NetworkGbps,
	}
}

func (r *Record) key() key {
	return key{
		sourcePath: r.SourcePath,
		flags:      [3]string{r.CFlags, r.FortranFlags, r.CXXFlags},
		broadKey:   r.broadKey(),
	}
}

// Comparable reports whether a and b are equal in every field except
// ResultFile, JobID and Extra.
func Comparable(a, b Record) bool {
	return a.key() == b.key()
}

// ComparableBroad is like Comparable, but additionally ignores the
// source path and the C, Fortran and C++ compiler flags.
func ComparableBroad(a, b Record) bool {
	return a.broadKey() == b.broadKey()
}

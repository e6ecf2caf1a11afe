// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runconfig

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// DefaultBuild holds the toolchain settings used when build metadata
// does not mention them.
var DefaultBuild = Record{
	Compiler:              GCC,
	GCCVersion:            "10.2",
	LLVMVersion:           "10.0.0",
	CFlags:                "-O2",
	FortranFlags:          "-O2",
	CXXFlags:              "-O2",
	NumericLibraryVersion: "3.13",
}

// DefaultJob holds the job resource settings used when job metadata
// does not mention them. It has no rank count: ranks come from the
// metadata or the artifact file names, and 0 means unknown.
var DefaultJob = Record{
	TimeLimit:    "00:30:00",
	MemPerCPU:    3800,
	Tasks:        1,
	CPUFrequency: "Medium-Medium",
}

// DefaultHardware describes the cluster nodes the runs were made on.
var DefaultHardware = Record{
	OS:              "Linux",
	CPUModel:        "Intel AVX-512",
	CPUCores:        48,
	CPUSockets:      2,
	NodeMemoryMB:    38400,
	MemoryType:      "DDR4",
	MemoryFrequency: 2933,
	VectorISA:       "AVX",
	VectorBits:      512,
	NetworkFabric:   "Infiniband HDR100",
	NetworkGbps:     100,
}

// Defaults returns a Record with DefaultBuild, DefaultJob and
// DefaultHardware applied.
func Defaults() Record {
	r := DefaultHardware
	b, j := DefaultBuild, DefaultJob
	r.Compiler = b.Compiler
	r.GCCVersion = b.GCCVersion
	r.LLVMVersion = b.LLVMVersion
	r.CFlags = b.CFlags
	r.FortranFlags = b.FortranFlags
	r.CXXFlags = b.CXXFlags
	r.NumericLibraryVersion = b.NumericLibraryVersion
	r.Instrumentation = b.Instrumentation
	r.InstrumentationFlags = b.InstrumentationFlags
	r.TimeLimit = j.TimeLimit
	r.MemPerCPU = j.MemPerCPU
	r.Tasks = j.Tasks
	r.CPUFrequency = j.CPUFrequency
	r.MPIRanks = j.MPIRanks
	return r
}

type setter func(r *Record, v any) error

func stringField(f func(r *Record) *string) setter {
	return func(r *Record, v any) error {
		s, err := toString(v)
		if err != nil {
			return err
		}
		*f(r) = s
		return nil
	}
}

func intField(f func(r *Record) *int) setter {
	return func(r *Record, v any) error {
		n, err := toInt(v)
		if err != nil {
			return err
		}
		*f(r) = n
		return nil
	}
}

// fields maps every recognized metadata key to its setter. Several
// keys may name the same field; the historical names are accepted so
// that metadata written by older job runners still decodes.
var fields = map[string]setter{
	"job_id":      stringField(func(r *Record) *string { return &r.JobID }),
	"source_path": stringField(func(r *Record) *string { return &r.SourcePath }),

	"app": func(r *Record, v any) (err error) {
		s, err := toString(v)
		if err == nil {
			r.App, err = ParseApp(s)
		}
		return
	},
	"resolution": func(r *Record, v any) (err error) {
		s, err := toString(v)
		if err == nil {
			r.Resolution, err = ParseResolution(s)
		}
		return
	},
	"compiler": func(r *Record, v any) (err error) {
		s, err := toString(v)
		if err == nil {
			r.Compiler, err = ParseCompiler(s)
		}
		return
	},
	"mpi_num_ranks":  intField(func(r *Record) *int { return &r.MPIRanks }),
	"mpi_rank_count": intField(func(r *Record) *int { return &r.MPIRanks }),
	"num_mpi_ranks":  intField(func(r *Record) *int { return &r.MPIRanks }),

	"time_limit":            stringField(func(r *Record) *string { return &r.TimeLimit }),
	"job_time_limit":        stringField(func(r *Record) *string { return &r.TimeLimit }),
	"time_str":              stringField(func(r *Record) *string { return &r.TimeLimit }),
	"mem_per_cpu":           intField(func(r *Record) *int { return &r.MemPerCPU }),
	"task_count":            intField(func(r *Record) *int { return &r.Tasks }),
	"number_of_tasks":       intField(func(r *Record) *int { return &r.Tasks }),
	"cpu_frequency_setting": stringField(func(r *Record) *string { return &r.CPUFrequency }),
	"cpu_frequency_str":     stringField(func(r *Record) *string { return &r.CPUFrequency }),

	"gcc_version":             stringField(func(r *Record) *string { return &r.GCCVersion }),
	"llvm_version":            stringField(func(r *Record) *string { return &r.LLVMVersion }),
	"c_flags":                 stringField(func(r *Record) *string { return &r.CFlags }),
	"c_compiler_flags":        stringField(func(r *Record) *string { return &r.CFlags }),
	"fortran_flags":           stringField(func(r *Record) *string { return &r.FortranFlags }),
	"fortran_compiler_flags":  stringField(func(r *Record) *string { return &r.FortranFlags }),
	"cxx_flags":               stringField(func(r *Record) *string { return &r.CXXFlags }),
	"cxx_compiler_flags":      stringField(func(r *Record) *string { return &r.CXXFlags }),
	"numeric_library_version": stringField(func(r *Record) *string { return &r.NumericLibraryVersion }),
	"petsc_version":           stringField(func(r *Record) *string { return &r.NumericLibraryVersion }),
	"instrumentation_enabled": func(r *Record, v any) (err error) {
		r.Instrumentation, err = toBool(v)
		return
	},
	"scorep_instrumentation": func(r *Record, v any) (err error) {
		r.Instrumentation, err = toBool(v)
		return
	},
	"instrumentation_flags": stringField(func(r *Record) *string { return &r.InstrumentationFlags }),
	"scorep_flags":          stringField(func(r *Record) *string { return &r.InstrumentationFlags }),

	"os":                 stringField(func(r *Record) *string { return &r.OS }),
	"os_version":         stringField(func(r *Record) *string { return &r.OSVersion }),
	"cpu_model":          stringField(func(r *Record) *string { return &r.CPUModel }),
	"cpu":                stringField(func(r *Record) *string { return &r.CPUModel }),
	"cpu_core_count":     intField(func(r *Record) *int { return &r.CPUCores }),
	"cpu_cores":          intField(func(r *Record) *int { return &r.CPUCores }),
	"cpu_socket_count":   intField(func(r *Record) *int { return &r.CPUSockets }),
	"cpu_count":          intField(func(r *Record) *int { return &r.CPUSockets }),
	"node_memory_mb":     intField(func(r *Record) *int { return &r.NodeMemoryMB }),
	"node_mem":           intField(func(r *Record) *int { return &r.NodeMemoryMB }),
	"memory_type":        stringField(func(r *Record) *string { return &r.MemoryType }),
	"mem_type":           stringField(func(r *Record) *string { return &r.MemoryType }),
	"memory_frequency":   intField(func(r *Record) *int { return &r.MemoryFrequency }),
	"mem_frequency":      intField(func(r *Record) *int { return &r.MemoryFrequency }),
	"vector_isa":         stringField(func(r *Record) *string { return &r.VectorISA }),
	"vector_type":        stringField(func(r *Record) *string { return &r.VectorISA }),
	"vector_width_bits":  intField(func(r *Record) *int { return &r.VectorBits }),
	"vector_bits":        intField(func(r *Record) *int { return &r.VectorBits }),
	"network_fabric":     stringField(func(r *Record) *string { return &r.NetworkFabric }),
	"network":            stringField(func(r *Record) *string { return &r.NetworkFabric }),
	"network_speed_gbps": intField(func(r *Record) *int { return &r.NetworkGbps }),
	"network_speed":      intField(func(r *Record) *int { return &r.NetworkGbps }),
}

// FromMetadata builds the base Record of a run from its build and
// job metadata. Fields that neither map mentions keep the values of
// Defaults. Job metadata is applied after build metadata, so it wins
// when both name the same field.
//
// Keys FromMetadata does not recognize are kept in Record.Extra.
// A recognized key whose value has the wrong type is an error.
func FromMetadata(build, job map[string]any) (Record, error) {
	r := Defaults()
	for _, m := range []map[string]any{build, job} {
		// Apply in key order so errors are deterministic.
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := m[k]
			set, ok := fields[k]
			if !ok {
				if r.Extra == nil {
					r.Extra = make(map[string]any)
				}
				r.Extra[k] = jsonValue(v)
				continue
			}
			if v == nil {
				continue
			}
			if err := set(&r, v); err != nil {
				return Record{}, fmt.Errorf("metadata key %q: %w", k, err)
			}
		}
	}
	return r, nil
}

// jsonValue rewrites v so that encoding/json can encode it. YAML
// decodes nested maps with non-string keys as map[any]any, and its
// .nan and .inf floats have no JSON form; both are stringified.
func jsonValue(v any) any {
	switch v := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = jsonValue(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = jsonValue(e)
		}
		return m
	case []any:
		s := make([]any, len(v))
		for i, e := range v {
			s[i] = jsonValue(e)
		}
		return s
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Sprint(v)
		}
	}
	return v
}

func toString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int, int64, float64, bool:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("cannot use %T as string", v)
}

func toInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	}
	return 0, fmt.Errorf("cannot use %T as integer", v)
}

func toBool(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("cannot use %T as bool", v)
}

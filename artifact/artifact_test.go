// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package artifact

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peng-hpc/runanalysis/runconfig"
)

func TestClassify(t *testing.T) {
	for _, test := range []struct {
		name string
		want *Artifact
	}{
		{
			"ISSM-MINIAPP-THERMAL_G64000_GCC_MPI96_GPROF.profile.123456",
			&Artifact{
				JobID:      "123456",
				RuntimeID:  "123456",
				App:        runconfig.AppMiniappThermal,
				Resolution: runconfig.G64000,
				Compiler:   runconfig.GCC,
				MPIRanks:   96,
				Tool:       "GPROF",
				Extension:  "profile",
				Kind:       CallProfile,
			},
		},
		{
			"ISSM-4-18_G4000_LLVM_MPI1.out.98765",
			&Artifact{
				JobID:      "98765",
				RuntimeID:  "98765",
				App:        runconfig.AppISSM418,
				Resolution: runconfig.G4000,
				Compiler:   runconfig.LLVM,
				MPIRanks:   1,
				Extension:  "out",
				Kind:       Stdout,
			},
		},
		{
			// Older job runners wrote G1600 for the G16000 setup.
			"ISSM-MINIAPP-THERMAL_G1600_GCC_MPI48.out.4711",
			&Artifact{
				JobID:      "4711",
				RuntimeID:  "4711",
				App:        runconfig.AppMiniappThermal,
				Resolution: runconfig.G16000,
				Compiler:   runconfig.GCC,
				MPIRanks:   48,
				Extension:  "out",
				Kind:       Stdout,
			},
		},
		{
			"ISSM-MINIAPP-STRESSBALANCE_G16000_GCC_MPI48_COMPILER-VEC-REPORT.miss",
			&Artifact{
				App:        runconfig.AppMiniappStressbalance,
				Resolution: runconfig.G16000,
				Compiler:   runconfig.GCC,
				MPIRanks:   48,
				Tool:       ToolVecReport,
				Extension:  "miss",
				Kind:       VecReport,
			},
		},
		{
			"ISSM-MINIAPP-THERMAL_G16000_GCC_MPI96_VALGRIND-CALLGRIND.err.5",
			&Artifact{
				JobID:      "5",
				RuntimeID:  "5",
				App:        runconfig.AppMiniappThermal,
				Resolution: runconfig.G16000,
				Compiler:   runconfig.GCC,
				MPIRanks:   96,
				Tool:       ToolCallgrind,
				Extension:  "err",
				Kind:       Excluded,
			},
		},
		{
			"ISSM-MINIAPP-THERMAL_G16000_GCC_MPI96_VALGRIND-CALLGRIND.callgrind-out",
			&Artifact{
				App:        runconfig.AppMiniappThermal,
				Resolution: runconfig.G16000,
				Compiler:   runconfig.GCC,
				MPIRanks:   96,
				Tool:       ToolCallgrind,
				Extension:  "callgrind-out",
				Kind:       CallgrindOut,
			},
		},
		{
			"ISSM-MINIAPP-THERMAL_G16000_GCC_MPI96_GPROF.opt",
			&Artifact{
				App:        runconfig.AppMiniappThermal,
				Resolution: runconfig.G16000,
				Compiler:   runconfig.GCC,
				MPIRanks:   96,
				Tool:       ToolGprof,
				Extension:  "opt",
				Kind:       Unknown,
			},
		},
	} {
		got, err := Classify(test.name)
		if err != nil {
			t.Errorf("Classify(%q): %v", test.name, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Classify(%q) mismatch (-want +got):\n%s", test.name, diff)
		}
	}
}

func TestClassifyNamingErrors(t *testing.T) {
	for _, name := range []string{
		"FOO_BAR_BAZ_MPI1_TOOL_EXTRA.out",
		"ISSM-4-18_G4000_GCC.out",
		"ISSM-4-18_G4000_GCC_MPI1",
		"ISSM-4-18_G4000_GCC_RANKS4.out",
		"ISSM-4-18_G4000_GCC_MPIx.out",
		"ISSM-4-18_G4000_GCC_MPI0.out",
		"ISSM-4-18_G4000_GCC_MPI4.out.abc",
	} {
		_, err := Classify(name)
		var ne *NamingError
		if !errors.As(err, &ne) {
			t.Errorf("Classify(%q) error = %v, want *NamingError", name, err)
		}
	}
}

func TestClassifyLookupErrors(t *testing.T) {
	for _, test := range []struct {
		name, kind string
	}{
		{"FOO_G4000_GCC_MPI1.out", "app"},
		{"ISSM-4-18_G5_GCC_MPI1.out", "resolution"},
		{"ISSM-4-18_G4000_ICC_MPI1.out", "compiler"},
	} {
		_, err := Classify(test.name)
		var le *runconfig.LookupError
		if !errors.As(err, &le) || le.Kind != test.kind {
			t.Errorf("Classify(%q) error = %v, want %s lookup error", test.name, err, test.kind)
		}
	}
}

func TestFileNameRoundTrip(t *testing.T) {
	for _, app := range []runconfig.App{runconfig.AppMiniappThermal, runconfig.AppISSM418} {
		for _, res := range []runconfig.Resolution{runconfig.G4000, runconfig.G64000} {
			for _, c := range []runconfig.Compiler{runconfig.GCC, runconfig.LLVM} {
				for _, ranks := range []int{1, 3, 96} {
					for _, tool := range []string{"", ToolGprof, ToolVecReport} {
						name := FileName(app, res, c, ranks, tool, "out", "")
						a, err := Classify(name)
						if err != nil {
							t.Fatalf("Classify(%q): %v", name, err)
						}
						if a.App != app || a.Resolution != res || a.Compiler != c || a.MPIRanks != ranks || a.Tool != tool {
							t.Errorf("Classify(%q) = %+v, want %s %s %s %d %q", name, a, app, res, c, ranks, tool)
						}
					}
				}
			}
		}
	}
}

func TestParseRunDir(t *testing.T) {
	desc, id, err := ParseRunDir("ISSM-MINIAPP-THERMAL_G16000_GCC_MPI96.4711")
	if err != nil || desc != "ISSM-MINIAPP-THERMAL_G16000_GCC_MPI96" || id != "4711" {
		t.Errorf("ParseRunDir = %q, %q, %v", desc, id, err)
	}
	for _, name := range []string{"a.b.c", "a.12.3", "X_MPI1.mpi_compare", "X_MPI1.12a"} {
		var ne *NamingError
		if _, _, err := ParseRunDir(name); !errors.As(err, &ne) {
			t.Errorf("ParseRunDir(%q) error = %v, want *NamingError for non-numeric job id", name, err)
		}
	}
	for _, name := range []string{"ISSM-MINIAPP-THERMAL_G16000_GCC_MPI96", "trailing."} {
		if _, _, err := ParseRunDir(name); !errors.Is(err, ErrRunIncomplete) {
			t.Errorf("ParseRunDir(%q) error = %v, want ErrRunIncomplete", name, err)
		}
	}
}

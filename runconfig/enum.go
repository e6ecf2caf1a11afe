// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runconfig

import "fmt"

// An App is a simulation application that can be run and analyzed.
type App string

const (
	AppMiniappThermal       App = "ISSM-MINIAPP-THERMAL"
	AppMiniappStressbalance App = "ISSM-MINIAPP-STRESSBALANCE"
	AppCustomThermal        App = "ISSM-CUSTOM-THERMAL"
	AppCustomStressbalance  App = "ISSM-CUSTOM-STRESSBALANCE"
	AppISSM418              App = "ISSM-4-18"
)

var apps = []App{
	AppMiniappThermal,
	AppMiniappStressbalance,
	AppCustomThermal,
	AppCustomStressbalance,
	AppISSM418,
}

// LegacyTiming reports whether a writes its timing summary in the
// older log layout, where setup and compute durations are printed
// directly on prefixed lines.
func (a App) LegacyTiming() bool {
	return a == AppISSM418
}

// A Resolution names one of the model setups.
type Resolution string

const (
	G4000  Resolution = "G4000"
	G16000 Resolution = "G16000"
	G64000 Resolution = "G64000"
)

var resolutions = []Resolution{G4000, G16000, G64000}

// resolutionAliases maps tokens written by older job runners to the
// Resolution they name. Output always uses the canonical name.
var resolutionAliases = map[string]Resolution{
	"G1600": G16000,
}

// A Compiler is the toolchain family used to build the application.
type Compiler string

const (
	GCC  Compiler = "GCC"
	LLVM Compiler = "LLVM"
)

var compilers = []Compiler{GCC, LLVM}

// A LookupError reports a token that does not name a known App,
// Resolution or Compiler.
type LookupError struct {
	Kind  string // "app", "resolution" or "compiler"
	Token string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Token)
}

// ParseApp returns the App named by s.
func ParseApp(s string) (App, error) {
	for _, a := range apps {
		if string(a) == s {
			return a, nil
		}
	}
	return "", &LookupError{"app", s}
}

// ParseResolution returns the Resolution named by s. It also accepts
// the aliases older job runners wrote into file names.
func ParseResolution(s string) (Resolution, error) {
	for _, r := range resolutions {
		if string(r) == s {
			return r, nil
		}
	}
	if r, ok := resolutionAliases[s]; ok {
		return r, nil
	}
	return "", &LookupError{"resolution", s}
}

// ParseCompiler returns the Compiler named by s.
func ParseCompiler(s string) (Compiler, error) {
	for _, c := range compilers {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &LookupError{"compiler", s}
}

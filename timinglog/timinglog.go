// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timinglog extracts timings from the standard output log of a
// simulation run.
//
// Two log layouts exist. The current applications print a summary
// whose third-to-last line carries the compute time, and log the model
// size on every iteration. The legacy application prints setup and
// compute time on dedicated lines. The layout is chosen by the
// application that produced the log, never by inspecting the log.
package timinglog

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/peng-hpc/runanalysis/runconfig"
)

// minLines is the number of lines a log must exceed to contain a
// timing summary at all.
const minLines = 4

// Line prefixes.
const (
	prefixElements = "FemModel"
	prefixLoops    = " -->"
	prefixSetup    = "   FemModel initialization elapsed time"
	prefixCore     = "   Core solution elapsed time"
	prefixTotal    = "   Total elapsed time"
)

// A Result is the timing summary of one run.
//
// Pointer fields are nil when the log did not provide the value; a
// warning explains each missing value.
type Result struct {
	// Ran is false if the run produced no measurable output. ErrFile
	// then points at its standard error log, if known.
	Ran bool `json:"ran"`

	ComputeSeconds *float64 `json:"calculation_time,omitempty"`
	SetupSeconds   *float64 `json:"setup_time,omitempty"`
	TotalTime      string   `json:"total_time,omitempty"` // HH:MM:SS
	ElementsAvg    *float64 `json:"model_elements_avg,omitempty"`
	LoopsAvg       *float64 `json:"model_loops_avg,omitempty"`

	ErrFile  string   `json:"err_file,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var (
	numberRE = regexp.MustCompile(`[-+]?[0-9]+(?:\.[0-9]*)?(?:[eE][-+]?[0-9]+)?`)
	totalRE  = regexp.MustCompile(`([0-9]+)\s*hrs\s+([0-9]+)\s*min\s+([0-9]+)\s*sec`)
)

// firstNumber returns the first decimal number in s.
func firstNumber(s string) (float64, bool) {
	m := numberRE.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	return v, err == nil
}

// afterColon returns the first number after the first colon of line.
func afterColon(line string) (float64, bool) {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return 0, false
	}
	return firstNumber(rest)
}

// parseTotal converts "H hrs M min S sec" into "HH:MM:SS".
func parseTotal(line string) (string, bool) {
	m := totalRE.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	var hms [3]int
	for i := range hms {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return "", false
		}
		hms[i] = n
	}
	return fmt.Sprintf("%02d:%02d:%02d", hms[0], hms[1], hms[2]), true
}

// Parse extracts the timing summary from the lines of a log written
// by app. Lines must not include their line terminators.
//
// Parse never fails. A log of minLines or fewer lines yields a Result
// with Ran set to false; values that cannot be read are left nil and
// recorded in Warnings.
func Parse(lines []string, app runconfig.App) *Result {
	res := new(Result)
	if len(lines) <= minLines {
		res.warn("log has %d lines, run produced no output", len(lines))
		return res
	}
	res.Ran = true
	if app.LegacyTiming() {
		parseLegacy(res, lines)
	} else {
		parseCurrent(res, lines)
	}
	if res.TotalTime == "" {
		res.warn("no total elapsed time")
	}
	return res
}

func parseCurrent(res *Result, lines []string) {
	if v, ok := afterColon(lines[len(lines)-3]); ok {
		res.ComputeSeconds = &v
	} else {
		res.warn("no compute time on line %d: %q", len(lines)-2, lines[len(lines)-3])
	}

	var elemSum, loopSum float64
	var elemN, loopN int
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, prefixElements):
			head, _, _ := strings.Cut(line, ",")
			v, ok := firstNumber(head)
			if !ok {
				res.warn("line %d: no element count in %q", i+1, line)
				continue
			}
			elemSum += v
			elemN++
		case strings.HasPrefix(line, prefixLoops):
			v, ok := firstNumber(line)
			if !ok {
				res.warn("line %d: no loop count in %q", i+1, line)
				continue
			}
			loopSum += v
			loopN++
		case strings.HasPrefix(line, prefixSetup):
			setSeconds(res, &res.SetupSeconds, i, line)
		case strings.HasPrefix(line, prefixTotal):
			setTotal(res, i, line)
		}
	}

	if elemN == 0 {
		res.warn("no model element counts")
	} else {
		avg := elemSum / float64(elemN)
		res.ElementsAvg = &avg
	}
	if loopN == 0 {
		res.warn("no loop counts")
	} else {
		avg := loopSum / float64(loopN)
		res.LoopsAvg = &avg
	}
	if res.SetupSeconds == nil {
		res.warn("no setup time")
	}
}

func parseLegacy(res *Result, lines []string) {
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, prefixSetup):
			setSeconds(res, &res.SetupSeconds, i, line)
		case strings.HasPrefix(line, prefixCore):
			setSeconds(res, &res.ComputeSeconds, i, line)
		case strings.HasPrefix(line, prefixTotal):
			setTotal(res, i, line)
		}
	}
	if res.SetupSeconds == nil {
		res.warn("no setup time")
	}
	if res.ComputeSeconds == nil {
		res.warn("no core solution time")
	}
}

func setSeconds(res *Result, dst **float64, i int, line string) {
	v, ok := afterColon(line)
	if !ok {
		res.warn("line %d: malformed time %q", i+1, line)
		return
	}
	*dst = &v
}

func setTotal(res *Result, i int, line string) {
	t, ok := parseTotal(line)
	if !ok {
		res.warn("line %d: malformed total time %q", i+1, line)
		return
	}
	res.TotalTime = t
}

// ParseFile parses the log at outPath. errPath names the run's
// standard error log and is reported in the Result if the run did not
// produce output; it is not read.
//
// ParseFile returns an error only if outPath cannot be read.
func ParseFile(outPath, errPath string, app runconfig.App) (*Result, error) {
	lines, err := readLines(outPath)
	if err != nil {
		return nil, err
	}
	res := Parse(lines, app)
	if !res.Ran {
		res.ErrFile = errPath
	}
	return res, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	s.Buffer(nil, 1<<20)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vecreport reads compiler auto-vectorization reports.
//
// A report line has the form
//
//	source:line:column:kind:message
//
// as written by GCC's -fopt-info-vec and Clang's -Rpass=loop-vectorize
// family of flags. Parser keeps one record per distinct vectorized or
// missed loop and drops notes and known noise.
package vecreport

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"
)

// A Record describes the outcome of vectorizing one loop.
type Record struct {
	Line       int  `json:"line"`
	Column     int  `json:"column"`
	Vectorized bool `json:"vectorized"`

	// VectorBits is the vector width in bits of a vectorized loop, or
	// 0 if the report did not say.
	VectorBits int `json:"vector_bits,omitempty"`

	// Reason is why a loop was not vectorized.
	Reason string `json:"reason,omitempty"`
}

// A Report maps source file paths to their records in input order.
type Report map[string][]Record

// A Parser accumulates records from report lines.
//
// The zero Parser is ready to use.
type Parser struct {
	// PathFilter, if non-empty, restricts the report to source files
	// whose path contains it.
	PathFilter string

	report Report
}

const clobberNoise = "statement clobbers memory"

// Add classifies one report line and records it if it describes a
// vectorized or missed loop that has not been seen before.
func (p *Parser) Add(line string) {
	f := strings.SplitN(line, ":", 5)
	if len(f) < 5 {
		return
	}
	path, kind, msg := f[0], f[3], f[4]
	if p.PathFilter != "" && !strings.Contains(path, p.PathFilter) {
		return
	}
	lineNo, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil {
		return
	}
	col, err := strconv.Atoi(strings.TrimSpace(f[2]))
	if err != nil {
		return
	}

	rec := Record{Line: lineNo, Column: col}
	switch {
	case strings.Contains(kind, "note"):
		return
	case strings.Contains(kind, "missed"):
		if strings.Contains(msg, clobberNoise) {
			return
		}
		if _, after, ok := strings.Cut(msg, ":"); ok {
			msg = after
		}
		rec.Reason = strings.TrimSpace(msg)
	case strings.Contains(kind, "optimized"):
		rec.Vectorized = true
		rec.VectorBits = 8 * vectorBytes(msg)
	default:
		return
	}

	if p.report == nil {
		p.report = make(Report)
	}
	if slices.Contains(p.report[path], rec) {
		return
	}
	p.report[path] = append(p.report[path], rec)
}

// vectorBytes returns n from the "n byte vectors" phrase of msg, or 0.
func vectorBytes(msg string) int {
	before, _, ok := strings.Cut(msg, "byte")
	if !ok {
		return 0
	}
	f := strings.Fields(before)
	if len(f) == 0 {
		return 0
	}
	n, err := strconv.Atoi(f[len(f)-1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Parse adds every line read from r.
func (p *Parser) Parse(r io.Reader) error {
	s := bufio.NewScanner(r)
	s.Buffer(nil, 1<<20)
	for s.Scan() {
		p.Add(s.Text())
	}
	return s.Err()
}

// Report returns the records collected so far. The caller must not
// modify it while continuing to add lines.
func (p *Parser) Report() Report {
	if p.report == nil {
		return Report{}
	}
	return p.report
}

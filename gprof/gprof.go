// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gprof parses the text report written by gprof.
//
// A report consists of a flat profile, a fixed-size legend, and a call
// graph. Both tables are filtered by a percentage threshold. The flat
// profile is parsed leniently: a line that cannot be read becomes a
// malformed entry. The call graph is located by offset from the end of
// the flat profile, and any misalignment is a *SyntaxError.
package gprof

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// DefaultThreshold is the percentage of total time below which entries
// are dropped.
const DefaultThreshold = 5.0

const (
	// flatHeaderLines is the number of title and column header lines
	// before the first flat profile row.
	flatHeaderLines = 5

	// callGraphOffset is the distance from the blank line that ends the
	// flat profile to the first call graph entry. gprof prints a legend
	// of constant size in between; the line just before the first entry
	// is the call graph column header.
	callGraphOffset = 40

	separator = "-----"
)

var callGraphHeader = []string{"index", "%", "time", "self", "children", "called", "name"}

// A SyntaxError reports a call graph that does not have the expected
// layout.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A FlatEntry is one row of the flat profile.
type FlatEntry struct {
	Percent           float64 `json:"percentage_total"`
	CumulativeSeconds float64 `json:"cumulated_secs"`
	SelfSeconds       float64 `json:"self_secs"`

	// The per-call columns are nil for routines gprof has no call
	// counts for, such as entry points.
	Calls          *int64   `json:"calls_to_this"`
	SelfMsPerCall  *float64 `json:"self_ms_calls"`
	TotalMsPerCall *float64 `json:"cumulated_ms_calls"`

	Name string `json:"name,omitempty"`

	// Malformed is set if the row could not be parsed. Only Raw is
	// meaningful then.
	Malformed bool   `json:"malformed,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

// A Node is one primary entry of the call graph.
type Node struct {
	Index        int     `json:"index"`
	Percent      float64 `json:"total_time_percentage"`
	SelfSeconds  float64 `json:"self_time"`
	ChildSeconds float64 `json:"child_time"`

	// Called is the number of calls from the node's parents. It is nil
	// for spontaneous nodes. SelfRecursive counts recursive calls and
	// is nil if there were none.
	Called        *int64 `json:"called"`
	SelfRecursive *int64 `json:"self_recursive,omitempty"`

	Name string `json:"name"`

	// Parents lists the indexes of the callers in report order. A nil
	// element stands for a caller that cannot be attributed: the
	// <spontaneous> marker and everything after it.
	Parents  []*int `json:"parent_indexes"`
	Children []int  `json:"child_indexes,omitempty"`
}

// A Profile is a parsed gprof report.
type Profile struct {
	Flat      []FlatEntry `json:"flat_profile"`
	CallGraph []Node      `json:"call_graph"`

	// Warnings describes lines that were skipped.
	Warnings []string `json:"warnings,omitempty"`
}

type parser struct {
	fileName  string
	lines     []string
	threshold float64
	prof      *Profile
}

// Parse parses a gprof report from r, dropping entries whose
// percentage of total time is below threshold.
func Parse(r io.Reader, threshold float64) (*Profile, error) {
	return parse(r, "<input>", threshold)
}

// ParseFile is like Parse, but reads the report from the named file.
func ParseFile(path string, threshold float64) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f, path, threshold)
}

func parse(r io.Reader, fileName string, threshold float64) (*Profile, error) {
	var lines []string
	s := bufio.NewScanner(r)
	s.Buffer(nil, 1<<20)
	for s.Scan() {
		lines = append(lines, strings.TrimRight(s.Text(), "\r"))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	p := &parser{fileName: fileName, lines: lines, threshold: threshold, prof: new(Profile)}
	end := p.flat()
	if err := p.callGraph(end); err != nil {
		return nil, err
	}
	return p.prof, nil
}

func (p *parser) warn(line int, format string, args ...interface{}) {
	p.prof.Warnings = append(p.prof.Warnings, fmt.Sprintf("%s:%d: ", p.fileName, line+1)+fmt.Sprintf(format, args...))
}

func (p *parser) errorf(line int, format string, args ...interface{}) error {
	return &SyntaxError{p.fileName, line + 1, fmt.Sprintf(format, args...)}
}

func blank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// flat parses the flat profile and returns the index of the blank line
// that ends it, or len(p.lines) if there is none.
func (p *parser) flat() int {
	i := flatHeaderLines
	for ; i < len(p.lines); i++ {
		line := p.lines[i]
		if blank(line) {
			return i
		}
		e, ok := parseFlatFull(line)
		if !ok {
			e, ok = parseFlatShort(line)
		}
		if !ok {
			p.warn(i, "malformed flat profile row")
			p.prof.Flat = append(p.prof.Flat, FlatEntry{Malformed: true, Raw: line})
			continue
		}
		if e.Percent < p.threshold {
			continue
		}
		p.prof.Flat = append(p.prof.Flat, e)
	}
	return len(p.lines)
}

// parseFlatFull parses a row with all seven columns:
//
//	19.81     10.22    10.22    62500     0.00     0.00  name
func parseFlatFull(line string) (FlatEntry, bool) {
	f := strings.Fields(line)
	if len(f) < 7 {
		return FlatEntry{}, false
	}
	var e FlatEntry
	var nums [5]float64
	for i, j := range []int{0, 1, 2, 4, 5} {
		v, err := strconv.ParseFloat(f[j], 64)
		if err != nil {
			return FlatEntry{}, false
		}
		nums[i] = v
	}
	calls, err := strconv.ParseInt(f[3], 10, 64)
	if err != nil {
		return FlatEntry{}, false
	}
	e.Percent, e.CumulativeSeconds, e.SelfSeconds = nums[0], nums[1], nums[2]
	e.Calls = &calls
	e.SelfMsPerCall, e.TotalMsPerCall = &nums[3], &nums[4]
	e.Name = strings.Join(f[6:], " ")
	return e, true
}

// parseFlatShort parses a row without call counts:
//
//	 1.02     50.61     0.52                             main
func parseFlatShort(line string) (FlatEntry, bool) {
	f := strings.Fields(line)
	if len(f) < 4 {
		return FlatEntry{}, false
	}
	var nums [3]float64
	for i := range nums {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return FlatEntry{}, false
		}
		nums[i] = v
	}
	return FlatEntry{
		Percent:           nums[0],
		CumulativeSeconds: nums[1],
		SelfSeconds:       nums[2],
		Name:              strings.Join(f[3:], " "),
	}, true
}

// callGraph parses the call graph that follows the flat profile ending
// at line end.
func (p *parser) callGraph(end int) error {
	rest := end
	for rest < len(p.lines) && blank(p.lines[rest]) {
		rest++
	}
	if rest == len(p.lines) {
		// Report without a call graph.
		return nil
	}

	start := end + callGraphOffset
	if start-1 >= len(p.lines) {
		return p.errorf(len(p.lines)-1, "report ends inside call graph legend")
	}
	if hdr := strings.Fields(p.lines[start-1]); !slices.Equal(hdr, callGraphHeader) {
		return p.errorf(start-1, "expected call graph header %q, found %q", strings.Join(callGraphHeader, " "), p.lines[start-1])
	}

	seen := make(map[int]bool)
	for i := start; i < len(p.lines) && !blank(p.lines[i]); {
		// Collect one entry, up to and excluding the separator.
		j := i
		for j < len(p.lines) && !strings.Contains(p.lines[j], separator) {
			j++
		}
		n, err := p.entry(i, j)
		if err != nil {
			return err
		}
		if n.Percent < p.threshold {
			break
		}
		if seen[n.Index] {
			return p.errorf(i, "duplicate call graph index %d", n.Index)
		}
		seen[n.Index] = true
		p.prof.CallGraph = append(p.prof.CallGraph, *n)
		i = j + 1
	}
	return nil
}

// entry parses the call graph entry in lines [lo, hi).
func (p *parser) entry(lo, hi int) (*Node, error) {
	primary := -1
	for k := lo; k < hi; k++ {
		if strings.HasPrefix(p.lines[k], "[") {
			primary = k
			break
		}
	}
	if primary < 0 {
		return nil, p.errorf(lo, "call graph entry has no primary line")
	}

	n := new(Node)
	spontaneous := false
	for k := lo; k < primary; k++ {
		line := strings.TrimSpace(p.lines[k])
		if line == "<spontaneous>" {
			spontaneous = true
		}
		if spontaneous {
			n.Parents = append(n.Parents, nil)
			continue
		}
		id, ok := trailingIndex(line)
		if !ok {
			p.warn(k, "caller line has no index")
			n.Parents = append(n.Parents, nil)
			continue
		}
		n.Parents = append(n.Parents, &id)
	}
	for k := primary + 1; k < hi; k++ {
		if id, ok := trailingIndex(strings.TrimSpace(p.lines[k])); ok {
			n.Children = append(n.Children, id)
		}
	}

	// [2]     98.1    0.00   50.61       1         execute(int, char**) [2]
	f := strings.Fields(p.lines[primary])
	if len(f) < 5 {
		return nil, p.errorf(primary, "short call graph entry")
	}
	idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f[0], "["), "]"))
	if err != nil {
		return nil, p.errorf(primary, "bad call graph index %q", f[0])
	}
	n.Index = idx
	for i, dst := range []*float64{&n.Percent, &n.SelfSeconds, &n.ChildSeconds} {
		v, err := strconv.ParseFloat(f[i+1], 64)
		if err != nil {
			return nil, p.errorf(primary, "bad number %q", f[i+1])
		}
		*dst = v
	}

	name := f[4:]
	if called, rec, ok := parseCalled(f[4]); ok {
		name = f[5:]
		if !spontaneous {
			n.Called, n.SelfRecursive = called, rec
		}
	}
	if len(name) > 0 {
		if _, ok := trailingIndex(name[len(name)-1]); ok {
			name = name[:len(name)-1]
		}
	}
	n.Name = strings.Join(name, " ")
	return n, nil
}

// parseCalled parses the called column of a primary line, which is
// either a count or count+recursive.
func parseCalled(s string) (called, recursive *int64, ok bool) {
	a, b, plus := strings.Cut(s, "+")
	x, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return nil, nil, false
	}
	if !plus {
		return &x, nil, true
	}
	y, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return nil, nil, false
	}
	return &x, &y, true
}

// trailingIndex returns n if s ends in "[n]".
func trailingIndex(s string) (int, bool) {
	if !strings.HasSuffix(s, "]") {
		return 0, false
	}
	open := strings.LastIndex(s, "[")
	if open < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[open+1 : len(s)-1])
	return n, err == nil
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package speedup compares the compute time of runs that differ only in
// their number of MPI ranks.
package speedup

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"github.com/aclements/go-moremath/stats"
)

// An Entry is the compute time of one rank count.
type Entry struct {
	Ranks          int
	ComputeSeconds float64

	// Speedup is ComputeSeconds divided by the baseline's compute
	// time. It is nil for the baseline itself and when the baseline
	// time is zero.
	//
	// Values below 1 mean the run was faster than the baseline.
	Speedup *float64
}

// A Comparison relates the compute times of several rank counts to the
// lowest one.
type Comparison struct {
	// Baseline is the lowest rank count.
	Baseline int

	// Entries is sorted by increasing rank count. Entries[0] is the
	// baseline.
	Entries []Entry

	// AverageSeconds is the mean compute time over all entries.
	AverageSeconds float64
}

// ErrEmpty is returned by Compute when there is nothing to compare.
var ErrEmpty = errors.New("no timings to compare")

// Compute builds the Comparison of times, which maps rank counts to
// compute time in seconds.
func Compute(times map[int]float64) (*Comparison, error) {
	if len(times) == 0 {
		return nil, ErrEmpty
	}
	ranks := make([]int, 0, len(times))
	for r := range times {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	c := &Comparison{Baseline: ranks[0]}
	base := times[ranks[0]]
	xs := make([]float64, 0, len(ranks))
	for i, r := range ranks {
		e := Entry{Ranks: r, ComputeSeconds: times[r]}
		if i > 0 && base != 0 {
			s := e.ComputeSeconds / base
			e.Speedup = &s
		}
		c.Entries = append(c.Entries, e)
		xs = append(xs, e.ComputeSeconds)
	}
	c.AverageSeconds = stats.Mean(xs)
	return c, nil
}

type jsonEntry struct {
	ComputeSeconds float64  `json:"calculation_time"`
	Speedup        *float64 `json:"speedup_to_first,omitempty"`
}

// MarshalJSON encodes c as an object keyed by rank count in increasing
// order, followed by an "average" key.
func (c *Comparison) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, e := range c.Entries {
		v, err := json.Marshal(jsonEntry{e.ComputeSeconds, e.Speedup})
		if err != nil {
			return nil, err
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(e.Ranks)))
		buf.WriteByte(':')
		buf.Write(v)
		buf.WriteByte(',')
	}
	avg, err := json.Marshal(c.AverageSeconds)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"average":`)
	buf.Write(avg)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

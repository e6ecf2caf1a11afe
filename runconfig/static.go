// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runconfig

// An Environment summarizes whether a batch of runs shared a single
// static environment.
type Environment struct {
	IsStatic bool `json:"is_static"`

	// Static is a representative record of the batch. It is set
	// only if IsStatic is true.
	Static *Record `json:"static_environment,omitempty"`
}

// CheckStatic reports whether all of recs are mutually comparable
// under cmp, or under Comparable if cmp is nil.
//
// Because comparators are equivalence relations, it suffices to check
// adjacent pairs. An empty batch has no environment and is not static.
func CheckStatic(recs []Record, cmp Comparator) Environment {
	if len(recs) == 0 {
		return Environment{}
	}
	if cmp == nil {
		cmp = Comparable
	}
	for i := 1; i < len(recs); i++ {
		if !cmp(recs[i-1], recs[i]) {
			return Environment{}
		}
	}
	static := recs[0].WithResultFile(recs[0].ResultFile)
	return Environment{IsStatic: true, Static: &static}
}

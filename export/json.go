// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package export writes an analyzer.Document in the formats consumed
// downstream: indented JSON files, Go benchmark format for benchstat,
// an HTML summary, a plain text summary, and objects in a Cloud
// Storage bucket.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/peng-hpc/runanalysis/analyzer"
)

// Indent is the indentation of exported JSON.
const Indent = "    "

// WriteJSON writes doc to w as indented JSON.
func WriteJSON(w io.Writer, doc *analyzer.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", Indent)
	return enc.Encode(doc)
}

// SaveJSON writes doc to dir/name.json, creating dir if needed, and
// returns the path of the file.
func SaveJSON(dir, name string, doc *analyzer.Document) (string, error) {
	if name == "" {
		return "", errors.New("empty result name")
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteJSON(f, doc); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, f.Close()
}

// JobIDs returns the sorted keys of the "jobs" object of the JSON
// result document read from r.
func JobIDs(r io.Reader) ([]string, error) {
	var doc struct {
		Jobs map[string]json.RawMessage `json:"jobs"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc.Jobs))
	for id := range doc.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

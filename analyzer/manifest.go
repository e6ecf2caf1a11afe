// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analyzer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// A Manifest lists the runs of a batch. It is written by the job
// runner as YAML:
//
//	name: thermal-scaling
//	runs:
//	  - dir: ISSM-MINIAPP-THERMAL_G16000_GCC_MPI48.4711
//	    build: {compiler: GCC, c_compiler_flags: -O3}
//	    job: {job_time_limit: "01:00:00"}
//
// Unknown keys are ignored.
type Manifest struct {
	Name string `yaml:"name"`
	Runs []Run  `yaml:"runs"`
}

// LoadManifest decodes a Manifest from r.
func LoadManifest(r io.Reader) (*Manifest, error) {
	m := new(Manifest)
	if err := yaml.NewDecoder(r).Decode(m); err != nil {
		if err == io.EOF {
			return m, nil
		}
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return m, nil
}

// LoadManifestFile reads the Manifest at path. Relative run
// directories are resolved against the directory containing path.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Runs {
		if !filepath.IsAbs(m.Runs[i].Dir) {
			m.Runs[i].Dir = filepath.Join(base, m.Runs[i].Dir)
		}
	}
	return m, nil
}

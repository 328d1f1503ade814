// Package config loads the generator's tunables from an optional
// psyche.json manifest in the project root, falling back to defaults
// when absent. Adapted from the teacher's internal/build manifest-loading
// idiom (ProjectManifest/loadManifest reading sentra.json), retargeted
// from project/build metadata to harness-generation options.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Options are the generator's tunables: spec.md §6's external interface
// list (WriteConstraints, GenerateCSV, MaxArraySize, MinArraySize,
// NBTests, NBCalls). Only GenerateCSV has a CLI switch (gen's --csv); the
// others come from psyche.json or Defaults().
type Options struct {
	WriteConstraints bool `json:"write_constraints"`
	GenerateCSV      bool `json:"generate_csv"`
	MaxArraySize     int  `json:"max_array_size"`
	MinArraySize     int  `json:"min_array_size"`
	NBTests          int  `json:"nb_tests"`
	NBCalls          int  `json:"nb_calls"`
}

// Defaults mirrors the original FunctionGenerator.cpp constants: modest
// test/call counts suitable for a quick smoke run, array sizes bounded to
// avoid pathological stack allocations in the emitted harness.
func Defaults() Options {
	return Options{
		WriteConstraints: true,
		GenerateCSV:      false,
		MaxArraySize:     64,
		MinArraySize:     1,
		NBTests:          10,
		NBCalls:          1000,
	}
}

// manifest is the on-disk psyche.json shape; only the "generator" key is
// read, keeping the file shape open for unrelated project metadata the
// way sentra.json carries name/version/dependencies alongside its build
// section.
type manifest struct {
	Generator Options `json:"generator"`
}

// Load reads psyche.json from projectRoot, returning Defaults() merged
// under whatever the manifest specifies. A missing file is not an error:
// the tool works manifest-free with defaults, same as the teacher's
// loadManifest falling back to a default ProjectManifest.
func Load(projectRoot string) (Options, error) {
	opts := Defaults()

	path := filepath.Join(projectRoot, "psyche.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("reading %s: %w", path, err)
	}

	m := manifest{Generator: opts}
	if err := json.Unmarshal(data, &m); err != nil {
		return opts, fmt.Errorf("parsing %s: %w", path, err)
	}
	opts = m.Generator
	if opts.MaxArraySize == 0 {
		opts.MaxArraySize = Defaults().MaxArraySize
	}
	if opts.MinArraySize == 0 {
		opts.MinArraySize = Defaults().MinArraySize
	}
	if opts.NBTests == 0 {
		opts.NBTests = Defaults().NBTests
	}
	if opts.NBCalls == 0 {
		opts.NBCalls = Defaults().NBCalls
	}
	return opts, nil
}

// Package tpch loads the TPC-H benchmark tables into the engine.
//
// For every table it creates named pipes, starts the TPC-H generator
// (dbgen) writing into them and runs a generated bulk-load script through
// the engine, which reads the pipes. The generator must already be built.
package tpch

import (
	"fmt"
	"path/filepath"
)

type InitSettings struct {
	// page multiplier exponent
	Exponent    int
	NumDisks    int
	DiskPattern string
}

type Settings struct {
	DataDir  string
	DbgenDir string

	ScaleFactor int
	NumStripes  int

	SchemaPath string
	// optional filter every generated row passes through
	FilterScript string
	Postfix      string

	KeepFiles          bool
	AssumeYes          bool
	IgnoreEngineErrors bool

	// answer the engine's first-run questions while loading the schema
	Initialize bool
	Init       InitSettings
}

func NewSettings() *Settings {
	return &Settings{
		DataDir:     "./data",
		DbgenDir:    "./data/tpch/dbgen",
		ScaleFactor: 1,
		NumStripes:  1,
		SchemaPath:  "./LOAD_TPCH/schema.pgy",
		Init: InitSettings{
			Exponent:    0,
			NumDisks:    1,
			DiskPattern: "./disks/disks%d",
		},
	}
}

func (s *Settings) Validate() error {
	if s.ScaleFactor < 1 {
		return fmt.Errorf("scale factor must be at least 1, got %d", s.ScaleFactor)
	}
	if s.NumStripes < 1 {
		return fmt.Errorf("number of stripes must be at least 1, got %d", s.NumStripes)
	}
	if s.Initialize && s.Init.NumDisks < 1 {
		return fmt.Errorf("number of disks must be at least 1, got %d", s.Init.NumDisks)
	}
	return nil
}

// Resolve makes the data and dbgen directories absolute, so the paths
// written into engine scripts do not depend on where the engine runs.
func (s *Settings) Resolve() error {
	for _, dir := range []*string{&s.DataDir, &s.DbgenDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return err
		}
		*dir = abs
	}
	return nil
}

// WorkDir holds the named pipes; dbgen runs there.
func (s *Settings) WorkDir() string { return filepath.Join(s.DataDir, "tpch") }

func (s *Settings) DbgenExec() string { return filepath.Join(s.DbgenDir, "dbgen") }

func (s *Settings) DistsFile() string { return filepath.Join(s.DbgenDir, "dists.dss") }

// InitAnswers is what the engine expects on stdin the first time it runs.
func (s *Settings) InitAnswers() string {
	return fmt.Sprintf("%d\n%d\n%s\n", s.Init.Exponent, s.Init.NumDisks, s.Init.DiskPattern)
}

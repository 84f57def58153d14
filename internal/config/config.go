// Package config describes the static requirements and metadata of one
// conformance test and checks them at configuration time.
package config

import (
	"github.com/AndreyAkinshin/conform/internal/cl"
)

// TestConfig is the configuration record of one test. It is built once by an
// ordinary function, may be adjusted by its Init hook, and is read-only once
// dispatch begins.
type TestConfig struct {
	// Name identifies the test. It must not contain '/' or '%'.
	Name string

	// Iteration granularity. At least one must be set.
	RunPerPlatform bool
	RunPerDevice   bool

	// Candidate filters: case-sensitive POSIX extended regular expressions
	// matched against platform and device names. Empty matches everything.
	PlatformRegex string
	DeviceRegex   string

	// Capability gates: space-delimited extension names.
	RequirePlatformExtensions string
	RequireDeviceExtensions   string

	// Version gates on the platform (per-platform runs) or device
	// (per-device runs) OpenCL version. Zero VersionMax means no upper bound.
	VersionMin cl.Version
	VersionMax cl.Version

	// Program is the payload of program tests, nil otherwise.
	Program *ProgramConfig

	// Init runs once before enumeration with the command-line arguments
	// left after harness flags. It may modify the configuration. A returned
	// error ends the run with that error's result.
	Init func(cfg *TestConfig, args []string) error

	// Clean runs once on every exit path after Init was called.
	Clean func(cfg *TestConfig)
}

// ProgramConfig is the payload of an OpenCL program test. Exactly one of
// Source, SourceFile, Binary and BinaryFile must be set.
type ProgramConfig struct {
	// OpenCL C version gates on the device. Zero CLCVersionMax means no
	// upper bound.
	CLCVersionMin cl.Version
	CLCVersionMax cl.Version

	Source     string
	SourceFile string
	Binary     []byte
	BinaryFile string

	BuildOptions    string
	ExpectBuildFail bool

	// KernelName is the kernel created right after the build. Sub-tests may
	// name a different one.
	KernelName string
}

// Payloads returns the names of the program payload fields that are set.
func (p *ProgramConfig) Payloads() []string {
	var set []string
	if p.Source != "" {
		set = append(set, "program_source")
	}
	if p.SourceFile != "" {
		set = append(set, "program_source_file")
	}
	if len(p.Binary) > 0 {
		set = append(set, "program_binary")
	}
	if p.BinaryFile != "" {
		set = append(set, "program_binary_file")
	}
	return set
}

// IsBinary reports whether the payload is a program binary.
func (p *ProgramConfig) IsBinary() bool {
	return len(p.Binary) > 0 || p.BinaryFile != ""
}

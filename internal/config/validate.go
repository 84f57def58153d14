package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AndreyAkinshin/conform/internal/errors"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &errors.Error{
		Kind:    errors.KindConfig,
		Message: "invalid test configuration",
		Cause:   &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)},
	}
}

// Validate checks a configuration before any dispatch begins and returns its
// compiled filters. Every error it returns is a configuration error.
func Validate(cfg *TestConfig) (*Filters, error) {
	if err := ValidateName(cfg.Name); err != nil {
		return nil, err
	}
	if !cfg.RunPerPlatform && !cfg.RunPerDevice {
		return nil, invalid("run_per_platform", "at least one of run_per_platform and run_per_device must be set")
	}
	if cfg.VersionMax != 0 && cfg.VersionMin > cfg.VersionMax {
		return nil, invalid("version_max", "%v is lower than version_min %v", cfg.VersionMax, cfg.VersionMin)
	}
	filters, err := Compile(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Program != nil {
		if err := validateProgram(cfg); err != nil {
			return nil, err
		}
	}
	return filters, nil
}

func validateProgram(cfg *TestConfig) error {
	p := cfg.Program
	switch set := p.Payloads(); len(set) {
	case 0:
		return invalid("program_source", "one of program_source, program_source_file, program_binary, program_binary_file must be set")
	case 1:
	default:
		return invalid(set[1], "mutually exclusive with %s", set[0])
	}
	if cfg.RunPerPlatform || !cfg.RunPerDevice {
		return invalid("run_per_device", "program tests run per device only")
	}
	if p.CLCVersionMax != 0 && p.CLCVersionMin > p.CLCVersionMax {
		return invalid("clc_version_max", "%v is lower than clc_version_min %v", p.CLCVersionMax, p.CLCVersionMin)
	}
	return nil
}

// ValidateName checks a test name.
func ValidateName(name string) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if strings.ContainsAny(name, "/%") {
		return invalid("name", "%q must not contain '/' or '%%'", name)
	}
	return nil
}

// Filters holds the compiled candidate filters of a configuration.
type Filters struct {
	Platform           *regexp.Regexp // nil matches every platform
	Device             *regexp.Regexp // nil matches every device
	PlatformExtensions []string
	DeviceExtensions   []string
}

// Compile compiles the regular expressions and splits the extension lists of
// cfg. A malformed expression is a configuration error.
func Compile(cfg *TestConfig) (*Filters, error) {
	f := &Filters{
		PlatformExtensions: strings.Fields(cfg.RequirePlatformExtensions),
		DeviceExtensions:   strings.Fields(cfg.RequireDeviceExtensions),
	}
	var err error
	if f.Platform, err = compileRegex("platform_regex", cfg.PlatformRegex); err != nil {
		return nil, err
	}
	if f.Device, err = compileRegex("device_regex", cfg.DeviceRegex); err != nil {
		return nil, err
	}
	return f, nil
}

func compileRegex(field, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.CompilePOSIX(expr)
	if err != nil {
		return nil, invalid(field, "malformed regular expression %q: %v", expr, err)
	}
	return re, nil
}

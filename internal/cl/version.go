package cl

import (
	"fmt"
	"regexp"
	"strconv"
)

// Version is an OpenCL or OpenCL C version encoded as major*10 + minor, the
// way version bounds are written in test descriptions (1.2 is 12).
type Version int

var (
	platformVersionRE = regexp.MustCompile(`^OpenCL (\d+)\.(\d+)`)
	cVersionRE        = regexp.MustCompile(`^OpenCL C (\d+)\.(\d+)`)
	plainVersionRE    = regexp.MustCompile(`^(\d+)\.(\d+)$`)
)

// NewVersion returns the Version for major.minor.
func NewVersion(major, minor int) Version {
	return Version(major*10 + minor)
}

// Major returns the major version number.
func (v Version) Major() int { return int(v) / 10 }

// Minor returns the minor version number.
func (v Version) Minor() int { return int(v) % 10 }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// ParseVersion parses a CL_PLATFORM_VERSION or CL_DEVICE_VERSION string of
// the form "OpenCL <major>.<minor> <vendor-specific>".
func ParseVersion(s string) (Version, error) {
	return parseWith(platformVersionRE, s)
}

// ParseCVersion parses a CL_DEVICE_OPENCL_C_VERSION string of the form
// "OpenCL C <major>.<minor> <vendor-specific>".
func ParseCVersion(s string) (Version, error) {
	return parseWith(cVersionRE, s)
}

// ParseVersionNumber parses a version written either as "1.2" or as the
// encoded integer "12".
func ParseVersionNumber(s string) (Version, error) {
	if m := plainVersionRE.FindStringSubmatch(s); m != nil {
		return fromMatch(m)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid version %q", s)
	}
	return Version(n), nil
}

func parseWith(re *regexp.Regexp, s string) (Version, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("malformed version string %q", s)
	}
	return fromMatch(m)
}

func fromMatch(m []string) (Version, error) {
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, err
	}
	if minor > 9 {
		return 0, fmt.Errorf("minor version %d out of range", minor)
	}
	return NewVersion(major, minor), nil
}

// InRange reports whether v lies in [min, max]. A zero max means no upper
// bound.
func (v Version) InRange(min, max Version) bool {
	if v < min {
		return false
	}
	return max == 0 || v <= max
}

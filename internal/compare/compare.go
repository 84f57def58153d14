// Package compare implements the element comparisons used to verify kernel
// outputs: exact and absolute-tolerance integer checks, and exact,
// absolute-tolerance and ULP-distance floating-point checks.
package compare

import (
	"fmt"
	"math"
)

// Mode selects how a value is compared against its expectation.
type Mode int

const (
	// ModeExact requires bit-for-bit equality (0 ULP for floats).
	ModeExact Mode = iota
	// ModeAbsolute accepts |actual - expected| <= tolerance.
	ModeAbsolute
	// ModeULP accepts a distance of at most N units in the last place.
	ModeULP
)

// String returns the mode's name.
func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeAbsolute:
		return "absolute"
	case ModeULP:
		return "ulp"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Tolerance is the comparison rule of one output argument.
// Units holds the integer tolerance or the ULP count; Abs holds the
// floating-point absolute tolerance.
type Tolerance struct {
	Mode  Mode
	Abs   float64
	Units uint64
}

// Exact is the default tolerance.
var Exact = Tolerance{}

// Absolute returns a floating-point absolute tolerance.
func Absolute(t float64) Tolerance { return Tolerance{Mode: ModeAbsolute, Abs: t} }

// IntAbsolute returns an integer absolute tolerance.
func IntAbsolute(t uint64) Tolerance { return Tolerance{Mode: ModeAbsolute, Units: t} }

// ULP returns a floating-point ULP tolerance.
func ULP(n uint64) Tolerance { return Tolerance{Mode: ModeULP, Units: n} }

func (t Tolerance) String() string {
	switch t.Mode {
	case ModeAbsolute:
		if t.Units != 0 {
			return fmt.Sprintf("tolerance %d", t.Units)
		}
		return fmt.Sprintf("tolerance %g", t.Abs)
	case ModeULP:
		return fmt.Sprintf("tolerance %d ulp", t.Units)
	default:
		return "exact"
	}
}

// Int reports whether a signed integer is within tolerance of its expectation.
func Int(expected, actual int64, tol Tolerance) bool {
	if tol.Mode == ModeExact {
		return expected == actual
	}
	return absDiffInt(expected, actual) <= tol.Units
}

// Uint reports whether an unsigned integer is within tolerance of its
// expectation.
func Uint(expected, actual uint64, tol Tolerance) bool {
	if tol.Mode == ModeExact {
		return expected == actual
	}
	d := actual - expected
	if expected > actual {
		d = expected - actual
	}
	return d <= tol.Units
}

// absDiffInt returns |a-b| without overflow.
func absDiffInt(a, b int64) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// Float64 reports whether a double is within tolerance of its expectation.
// An expected NaN matches any NaN. Infinities must match exactly.
func Float64(expected, actual float64, tol Tolerance) bool {
	if ok, done := special(expected, actual); done {
		return ok
	}
	switch tol.Mode {
	case ModeAbsolute:
		return math.Abs(expected-actual) <= tol.Abs
	case ModeULP:
		return ULPDiff64(expected, actual) <= tol.Units
	default:
		return ULPDiff64(expected, actual) == 0
	}
}

// Float32 reports whether a float is within tolerance of its expectation.
// ULP distances are measured in single precision.
func Float32(expected, actual float32, tol Tolerance) bool {
	e, a := float64(expected), float64(actual)
	if ok, done := special(e, a); done {
		return ok
	}
	switch tol.Mode {
	case ModeAbsolute:
		return math.Abs(e-a) <= tol.Abs
	case ModeULP:
		return ULPDiff32(expected, actual) <= tol.Units
	default:
		return ULPDiff32(expected, actual) == 0
	}
}

func special(expected, actual float64) (ok, done bool) {
	if math.IsNaN(expected) || math.IsNaN(actual) {
		return math.IsNaN(expected) && math.IsNaN(actual), true
	}
	if math.IsInf(expected, 0) || math.IsInf(actual, 0) {
		return expected == actual, true
	}
	return false, false
}

// ULPDiff64 returns the number of representable doubles between a and b.
// Positive and negative zero are 0 ULP apart.
func ULPDiff64(a, b float64) uint64 {
	return absDiffInt(ordered64(a), ordered64(b))
}

// ULPDiff32 returns the number of representable floats between a and b.
func ULPDiff32(a, b float32) uint64 {
	return absDiffInt(ordered32(a), ordered32(b))
}

// ordered64 maps the bit pattern of f onto a line where adjacent doubles
// differ by one.
func ordered64(f float64) int64 {
	bits := math.Float64bits(f)
	if bits>>63 != 0 {
		return -int64(bits &^ (1 << 63))
	}
	return int64(bits)
}

func ordered32(f float32) int64 {
	bits := math.Float32bits(f)
	if bits>>31 != 0 {
		return -int64(bits &^ (1 << 31))
	}
	return int64(bits)
}

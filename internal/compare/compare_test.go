package compare

import (
	"math"
	"testing"
)

func TestInt(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		expected int64
		actual   int64
		tol      Tolerance
		pass     bool
	}{
		{"equal", 5, 5, Exact, true},
		{"off by one exact", 5, 6, Exact, false},
		{"at tolerance", 10, 12, IntAbsolute(2), true},
		{"below tolerance", 10, 8, IntAbsolute(2), true},
		{"past tolerance", 10, 13, IntAbsolute(2), false},
		{"past tolerance below", 10, 7, IntAbsolute(2), false},
		{"extremes", math.MinInt64, math.MaxInt64, IntAbsolute(math.MaxUint64), true},
		{"extremes exceed", math.MinInt64, math.MaxInt64, IntAbsolute(math.MaxUint64 - 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Int(tt.expected, tt.actual, tt.tol); got != tt.pass {
				t.Errorf("Int(%d, %d, %v) = %v, want %v", tt.expected, tt.actual, tt.tol, got, tt.pass)
			}
		})
	}
}

func TestUint(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expected, actual uint64
		tol              Tolerance
		pass             bool
	}{
		{7, 7, Exact, true},
		{7, 8, Exact, false},
		{0, 3, IntAbsolute(3), true},
		{3, 0, IntAbsolute(3), true},
		{0, 4, IntAbsolute(3), false},
		{math.MaxUint64, 0, IntAbsolute(math.MaxUint64), true},
	}
	for _, tt := range tests {
		if got := Uint(tt.expected, tt.actual, tt.tol); got != tt.pass {
			t.Errorf("Uint(%d, %d, %v) = %v, want %v", tt.expected, tt.actual, tt.tol, got, tt.pass)
		}
	}
}

func TestFloat32(t *testing.T) {
	t.Parallel()
	next := math.Nextafter32(1, 2)
	nextnext := math.Nextafter32(next, 2)
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name     string
		expected float32
		actual   float32
		tol      Tolerance
		pass     bool
	}{
		{"equal", 1.5, 1.5, Exact, true},
		{"one ulp exact", 1, next, Exact, false},
		{"one ulp within", 1, next, ULP(1), true},
		{"two ulp past one", 1, nextnext, ULP(1), false},
		{"absolute within", 1.0, 1.004, Absolute(0.005), true},
		{"absolute past", 1.0, 1.01, Absolute(0.005), false},
		{"signed zeros", 0, float32(math.Copysign(0, -1)), Exact, true},
		{"nan matches nan", nan, nan, Exact, true},
		{"nan expected finite actual", nan, 1, ULP(100), false},
		{"finite expected nan actual", 1, nan, Absolute(1e30), false},
		{"inf equal", inf, inf, Exact, true},
		{"inf vs max", inf, math.MaxFloat32, ULP(1), false},
		{"inf sign", inf, -inf, Absolute(math.Inf(1)), false},
		{"ulp across zero", math.SmallestNonzeroFloat32, -math.SmallestNonzeroFloat32, ULP(2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Float32(tt.expected, tt.actual, tt.tol); got != tt.pass {
				t.Errorf("Float32(%v, %v, %v) = %v, want %v", tt.expected, tt.actual, tt.tol, got, tt.pass)
			}
		})
	}
}

func TestFloat64(t *testing.T) {
	t.Parallel()
	next := math.Nextafter(1, 2)
	if !Float64(1, next, ULP(1)) {
		t.Error("adjacent doubles should be within 1 ulp")
	}
	if Float64(1, next, Exact) {
		t.Error("adjacent doubles should not compare exact")
	}
	if !Float64(math.NaN(), math.NaN(), Exact) {
		t.Error("NaN should match NaN")
	}
	if !Float64(100, 100.5, Absolute(0.5)) {
		t.Error("difference equal to tolerance should pass")
	}
}

func TestULPDiff(t *testing.T) {
	t.Parallel()
	if got := ULPDiff32(1, math.Nextafter32(1, 2)); got != 1 {
		t.Errorf("ULPDiff32 adjacent = %d, want 1", got)
	}
	if got := ULPDiff32(-1, 1); got != 2*uint64(math.Float32bits(1)) {
		t.Errorf("ULPDiff32(-1, 1) = %d", got)
	}
	if got := ULPDiff64(0, math.Copysign(0, -1)); got != 0 {
		t.Errorf("ULPDiff64(+0, -0) = %d, want 0", got)
	}
	if got := ULPDiff64(2, 1); got != ULPDiff64(1, 2) {
		t.Error("ULPDiff64 should be symmetric")
	}
}

func TestTolerance_String(t *testing.T) {
	t.Parallel()
	tests := map[string]Tolerance{
		"exact":           Exact,
		"tolerance 0.5":   Absolute(0.5),
		"tolerance 3":     IntAbsolute(3),
		"tolerance 4 ulp": ULP(4),
	}
	for want, tol := range tests {
		if got := tol.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

package result

import (
	"bytes"
	"strings"
	"testing"
)

func TestMerge(t *testing.T) {
	t.Parallel()
	tests := []struct {
		all, r, want Result
	}{
		{Skip, Skip, Skip},
		{Skip, Pass, Pass},
		{Skip, Warn, Warn},
		{Skip, Fail, Fail},
		{Pass, Skip, Pass},
		{Pass, Pass, Pass},
		{Pass, Warn, Warn},
		{Pass, Fail, Fail},
		{Warn, Skip, Warn},
		{Warn, Pass, Warn},
		{Warn, Fail, Fail},
		{Fail, Skip, Fail},
		{Fail, Pass, Fail},
		{Fail, Warn, Fail},
	}
	for _, tt := range tests {
		if got := Merge(tt.all, tt.r); got != tt.want {
			t.Errorf("Merge(%v, %v) = %v, want %v", tt.all, tt.r, got, tt.want)
		}
	}
}

func TestMerge_AssociativeCommutative(t *testing.T) {
	t.Parallel()
	for _, a := range All {
		for _, b := range All {
			if Merge(a, b) != Merge(b, a) {
				t.Errorf("Merge(%v, %v) != Merge(%v, %v)", a, b, b, a)
			}
			for _, c := range All {
				left := Merge(Merge(a, b), c)
				right := Merge(a, Merge(b, c))
				if left != right {
					t.Errorf("merge not associative for (%v, %v, %v): %v vs %v", a, b, c, left, right)
				}
			}
		}
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()
	if got := Aggregate(); got != Skip {
		t.Errorf("Aggregate() = %v, want skip", got)
	}
	if got := Aggregate(Pass, Fail, Warn); got != Fail {
		t.Errorf("Aggregate(pass, fail, warn) = %v, want fail", got)
	}
	if got := Aggregate(Skip, Pass, Skip); got != Pass {
		t.Errorf("Aggregate(skip, pass, skip) = %v, want pass", got)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	for _, r := range All {
		got, err := Parse(strings.ToUpper(r.String()))
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", r, err)
		}
		if got != r {
			t.Errorf("Parse(%q) = %v", r, got)
		}
	}
	if _, err := Parse("crash"); err == nil {
		t.Error("Parse(crash) should fail")
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	tests := map[Result]int{Pass: 0, Fail: 1, Warn: 2, Skip: 77}
	for r, want := range tests {
		if got := r.ExitCode(); got != want {
			t.Errorf("%v.ExitCode() = %d, want %d", r, got, want)
		}
		if got, ok := FromExitCode(want); !ok || got != r {
			t.Errorf("FromExitCode(%d) = %v, %v; want %v", want, got, ok, r)
		}
	}
	for _, code := range []int{-1, 3, 139} {
		if got, ok := FromExitCode(code); ok || got != Fail {
			t.Errorf("FromExitCode(%d) = %v, %v; want fail, false", code, got, ok)
		}
	}
}

func TestReporter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Subtest("add \"ints\"", Fail)
	r.Final(Fail)

	want := "CONFORM: {\"subtest\":{\"add \\\"ints\\\"\":\"fail\"}}\n" +
		"CONFORM: {\"result\":\"fail\"}\n"
	if buf.String() != want {
		t.Errorf("reporter output = %q, want %q", buf.String(), want)
	}
}

package programtest

import (
	"errors"
	"testing"
)

type tracked struct {
	name  string
	log   *[]string
	err   error
	count int
}

func (t *tracked) Release() error {
	t.count++
	*t.log = append(*t.log, t.name)
	return t.err
}

func TestArena_ReleaseOrder(t *testing.T) {
	t.Parallel()
	var log []string
	a := NewArena()
	a.Track(&tracked{name: "context", log: &log})
	s := a.Scope()
	a.Track(&tracked{name: "program", log: &log})
	s.Track(&tracked{name: "buffer", log: &log})

	if err := a.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	want := "buffer program context"
	if got := join(log); got != want {
		t.Errorf("release order = %q, want %q", got, want)
	}
}

func TestArena_Idempotent(t *testing.T) {
	t.Parallel()
	var log []string
	obj := &tracked{name: "kernel", log: &log}
	a := NewArena()
	a.Track(obj)
	s := a.Scope()
	buf := &tracked{name: "buffer", log: &log}
	s.Track(buf)

	_ = s.Release()
	_ = s.Release()
	_ = a.Release()
	_ = a.Release()
	if obj.count != 1 || buf.count != 1 {
		t.Errorf("release counts = %d, %d; want 1, 1", obj.count, buf.count)
	}
}

func TestArena_AfterRelease(t *testing.T) {
	t.Parallel()
	var log []string
	a := NewArena()
	_ = a.Release()
	late := &tracked{name: "late", log: &log}
	a.Track(late)
	if late.count != 1 || a.Len() != 0 {
		t.Error("objects tracked after release must be released at once")
	}
	s := a.Scope()
	child := &tracked{name: "child", log: &log}
	s.Track(child)
	if child.count != 1 {
		t.Error("scope of a released arena must be released")
	}
}

func TestArena_JoinsErrors(t *testing.T) {
	t.Parallel()
	var log []string
	boom := errors.New("boom")
	a := NewArena()
	a.Track(&tracked{name: "a", log: &log, err: boom})
	a.Track(&tracked{name: "b", log: &log})
	if err := a.Release(); !errors.Is(err, boom) {
		t.Errorf("Release() error = %v, want boom", err)
	}
	if len(log) != 2 {
		t.Error("a failing release must not stop the others")
	}
}

func join(s []string) string {
	out := ""
	for i, x := range s {
		if i > 0 {
			out += " "
		}
		out += x
	}
	return out
}

package mocks

import (
	"errors"
	"testing"

	"github.com/AndreyAkinshin/conform/internal/cl"
)

func TestNewPlatform_Defaults(t *testing.T) {
	t.Parallel()
	p := NewPlatform("test")

	if p.Name() != "test" {
		t.Errorf("Name() = %q, want %q", p.Name(), "test")
	}
	if p.Version() != "OpenCL 1.2 Mock" {
		t.Errorf("Version() = %q", p.Version())
	}
	if devices, err := p.Devices(); err != nil || len(devices) != 0 {
		t.Errorf("Devices() = %v, %v; want empty", devices, err)
	}
}

func TestPlatform_WithDevice(t *testing.T) {
	t.Parallel()
	d := NewDevice("gpu").WithCVersion("OpenCL C 2.0 ").WithExtensions("cl_khr_fp64")
	p := NewPlatform("test").WithDevice(d)

	devices, err := p.Devices()
	if err != nil || len(devices) != 1 {
		t.Fatalf("Devices() = %v, %v", devices, err)
	}
	if devices[0].Platform() != p {
		t.Error("device does not point back to its platform")
	}
	if devices[0].CVersion() != "OpenCL C 2.0 " || devices[0].Extensions() != "cl_khr_fp64" {
		t.Errorf("device = %q %q", devices[0].CVersion(), devices[0].Extensions())
	}
}

func TestBackend_WithError(t *testing.T) {
	t.Parallel()
	boom := errors.New("no ICD")
	if _, err := NewBackend().WithError(boom).Platforms(); !errors.Is(err, boom) {
		t.Errorf("Platforms() error = %v, want %v", err, boom)
	}
}

func TestPlatform_FailOn(t *testing.T) {
	t.Parallel()
	p := NewPlatform("test").FailOn(OpCreateContext)

	_, err := p.CreateContext()
	var clErr *cl.Error
	if !errors.As(err, &clErr) || clErr.Op != OpCreateContext || clErr.Code != -5 {
		t.Errorf("CreateContext() error = %v", err)
	}
	if p.Live() != 0 {
		t.Errorf("Live() = %d after failed create", p.Live())
	}
}

func TestPlatform_ObjectTracking(t *testing.T) {
	t.Parallel()
	p := NewPlatform("test")
	ctx, err := p.CreateContext()
	if err != nil {
		t.Fatal(err)
	}
	buf, err := ctx.CreateBuffer(16)
	if err != nil {
		t.Fatal(err)
	}
	if p.Live() != 2 {
		t.Errorf("Live() = %d, want 2", p.Live())
	}
	if err := buf.Release(); err != nil {
		t.Fatal(err)
	}
	if err := buf.Release(); err == nil {
		t.Error("second Release() succeeded")
	}
	_ = ctx.Release()
	if p.Live() != 0 || p.DoubleReleases() != 1 {
		t.Errorf("Live() = %d, DoubleReleases() = %d; want 0, 1", p.Live(), p.DoubleReleases())
	}
}

func TestProgram_Build(t *testing.T) {
	t.Parallel()
	p := NewPlatform("test").WithKernel("k", func(*Args, []int) error { return nil })
	ctx, _ := p.CreateContext()

	broken, _ := ctx.CreateProgramWithSource("#error nope\nkernel void k() {}")
	if err := broken.Build(nil, "-O0"); err == nil {
		t.Error("Build() of #error source succeeded")
	}
	if got := broken.BuildLog(nil); got != "error: #error nope" {
		t.Errorf("BuildLog() = %q", got)
	}
	if _, err := broken.CreateKernel("k"); err == nil {
		t.Error("CreateKernel() on unbuilt program succeeded")
	}

	good, _ := ctx.CreateProgramWithSource("kernel void k() {}")
	if err := good.Build(nil, ""); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if _, err := good.CreateKernel("missing"); err == nil {
		t.Error("CreateKernel() of unknown kernel succeeded")
	}
	if _, err := good.CreateKernel("k"); err != nil {
		t.Errorf("CreateKernel() error: %v", err)
	}
	if got := p.Builds(); len(got) != 2 || got[0] != "-O0" {
		t.Errorf("Builds() = %q", got)
	}
}

func TestQueue_EnqueueNDRange(t *testing.T) {
	t.Parallel()
	p := NewPlatform("test").WithKernel("inc", func(args *Args, global []int) error {
		v := Int32s(args.Buffer(0))
		for i := range v {
			v[i]++
		}
		PutInt32s(args.Buffer(0), v)
		return nil
	})
	ctx, _ := p.CreateContext()
	prog, _ := ctx.CreateProgramWithSource("")
	_ = prog.Build(nil, "")
	k, _ := prog.CreateKernel("inc")
	q, _ := ctx.CreateQueue(nil)
	buf, _ := ctx.CreateBuffer(8)

	in := make([]byte, 8)
	PutInt32s(in, []int32{1, -1})
	if err := q.WriteBuffer(buf, in); err != nil {
		t.Fatal(err)
	}
	if err := k.SetArgBuffer(0, buf); err != nil {
		t.Fatal(err)
	}
	if err := q.EnqueueNDRange(k, 1, []int{2}, []int{3}); err == nil {
		t.Error("EnqueueNDRange() accepted a local size that does not divide the global size")
	}
	if err := q.EnqueueNDRange(k, 1, []int{2}, nil); err != nil {
		t.Fatalf("EnqueueNDRange() error: %v", err)
	}
	out := make([]byte, 8)
	if err := q.ReadBuffer(buf, out); err != nil {
		t.Fatal(err)
	}
	if got := Int32s(out); got[0] != 2 || got[1] != 0 {
		t.Errorf("buffer = %v, want [2 0]", got)
	}
	if p.Enqueued() != 1 {
		t.Errorf("Enqueued() = %d, want 1", p.Enqueued())
	}
}

func TestArgs_NullAndValue(t *testing.T) {
	t.Parallel()
	args := newArgs()
	args.values[1] = []byte{1, 2, 3, 4}
	args.buffers[0] = nil

	if !args.IsNull(0) || args.IsNull(1) || args.IsNull(2) {
		t.Error("IsNull() mismatch")
	}
	if args.Buffer(0) != nil || len(args.Value(1)) != 4 {
		t.Error("Buffer()/Value() mismatch")
	}
}

func TestFloat32s_RoundTrip(t *testing.T) {
	t.Parallel()
	b := make([]byte, 8)
	PutFloat32s(b, []float32{1.5, -0})
	if got := Float32s(b); got[0] != 1.5 || got[1] != 0 {
		t.Errorf("Float32s() = %v", got)
	}
}

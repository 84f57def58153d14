// Package integration contains integration tests for conform.
package integration

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/harness"
	"github.com/AndreyAkinshin/conform/internal/programtest"
	"github.com/AndreyAkinshin/conform/internal/result"
	"github.com/AndreyAkinshin/conform/internal/testing/mocks"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

func addKernel(args *mocks.Args, global []int) error {
	a, b := mocks.Int32s(args.Buffer(0)), mocks.Int32s(args.Buffer(1))
	c := make([]int32, global[0])
	for i := range c {
		c[i] = a[i] + b[i]
	}
	mocks.PutInt32s(args.Buffer(2), c)
	return nil
}

func scaleKernel(args *mocks.Args, global []int) error {
	in, k := mocks.Float32s(args.Buffer(0)), mocks.Float32s(args.Value(1))[0]
	out := make([]float32, global[0])
	for i := range out {
		out[i] = in[i] * k
	}
	mocks.PutFloat32s(args.Buffer(2), out)
	return nil
}

// newPlatform returns a platform with two devices that implements every
// kernel of the fixture programs.
func newPlatform() *mocks.Platform {
	return mocks.NewPlatform("Integration Platform").
		WithExtensions("cl_khr_icd").
		WithDevice(mocks.NewDevice("gpu0").WithExtensions("cl_khr_fp64")).
		WithDevice(mocks.NewDevice("cpu0").WithVersion("OpenCL 1.1 Mock").WithCVersion("OpenCL C 1.1 ")).
		WithKernel("add", addKernel).
		WithKernel("scale", scaleKernel)
}

var registerOnce sync.Once

// registerBackend makes newPlatform available to the CLI as --backend=mock.
func registerBackend() {
	registerOnce.Do(func() {
		cl.RegisterBackend("mock", func() (cl.Backend, error) {
			return mocks.NewBackend(newPlatform()).WithName("mock"), nil
		})
	})
}

func runFixture(t *testing.T, p *mocks.Platform, name string) (result.Result, []string) {
	t.Helper()
	prog, err := programtest.Load(filepath.Join(fixturesDir(), "programs", name), "")
	if err != nil {
		t.Fatalf("Load(%s) error: %v", name, err)
	}
	var buf bytes.Buffer
	r := &harness.Runner{Backend: mocks.NewBackend(p), Reporter: result.NewReporter(&buf)}
	tester := programtest.NewTester(prog, 1)
	res, err := r.Run(tester.Config(), tester)
	if err != nil {
		t.Fatalf("Run(%s) error: %v", name, err)
	}
	if p.Live() != 0 {
		t.Errorf("%s: %d device objects leaked", name, p.Live())
	}
	return res, strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestProgramFixtures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		file         string
		wantSubtests int
	}{
		{"add.program_test", 4},
		{"scale.cl", 4},
		{"syntax_error.program_test", 0},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			t.Parallel()
			res, lines := runFixture(t, newPlatform(), tt.file)
			if res != result.Pass {
				t.Errorf("Run() = %v, want pass\n%s", res, strings.Join(lines, "\n"))
			}
			n := 0
			for _, line := range lines {
				if strings.Contains(line, `"subtest"`) {
					n++
					if !strings.HasSuffix(line, `:"pass"}}`) {
						t.Errorf("sub-test did not pass: %s", line)
					}
				}
			}
			if n != tt.wantSubtests {
				t.Errorf("got %d sub-test lines, want %d", n, tt.wantSubtests)
			}
		})
	}
}

func TestProgramFixtures_WrongKernelFails(t *testing.T) {
	t.Parallel()
	p := newPlatform().WithKernel("add", func(args *mocks.Args, global []int) error {
		mocks.PutInt32s(args.Buffer(2), make([]int32, global[0]))
		return nil
	})
	res, _ := runFixture(t, p, "add.program_test")
	if res != result.Fail {
		t.Errorf("Run() = %v, want fail", res)
	}
}

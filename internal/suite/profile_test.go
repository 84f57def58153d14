package suite

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AndreyAkinshin/conform/internal/errors"
)

func TestParseProfile(t *testing.T) {
	t.Parallel()
	p, warnings, err := ParseProfile("ci.toml", `
jobs = 3
timeout = "90s"
max_proc_mem = 0
env = ["OCL_ICD_VENDORS=/etc/OpenCL/vendors"]
backend = "opencl"
platform = "Mock Platform"
seed = 9
exclude = ["^glx-", "double$"]
retries = 2
`)
	if err != nil {
		t.Fatalf("ParseProfile() error: %v", err)
	}
	if diff := cmp.Diff([]string{`unknown field "retries" (ignored)`}, warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
	if p.jobs() != 3 || p.timeout() != 90*time.Second || p.maxProcMem() != 0 {
		t.Errorf("jobs/timeout/mem = %d %v %d", p.jobs(), p.timeout(), p.maxProcMem())
	}
	if p.Seed == nil || *p.Seed != 9 || p.Backend != "opencl" || p.Platform != "Mock Platform" {
		t.Errorf("profile = %+v", p)
	}
	for name, want := range map[string]bool{
		"glx-visuals":       true,
		"builtins/double":   true,
		"builtins/double_x": false,
		"api-glx-info":      false,
	} {
		if got := p.Excluded(name); got != want {
			t.Errorf("Excluded(%q) = %v, want %v", name, got, want)
		}
	}
	env := p.environ()
	if len(env) == 0 || env[len(env)-1] != "OCL_ICD_VENDORS=/etc/OpenCL/vendors" {
		t.Errorf("environ() tail = %v", env[len(env)-1:])
	}
}

func TestDefaultProfile(t *testing.T) {
	t.Parallel()
	p := DefaultProfile()
	if p.jobs() != runtime.NumCPU() || p.timeout() != DefaultTimeout || p.maxProcMem() != DefaultMaxProcMem {
		t.Errorf("defaults = %d %v %d", p.jobs(), p.timeout(), p.maxProcMem())
	}
	if p.environ() != nil || p.Excluded("anything") {
		t.Error("default profile should inherit the environment and exclude nothing")
	}
}

func TestParseProfile_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		text string
		kind errors.ErrorKind
	}{
		{"malformed toml", "jobs = ", errors.KindConfig},
		{"schema violation", "jobs = 0", errors.KindValidation},
		{"bad duration", `timeout = "5 minutes"`, errors.KindValidation},
		{"bad exclude", `exclude = ["("]`, errors.KindConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := ParseProfile("p.toml", tt.text); !errors.Is(err, tt.kind) {
				t.Errorf("ParseProfile() error = %v, want kind %v", err, tt.kind)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "p.toml")
	if err := os.WriteFile(path, []byte("jobs = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, _, err := LoadProfile(path)
	if err != nil || p.Jobs != 2 {
		t.Errorf("LoadProfile() = %+v, %v", p, err)
	}
	if _, _, err := LoadProfile(path + ".missing"); !errors.Is(err, errors.KindConfig) {
		t.Errorf("LoadProfile(missing) error = %v", err)
	}
}

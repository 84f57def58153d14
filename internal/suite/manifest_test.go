package suite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AndreyAkinshin/conform/internal/errors"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadManifest_Cases(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"suite.yaml": `
name: cl
tests:
  - program: programs/add.program_test
  - program: programs/k.cl
    config: programs/k.program_test
    name: k with config
    timeout: 30s
  - programs: builtins/*.cl
    args: ["-seed", "3"]
  - test: api-platform-info
  - command: ./bin/glx-visuals -auto "a b"
`,
		"programs/add.program_test": "",
		"programs/k.cl":             "",
		"programs/k.program_test":   "",
		"builtins/abs.cl":           "",
		"builtins/max.cl":           "",
		"builtins/notes.txt":        "",
	})

	m, warnings, err := LoadManifest(filepath.Join(dir, "suite.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	cases, err := m.Cases()
	if err != nil {
		t.Fatalf("Cases() error: %v", err)
	}

	want := []Case{
		{Name: "programs/add", Kind: KindProgram, Target: filepath.Join(dir, "programs/add.program_test"), Dir: dir},
		{
			Name: "k with config", Kind: KindProgram, Target: filepath.Join(dir, "programs/k.cl"),
			Config: filepath.Join(dir, "programs/k.program_test"), Dir: dir, Timeout: 30 * time.Second,
		},
		{Name: "builtins/abs", Kind: KindProgram, Target: filepath.Join(dir, "builtins/abs.cl"), Args: []string{"-seed", "3"}, Dir: dir},
		{Name: "builtins/max", Kind: KindProgram, Target: filepath.Join(dir, "builtins/max.cl"), Args: []string{"-seed", "3"}, Dir: dir},
		{Name: "api-platform-info", Kind: KindTest, Target: "api-platform-info", Dir: dir},
		{Name: "glx-visuals", Kind: KindCommand, Command: []string{"./bin/glx-visuals", "-auto", "a b"}, Dir: dir},
	}
	if diff := cmp.Diff(want, cases); diff != "" {
		t.Errorf("Cases() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadManifest_UnknownFields(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{"suite.yaml": `
name: x
owner: gfx
tests:
  - test: a
    retries: 3
`})
	_, warnings, err := LoadManifest(filepath.Join(dir, "suite.yaml"))
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	want := []string{
		`unknown field "owner" at root level (ignored)`,
		`unknown field "retries" in test 1 (ignored)`,
	}
	if diff := cmp.Diff(want, warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		manifest string
		kind     errors.ErrorKind
	}{
		{"malformed yaml", "name: [", errors.KindConfig},
		{"schema violation", "name: x\ntests:\n  - test: a\n    command: b\n", errors.KindValidation},
		{"missing tests", "name: x\n", errors.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := writeFiles(t, map[string]string{"suite.yaml": tt.manifest})
			_, _, err := LoadManifest(filepath.Join(dir, "suite.yaml"))
			if !errors.Is(err, tt.kind) {
				t.Errorf("LoadManifest() error = %v, want kind %v", err, tt.kind)
			}
		})
	}

	_, _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, errors.KindConfig) {
		t.Errorf("missing file: error = %v", err)
	}
}

func TestManifest_CasesErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tests := []struct {
		name  string
		entry []Entry
	}{
		{"duplicate names", []Entry{{Test: "a"}, {Test: "b", Name: "a"}}},
		{"glob without matches", []Entry{{Programs: "*.cl"}}},
		{"bad timeout", []Entry{{Test: "a", Timeout: "soon"}}},
		{"unterminated quote", []Entry{{Command: `run "x`}}},
		{"empty entry", []Entry{{Name: "nothing"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := &Manifest{Name: "x", Tests: tt.entry, Dir: dir}
			if _, err := m.Cases(); !errors.Is(err, errors.KindConfig) {
				t.Errorf("Cases() error = %v, want config error", err)
			}
		})
	}
}

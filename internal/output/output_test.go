package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"

	"github.com/AndreyAkinshin/conform/internal/result"
)

// newTestWriter returns a colourless Writer and its captured streams.
func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return NewWithWriters(&stdout, &stderr, false), &stdout, &stderr
}

func TestNew(t *testing.T) {
	w := New()
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.out == nil {
		t.Error("out writer is nil")
	}
	if w.err == nil {
		t.Error("err writer is nil")
	}
}

func TestWriter_SetQuiet(t *testing.T) {
	w, _, _ := newTestWriter()

	w.SetQuiet(true)
	if !w.quiet {
		t.Error("SetQuiet(true) did not set quiet")
	}

	w.SetQuiet(false)
	if w.quiet {
		t.Error("SetQuiet(false) did not unset quiet")
	}
}

func TestWriter_Println(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.Println("hello %s", "world")

	if got := stdout.String(); got != "hello world\n" {
		t.Errorf("Println() = %q, want %q", got, "hello world\n")
	}
}

func TestWriter_Error(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.Error("error %d", 42)

	if got := stderr.String(); got != "error 42" {
		t.Errorf("Error() = %q, want %q", got, "error 42")
	}
}

func TestWriter_Errorln(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.Errorln("error %d", 42)

	if got := stderr.String(); got != "error 42\n" {
		t.Errorf("Errorln() = %q, want %q", got, "error 42\n")
	}
}

func TestWriter_Info(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		expect string
	}{
		{"normal mode", false, "info message\n"},
		{"quiet mode", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.quiet = tt.quiet

			w.Info("info %s", "message")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("Info() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_TestStart(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		expect string
	}{
		{"normal", false, "─── [add] Mock Device ───\n"},
		{"quiet mode", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.quiet = tt.quiet

			w.TestStart("add", "Mock Device")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("TestStart() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_Result(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		color  bool
		res    result.Result
		expect string
	}{
		{"pass", false, false, result.Pass, "Pass add\n"},
		{"fail", false, false, result.Fail, "Fail add\n"},
		{"skip quiet", true, false, result.Skip, ""},
		{"fail quiet", true, false, result.Fail, "Fail add\n"},
		{"warn color", false, true, result.Warn, "\033[33mWarn\033[0m add\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.quiet = tt.quiet
			w.color = tt.color

			w.Result("add", tt.res)

			if got := stdout.String(); got != tt.expect {
				t.Errorf("Result() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_Failure(t *testing.T) {
	testErr := errors.New("build failed")

	tests := []struct {
		name   string
		color  bool
		expect string
	}{
		{"without color", false, "[add] failed: build failed\n"},
		{"with color", true, "\033[31m[add] failed:\033[0m build failed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, stderr := newTestWriter()
			w.color = tt.color

			w.Failure("add", testErr)

			if got := stderr.String(); got != tt.expect {
				t.Errorf("Failure() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	want := map[result.Result]string{
		result.Pass: "Pass",
		result.Fail: "Fail",
		result.Warn: "Warn",
		result.Skip: "Skip",
	}
	for r, label := range want {
		if got := Label(r); got != label {
			t.Errorf("Label(%v) = %q, want %q", r, got, label)
		}
	}
}

func TestWriter_Debug(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.Debug("hidden")
	if stderr.Len() != 0 {
		t.Errorf("Debug() without verbose wrote %q", stderr.String())
	}

	w.SetVerbose(true)
	w.Debug("device %s rejected", "cpu")
	if got := stderr.String(); got != "device cpu rejected\n" {
		t.Errorf("Debug() = %q", got)
	}
}

func TestWriter_Command(t *testing.T) {
	w, _, stderr := newTestWriter()

	w.Command("", []string{"conform", "program", "a.cl"})
	if stderr.Len() != 0 {
		t.Errorf("Command() without trace wrote %q", stderr.String())
	}

	w.SetTrace(true)
	argv := []string{"conform", "program", "-config", "a b.program_test"}
	w.Command("/tmp/my tests", argv)
	line := strings.TrimSuffix(stderr.String(), "\n")
	if !strings.HasPrefix(line, "+ cd ") {
		t.Fatalf("Command() = %q, want cd prefix", line)
	}
	words, err := shellquote.Split(strings.TrimPrefix(line, "+ "))
	if err != nil {
		t.Fatalf("traced line does not split: %v", err)
	}
	want := append([]string{"cd", "/tmp/my tests", "&&"}, argv...)
	if strings.Join(words, "|") != strings.Join(want, "|") {
		t.Errorf("traced words = %q, want %q", words, want)
	}
}

func TestWriter_Section(t *testing.T) {
	tests := []struct {
		name   string
		quiet  bool
		color  bool
		expect string
	}{
		{"normal without color", false, false, "\n=== Build ===\n"},
		{"normal with color", false, true, "\n\033[1m=== Build ===\033[0m\n"},
		{"quiet mode", true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.quiet = tt.quiet
			w.color = tt.color

			w.Section("Build")

			if got := stdout.String(); got != tt.expect {
				t.Errorf("Section() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_List(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.List([]string{"item1", "item2", "item3"})

	expected := "  - item1\n  - item2\n  - item3\n"
	if got := stdout.String(); got != expected {
		t.Errorf("List() = %q, want %q", got, expected)
	}
}

func TestWriter_List_Empty(t *testing.T) {
	w, stdout, _ := newTestWriter()

	w.List([]string{})

	if got := stdout.String(); got != "" {
		t.Errorf("List() with empty slice = %q, want empty", got)
	}
}

func TestWriter_HelpFlag(t *testing.T) {
	tests := []struct {
		name   string
		color  bool
		expect string
	}{
		{"plain", false, "  -seed <n>    Seed\n"},
		{"color", true, "  \033[33m-seed \033[0m\033[32m<n>\033[0m\033[33m\033[0m    \033[2mSeed\033[0m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, stdout, _ := newTestWriter()
			w.SetColor(tt.color)

			w.HelpFlag("-seed <n>", "Seed", 11)

			if got := stdout.String(); got != tt.expect {
				t.Errorf("HelpFlag() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestWriter_HelpUsage_UnclosedPlaceholder(t *testing.T) {
	w, stdout, _ := newTestWriter()
	w.SetColor(true)

	w.HelpUsage("conform <cmd> [<args")

	want := "  conform \033[0m\033[32m<cmd>\033[0m [<args\n"
	if got := stdout.String(); got != want {
		t.Errorf("HelpUsage() = %q, want %q", got, want)
	}
}

func TestWriter_Messages(t *testing.T) {
	w, stdout, stderr := newTestWriter()

	w.ErrorPrefix("bad %s", "suite")
	w.WarningSimple("no platforms")
	w.SummaryItem("Total", "3")
	w.SummaryFailed("Failed", "1")
	w.ValidationSuccess("%s: ok", "add.program_test")

	if got, want := stderr.String(), "conform: bad suite\nwarning: no platforms\n"; got != want {
		t.Errorf("stderr = %q, want %q", got, want)
	}
	if got, want := stdout.String(), "  Total: 3\n  Failed: 1\nadd.program_test: ok\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

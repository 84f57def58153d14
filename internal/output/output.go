// Package output provides formatted output utilities for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/conform/internal/result"
)

// Writer handles CLI output formatting. It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	err     io.Writer
	color   bool
	quiet   bool
	verbose bool
	trace   bool
}

// New creates a new Writer with default settings.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: isTerminal(),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetVerbose enables or disables debug output.
func (w *Writer) SetVerbose(verbose bool) {
	w.verbose = verbose
}

// SetColor enables or disables ANSI colour.
func (w *Writer) SetColor(color bool) {
	w.color = color
}

// SetTrace enables or disables command tracing.
func (w *Writer) SetTrace(trace bool) {
	w.trace = trace
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Error writes to stderr.
func (w *Writer) Error(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.err, format, args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Debug prints a diagnostic line to stderr when verbose mode is on.
func (w *Writer) Debug(format string, args ...interface{}) {
	if !w.verbose {
		return
	}
	w.Errorln("%s", w.paint(dim, fmt.Sprintf(format, args...)))
}

// Command traces a child process invocation when tracing is on. The command
// line is shell-quoted so it can be pasted back into a shell.
func (w *Writer) Command(dir string, argv []string) {
	if !w.trace || len(argv) == 0 {
		return
	}
	line := shellquote.Join(argv...)
	if dir != "" {
		line = "cd " + shellquote.Join(dir) + " && " + line
	}
	w.Errorln("%s", w.paint(dim, "+ "+line))
}

// Info prints an info message (skipped in quiet mode).
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println(format, args...)
}

// TestStart prints the start of a test run against a device or platform.
func (w *Writer) TestStart(test, where string) {
	if w.quiet {
		return
	}
	w.Println("%s", w.paint(bold+cyan, fmt.Sprintf("─── [%s] %s ───", test, where)))
}

// Label returns the display label of a result, e.g. "Pass".
func Label(r result.Result) string {
	return cases.Title(language.English).String(r.String())
}

func resultColor(r result.Result) string {
	switch r {
	case result.Pass:
		return green
	case result.Fail:
		return red
	case result.Warn:
		return yellow
	default:
		return dim
	}
}

// Result prints the result of a named test or sub-test.
func (w *Writer) Result(name string, r result.Result) {
	if w.quiet && r != result.Fail {
		return
	}
	w.Println("%s %s", w.paint(resultColor(r), fmt.Sprintf("%-4s", Label(r))), name)
}

// Failure prints why a test or sub-test failed.
func (w *Writer) Failure(name string, err error) {
	w.Errorln("%s %v", w.paint(red, "["+name+"] failed:"), err)
}

// Section prints a section header.
func (w *Writer) Section(title string) {
	if w.quiet {
		return
	}
	w.Println("")
	w.Println("%s", w.paint(bold, "=== "+title+" ==="))
}

// List prints a list of items.
func (w *Writer) List(items []string) {
	for _, item := range items {
		w.Println("  - %s", item)
	}
}

// isTerminal reports whether stdout is a character device.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// ANSI escape sequences.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// Styles used by help output.
const (
	styleTitle       = bold + cyan
	styleSection     = bold + yellow
	styleCommand     = bold + cyan
	styleFlag        = yellow
	stylePlaceholder = green
	styleNote        = dim
	styleExample     = cyan
)

// paint wraps s in style when colour is enabled.
func (w *Writer) paint(style, s string) string {
	if !w.color || style == "" {
		return s
	}
	return style + s + reset
}

// HelpTitle prints the title line of a help page.
func (w *Writer) HelpTitle(title string) {
	w.Println("%s", w.paint(styleTitle, title))
}

// HelpSection prints a blank line followed by a section heading.
func (w *Writer) HelpSection(title string) {
	w.Println("")
	w.Println("%s", w.paint(styleSection, title))
}

// HelpCommand prints a command and its description in two columns.
func (w *Writer) HelpCommand(name, description string, width int) {
	w.helpRow(styleCommand, name, description, width)
}

// HelpFlag prints a flag and its description in two columns.
func (w *Writer) HelpFlag(name, description string, width int) {
	w.helpRow(styleFlag, name, description, width)
}

// helpRow pads name to width by its visible length, so escape sequences
// do not shift the description column.
func (w *Writer) helpRow(style, name, description string, width int) {
	pad := strings.Repeat(" ", max(width-len(name), 0))
	w.Println("  %s%s  %s", w.paint(style, w.placeholders(name, style)), pad, w.paint(styleNote, description))
}

// HelpExample prints an example invocation with an indented explanation.
func (w *Writer) HelpExample(command, description string) {
	w.Println("  %s", w.paint(styleExample, command))
	if description != "" {
		w.Println("      %s", w.paint(styleNote, description))
	}
}

// HelpUsage prints a usage line.
func (w *Writer) HelpUsage(usage string) {
	w.Println("  %s", w.placeholders(usage, ""))
}

// placeholders highlights each <name> in text, restoring style after it.
func (w *Writer) placeholders(text, style string) string {
	if !w.color {
		return text
	}
	var b strings.Builder
	for {
		start := strings.IndexByte(text, '<')
		if start < 0 {
			break
		}
		end := strings.IndexByte(text[start:], '>')
		if end < 0 {
			break
		}
		end += start + 1
		b.WriteString(text[:start])
		b.WriteString(reset + stylePlaceholder + text[start:end] + reset + style)
		text = text[end:]
	}
	b.WriteString(text)
	return b.String()
}

// ErrorPrefix prints "conform: <message>" to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	w.Errorln("%s %s", w.paint(red, "conform:"), fmt.Sprintf(format, args...))
}

// WarningSimple prints "warning: <message>" to stderr.
func (w *Writer) WarningSimple(format string, args ...interface{}) {
	w.Errorln("%s %s", w.paint(yellow, "warning:"), fmt.Sprintf(format, args...))
}

// SummaryHeader prints a "=== title ===" banner surrounded by blank lines.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	w.Println("%s", w.paint(bold+cyan, "=== "+title+" ==="))
	w.Println("")
}

// SummaryItem prints an indented "label: value" line.
func (w *Writer) SummaryItem(label, value string) {
	w.labeled(label, value, "")
}

// SummaryPassed is SummaryItem with the value in green.
func (w *Writer) SummaryPassed(label, value string) {
	w.labeled(label, value, green)
}

// SummaryFailed is SummaryItem with the value in red.
func (w *Writer) SummaryFailed(label, value string) {
	w.labeled(label, value, red)
}

// Detail prints an indented labeled detail.
func (w *Writer) Detail(label, value string) {
	w.labeled(label, value, "")
}

func (w *Writer) labeled(label, value, style string) {
	w.Println("  %s %s", w.paint(dim, label+":"), w.paint(style, value))
}

// FinalSuccess prints the closing line of a successful run.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(green, fmt.Sprintf(format, args...)))
}

// FinalFailure prints the closing line of a failed run.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(red, fmt.Sprintf(format, args...)))
}

// DeviceInfo prints a platform or device heading line.
func (w *Writer) DeviceInfo(name, kind, version string) {
	w.Println("%s (%s): %s", w.paint(cyan+bold, name), kind, version)
}

// ValidationSuccess prints a check mark before msg when colour is on.
func (w *Writer) ValidationSuccess(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		msg = w.paint(green, "✓") + " " + msg
	}
	w.Println("%s", msg)
}

// Hint prints a dimmed suggestion.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Println("%s", w.paint(dim, fmt.Sprintf(format, args...)))
}

// SummarySectionLabel prints an indented sub-heading such as "Failed:".
func (w *Writer) SummarySectionLabel(label string) {
	w.Println("  %s", w.paint(dim, label))
}

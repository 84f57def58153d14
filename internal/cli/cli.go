// Package cli provides command-line interface functionality for conform.
package cli

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/glx"
	"github.com/AndreyAkinshin/conform/internal/output"

	// Registered API tests.
	_ "github.com/AndreyAkinshin/conform/internal/clapi"
	_ "github.com/AndreyAkinshin/conform/internal/glxapi"
)

// Version is set at build time.
var Version = "dev"

// wantsHelp returns true if args contain -h or --help before any -- separator.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 0
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return 0
	case "--version", "version":
		fmt.Printf("conform %s\n", Version)
		return 0
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		return usageError("%v", err)
	}

	if len(remaining) == 0 {
		printUsage()
		return 0
	}
	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "program":
		return cmdProgram(cmdArgs, opts)
	case "test":
		return cmdTest(cmdArgs, opts)
	case "tests":
		return cmdTests(cmdArgs)
	case "platforms":
		return cmdPlatforms(cmdArgs, opts)
	case "check":
		return cmdCheck(cmdArgs)
	case "run":
		return cmdRun(cmdArgs, opts)
	case "summary":
		return cmdSummary(cmdArgs)
	default:
		code := usageError("unknown command %q", cmd)
		out.Hint("run 'conform help' for usage")
		return code
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Quiet   bool
	Verbose bool
	NoColor bool
	Trace   bool
	// Backend names the OpenCL backend; empty selects cl.DefaultBackend.
	Backend string
	// Display names the GLX display binding; empty selects glx.DefaultDisplay.
	Display string
}

// parseGlobalFlags manually parses global flags from arguments.
//
// Global flags may appear anywhere in the argument list. Arguments after --
// are passed through verbatim.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		switch {
		case arg == "-q" || arg == "--quiet":
			opts.Quiet = true
			i++
		case arg == "-v" || arg == "--verbose":
			opts.Verbose = true
			i++
		case arg == "--no-color":
			opts.NoColor = true
			i++
		case arg == "--trace" || arg == "-trace":
			opts.Trace = true
			i++
		case arg == "--backend":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--backend requires a value")
			}
			opts.Backend = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--backend="):
			opts.Backend = strings.TrimPrefix(arg, "--backend=")
			i++
		case arg == "--display":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--display requires a value")
			}
			opts.Display = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--display="):
			opts.Display = strings.TrimPrefix(arg, "--display=")
			i++
		case arg == "--":
			remaining = append(remaining, args[i:]...)
			i = len(args)
		default:
			remaining = append(remaining, arg)
			i++
		}
	}

	if err := validateGlobalOptions(opts); err != nil {
		return nil, nil, err
	}

	applyVerbosityToOutput(opts)

	return opts, remaining, nil
}

// validateGlobalOptions checks that global options are valid.
func validateGlobalOptions(opts *GlobalOptions) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	if strings.ContainsAny(opts.Backend, " \t") {
		return fmt.Errorf("invalid --backend value %q", opts.Backend)
	}
	if strings.ContainsAny(opts.Display, " \t") {
		return fmt.Errorf("invalid --display value %q", opts.Display)
	}
	return nil
}

// backendName returns the backend selected by --backend.
func (o *GlobalOptions) backendName() string {
	if o.Backend == "" {
		return cl.DefaultBackend
	}
	return o.Backend
}

// displayName returns the GLX display binding selected by --display.
func (o *GlobalOptions) displayName() string {
	if o.Display == "" {
		return glx.DefaultDisplay
	}
	return o.Display
}

func printUsage() {
	w := output.New()

	w.HelpTitle("conform - OpenCL and GLX conformance harness")

	w.HelpSection("Usage:")
	w.HelpUsage("conform [flags] <command> [args]")

	w.HelpSection("Test Commands:")
	w.HelpCommand("program <file>", "Run a program test (.program_test, .cl or .bin)", 18)
	w.HelpCommand("test <name>", "Run a registered API test", 18)
	w.HelpCommand("run <suite.yaml>", "Run a test suite and save its results", 18)

	w.HelpSection("Utility Commands:")
	w.HelpCommand("tests", "List registered OpenCL and GLX API tests", 18)
	w.HelpCommand("platforms", "List OpenCL platforms and devices", 18)
	w.HelpCommand("check <file>", "Validate a program test or suite manifest", 18)
	w.HelpCommand("summary <file>", "Summarize a saved results file", 18)
	w.HelpCommand("version", "Show version information", 18)

	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("conform program tests/add.program_test", "Run one program test on every device")
	w.HelpExample("conform program -device gpu0 -config add.program_test add.cl", "Run a kernel on one device")
	w.HelpExample("conform test api-device-info", "Check device info strings")
	w.HelpExample("conform test glx-pixmap-fbconfig", "Check pixmap-capable GLX fbconfigs")
	w.HelpExample("conform run suite.yaml -profile ci.toml -o results.json", "Run a suite in parallel")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("-q, --quiet", "Minimal output (errors only)", widthFlagWithValue)
	w.HelpFlag("-v, --verbose", "Maximum detail", widthFlagWithValue)
	w.HelpFlag("--no-color", "Disable coloured output", widthFlagWithValue)
	w.HelpFlag("--trace", "Print child process command lines", widthFlagWithValue)
	w.HelpFlag("--backend=<name>", fmt.Sprintf("OpenCL backend (default %s)", cl.DefaultBackend), widthFlagWithValue)
	w.HelpFlag("--display=<name>", fmt.Sprintf("GLX display binding (default %s)", glx.DefaultDisplay), widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)
	w.HelpFlag("--version", "Show version", widthFlagWithValue)

	w.HelpSection("Exit Status:")
	w.HelpCommand("0", "pass", 4)
	w.HelpCommand("1", "fail", 4)
	w.HelpCommand("2", "warn", 4)
	w.HelpCommand("77", "skip", 4)
}

package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/conform/internal/cl"
	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/glx"
	"github.com/AndreyAkinshin/conform/internal/harness"
	"github.com/AndreyAkinshin/conform/internal/output"
	"github.com/AndreyAkinshin/conform/internal/programtest"
	"github.com/AndreyAkinshin/conform/internal/result"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// stdout receives the machine-readable result lines of program and test
// commands.
var stdout io.Writer = os.Stdout

// Help text alignment widths for consistent formatting.
const (
	widthFlagShort     = 10 // Width for short flags like "-h, --help"
	widthFlagWithValue = 18 // Width for flags like "--backend=<name>"
)

// applyVerbosityToOutput configures the output writer based on verbosity settings.
func applyVerbosityToOutput(opts *GlobalOptions) {
	out.SetQuiet(opts.Quiet)
	out.SetVerbose(opts.Verbose)
	out.SetTrace(opts.Trace)
	if opts.NoColor {
		out.SetColor(false)
	}
}

// fail reports err and returns the exit code of its result.
func fail(err error) int {
	out.ErrorPrefix("%v", err)
	return errors.GetExitCode(err)
}

// usageError reports a command-line mistake. Invalid configuration is a
// warning, so it exits with the warn status.
func usageError(format string, args ...interface{}) int {
	return fail(errors.Configf(format, args...))
}

// openBackend opens the backend selected by --backend. A missing default
// backend means the host has no OpenCL support, which skips rather than
// fails.
func openBackend(opts *GlobalOptions) (cl.Backend, error) {
	name := opts.backendName()
	b, err := cl.OpenBackend(name)
	var unknown *cl.UnknownBackendError
	if stderrors.As(err, &unknown) {
		if name == cl.DefaultBackend {
			return nil, errors.Environmentf("%v", err)
		}
		return nil, errors.Configf("%v", err)
	}
	return b, err
}

// openDisplay opens the GLX display selected by --display. A missing default
// binding skips, as openBackend does for OpenCL.
func openDisplay(opts *GlobalOptions) (glx.Display, error) {
	name := opts.displayName()
	d, err := glx.OpenDisplay(name)
	var unknown *glx.UnknownDisplayError
	if stderrors.As(err, &unknown) {
		if name == glx.DefaultDisplay {
			return nil, errors.Environmentf("%v", err)
		}
		return nil, errors.Configf("%v", err)
	}
	return d, err
}

// selection holds the context selection flags shared by program and test.
type selection struct {
	platform string
	device   string
	seed     uint64
	rest     []string
}

// parseSelection extracts -platform, -device and, when withSeed is set,
// -seed from args. Everything else is returned in rest for the test's own
// argument parsing.
func parseSelection(args []string, withSeed bool) (*selection, error) {
	sel := &selection{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || (name != "platform" && name != "device" && (name != "seed" || !withSeed)) {
			sel.rest = append(sel.rest, arg)
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, errors.Configf("-%s requires a value", name)
			}
			i++
			value = args[i]
		}
		switch name {
		case "platform":
			sel.platform = value
		case "device":
			sel.device = value
		case "seed":
			seed, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, errors.Configf("invalid -seed value %q", value)
			}
			sel.seed = seed
		}
	}
	return sel, nil
}

// runTest opens the selected backend, calls run with a runner for it, prints
// the final result line and returns its exit code.
func runTest(opts *GlobalOptions, sel *selection, run func(r *harness.Runner) (result.Result, error)) int {
	rep := result.NewReporter(stdout)
	b, err := openBackend(opts)
	if err != nil {
		return finish(rep, errors.ResultOf(err), err)
	}
	r := &harness.Runner{
		Backend:      b,
		Reporter:     rep,
		Out:          out,
		PlatformName: sel.platform,
		DeviceName:   sel.device,
		Args:         sel.rest,
	}
	res, err := run(r)
	return finish(rep, res, err)
}

func finish(rep *result.Reporter, res result.Result, err error) int {
	if err != nil {
		out.ErrorPrefix("%v", err)
	}
	rep.Final(res)
	return res.ExitCode()
}

// cmdProgram runs a program test.
func cmdProgram(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printProgramUsage()
		return 0
	}
	sel, err := parseSelection(args, true)
	if err != nil {
		return fail(err)
	}
	tester := programtest.NewTester(nil, sel.seed)
	return runTest(opts, sel, func(r *harness.Runner) (result.Result, error) {
		return r.Run(tester.Config(), tester)
	})
}

// cmdTest runs a registered API test.
func cmdTest(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printTestUsage()
		return 0
	}
	sel, err := parseSelection(args, false)
	if err != nil {
		return fail(err)
	}
	if len(sel.rest) == 0 || strings.HasPrefix(sel.rest[0], "-") {
		return usageError("test: test name required (see 'conform tests')")
	}
	name := sel.rest[0]
	entry, err := harness.Lookup(name)
	if errors.Is(err, errors.KindNotFound) {
		if test, gerr := glx.Lookup(name); gerr == nil {
			return runGLXTest(opts, sel, name, test)
		}
	}
	if err != nil {
		return fail(err)
	}
	sel.rest = sel.rest[1:]
	return runTest(opts, sel, func(r *harness.Runner) (result.Result, error) {
		return r.Run(entry.Config(), entry.Test)
	})
}

// runGLXTest runs a registered GLX test against the selected display.
func runGLXTest(opts *GlobalOptions, sel *selection, name string, test glx.Test) int {
	if sel.platform != "" || sel.device != "" {
		return usageError("test: -platform and -device do not apply to GLX test %s", name)
	}
	if len(sel.rest) > 1 {
		return usageError("test: unexpected argument %q", sel.rest[1])
	}
	rep := result.NewReporter(stdout)
	d, err := openDisplay(opts)
	if err != nil {
		return finish(rep, errors.ResultOf(err), err)
	}
	defer func() { _ = d.Close() }()
	r := &glx.Runner{Display: d, Reporter: rep, Out: out}
	res, err := r.Run(name, test)
	return finish(rep, res, err)
}

// cmdTests lists registered API tests.
func cmdTests(args []string) int {
	if wantsHelp(args) {
		out.HelpTitle("conform tests - list registered API tests")
		out.HelpSection("Usage:")
		out.HelpUsage("conform tests")
		out.Println("")
		return 0
	}
	if len(args) > 0 {
		return usageError("tests: unexpected argument %q", args[0])
	}
	names := append(harness.Names(), glx.Names()...)
	sort.Strings(names)
	for _, name := range names {
		out.Println("%s", name)
	}
	return 0
}

// cmdPlatforms lists the platforms and devices of the selected backend.
func cmdPlatforms(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		out.HelpTitle("conform platforms - list OpenCL platforms and devices")
		out.HelpSection("Usage:")
		out.HelpUsage("conform [--backend=<name>] platforms")
		out.Println("")
		return 0
	}
	if len(args) > 0 {
		return usageError("platforms: unexpected argument %q", args[0])
	}
	b, err := openBackend(opts)
	if err != nil {
		return fail(err)
	}
	platforms, err := b.Platforms()
	if err != nil {
		return fail(errors.Wrap(err, "failed to query platforms"))
	}
	if len(platforms) == 0 {
		out.WarningSimple("backend %q reports no platforms", b.Name())
		return result.ExitSkip
	}
	for _, p := range platforms {
		out.DeviceInfo(p.Name(), "platform", p.Version())
		out.Detail("vendor", p.Vendor())
		if ext := p.Extensions(); ext != "" {
			out.Detail("extensions", ext)
		}
		devices, err := p.Devices()
		if err != nil {
			return fail(errors.Wrapf(err, "failed to query devices of platform %q", p.Name()))
		}
		for _, d := range devices {
			out.Detail("device", fmt.Sprintf("%s (%s, %s)", d.Name(), strings.TrimSpace(d.Version()), strings.TrimSpace(d.CVersion())))
		}
	}
	return 0
}

func printProgramUsage() {
	out.HelpTitle("conform program - run a program test")

	out.HelpSection("Usage:")
	out.HelpUsage("conform program [options] CONFIG.program_test")
	out.HelpUsage("conform program [options] [-config CONFIG.program_test] PROGRAM.cl|PROGRAM.bin")

	out.HelpSection("Options:")
	out.HelpFlag("-platform <name>", "Run on the platform with this exact name", widthFlagWithValue)
	out.HelpFlag("-device <name>", "Run on the device with this exact name", widthFlagWithValue)
	out.HelpFlag("-seed <n>", "Seed for RANDOM buffers (default 0)", widthFlagWithValue)
	out.HelpFlag("-config <file>", "Test description for a .cl or .bin program", widthFlagWithValue)
	out.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	out.HelpSection("Examples:")
	out.HelpExample("conform program add.program_test", "Run a program test on every device")
	out.HelpExample("conform program -device gpu0 add.cl", "Build and run a kernel with an embedded description")
	out.Println("")
}

func printTestUsage() {
	out.HelpTitle("conform test - run a registered OpenCL or GLX API test")

	out.HelpSection("Usage:")
	out.HelpUsage("conform test [-platform <name>] [-device <name>] <name> [args]")

	out.HelpSection("Options:")
	out.HelpFlag("-platform <name>", "Run on the platform with this exact name", widthFlagWithValue)
	out.HelpFlag("-device <name>", "Run on the device with this exact name", widthFlagWithValue)
	out.HelpFlag("-h, --help", "Show this help", widthFlagShort)

	out.HelpSection("Examples:")
	out.HelpExample("conform tests", "List test names")
	out.HelpExample("conform test api-platform-info", "Check platform info strings")
	out.HelpExample("conform --display=x11 test glx-visual-config", "Check the GLX attributes of every GL visual")
	out.Println("")
}

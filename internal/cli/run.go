package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/AndreyAkinshin/conform/internal/errors"
	"github.com/AndreyAkinshin/conform/internal/suite"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	manifest string
	profile  string
	output   string
	jobs     int
}

func parseRunArgs(args []string) (*runOptions, error) {
	opts := &runOptions{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			if opts.manifest != "" {
				return nil, errors.Configf("run: unexpected argument %q", arg)
			}
			opts.manifest = arg
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch name {
		case "profile", "o", "j":
		default:
			return nil, errors.Configf("run: unknown option %q", arg)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, errors.Configf("run: -%s requires a value", name)
			}
			i++
			value = args[i]
		}
		switch name {
		case "profile":
			opts.profile = value
		case "o":
			opts.output = value
		case "j":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, errors.Configf("run: invalid -j value %q", value)
			}
			opts.jobs = n
		}
	}
	if opts.manifest == "" {
		return nil, errors.Configf("run: suite manifest required")
	}
	return opts, nil
}

// cmdRun runs every case of a suite manifest as a child process.
func cmdRun(args []string, gopts *GlobalOptions) int {
	if wantsHelp(args) {
		printRunUsage()
		return 0
	}
	opts, err := parseRunArgs(args)
	if err != nil {
		return fail(err)
	}

	m, warnings, err := suite.LoadManifest(opts.manifest)
	if err != nil {
		return fail(err)
	}
	for _, w := range warnings {
		out.WarningSimple("%s: %s", opts.manifest, w)
	}
	cases, err := m.Cases()
	if err != nil {
		return fail(err)
	}

	profile := suite.DefaultProfile()
	if opts.profile != "" {
		if profile, warnings, err = suite.LoadProfile(opts.profile); err != nil {
			return fail(err)
		}
		for _, w := range warnings {
			out.WarningSimple("%s: %s", opts.profile, w)
		}
	}
	if opts.jobs > 0 {
		profile.Jobs = opts.jobs
	}
	if gopts.Backend != "" {
		profile.Backend = gopts.Backend
	}

	self, err := os.Executable()
	if err != nil {
		return fail(errors.Environmentf("cannot locate the conform executable: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out.Section(fmt.Sprintf("Running %s (%d tests)", m.Name, len(cases)))
	r := &suite.Runner{Self: self, Profile: profile, Out: out}
	res, runErr := r.Run(ctx, m.Name, cases)
	if runErr != nil {
		out.ErrorPrefix("run interrupted: %v", runErr)
	}

	if opts.output != "" {
		if err := res.Save(opts.output); err != nil {
			return fail(err)
		}
		out.Info("Results saved to %s", opts.output)
	}

	printResultsSummary(res)
	return res.Result().ExitCode()
}

func printRunUsage() {
	out.HelpTitle("conform run - run a test suite")

	out.HelpSection("Usage:")
	out.HelpUsage("conform run <suite.yaml> [-profile <file>] [-o <file>] [-j <n>]")

	out.HelpSection("Options:")
	out.HelpFlag("-profile <file>", "TOML run profile", widthFlagWithValue)
	out.HelpFlag("-o <file>", "Save results as JSON", widthFlagWithValue)
	out.HelpFlag("-j <n>", "Tests to run in parallel (default: CPUs)", widthFlagWithValue)
	out.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	out.HelpSection("Profile:")
	out.Println("%s", suite.ProfileHelp)

	out.HelpSection("Examples:")
	out.HelpExample("conform run suite.yaml", "Run a suite")
	out.HelpExample("conform run suite.yaml -profile ci.toml -o results.json", "Run with a profile and save results")
	out.HelpExample("conform summary results.json", "Summarize saved results")
	out.Println("")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/AndreyAkinshin/conform/internal/config"
	"github.com/AndreyAkinshin/conform/internal/programtest"
	"github.com/AndreyAkinshin/conform/internal/suite"
)

// cmdCheck validates program tests, suite manifests and run profiles without
// touching a backend.
func cmdCheck(args []string) int {
	if wantsHelp(args) {
		printCheckUsage()
		return 0
	}
	if len(args) == 0 {
		return usageError("check: file required")
	}

	code := 0
	for _, path := range args {
		var err error
		switch filepath.Ext(path) {
		case ".program_test", ".cl":
			err = checkProgram(path)
		case ".yaml", ".yml":
			err = checkSuite(path)
		case ".toml":
			err = checkProfile(path)
		default:
			code = max(code, usageError("check: %s: expected a .program_test, .cl, .yaml or .toml file", path))
			continue
		}
		if err != nil {
			code = max(code, fail(err))
		}
	}
	return code
}

func checkProgram(path string) error {
	prog, err := programtest.Load(path, "")
	if err != nil {
		return err
	}
	if _, err := config.Validate(prog.Config); err != nil {
		return err
	}
	if _, _, err := prog.Payload(); err != nil {
		return err
	}
	out.ValidationSuccess("%s is valid.", path)
	out.SummaryItem("Test", prog.Config.Name)
	out.SummaryItem("Sub-tests", fmt.Sprintf("%d", len(prog.Tests)))
	return nil
}

func checkSuite(path string) error {
	m, warnings, err := suite.LoadManifest(path)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		out.WarningSimple("%s: %s", path, w)
	}
	cases, err := m.Cases()
	if err != nil {
		return err
	}
	out.ValidationSuccess("%s is valid.", path)
	out.SummaryItem("Suite", m.Name)
	out.SummaryItem("Tests", fmt.Sprintf("%d", len(cases)))
	if len(warnings) > 0 {
		out.SummaryItem("Warnings", fmt.Sprintf("%d", len(warnings)))
	}
	return nil
}

func checkProfile(path string) error {
	p, warnings, err := suite.LoadProfile(path)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		out.WarningSimple("%s: %s", path, w)
	}
	out.ValidationSuccess("%s is valid.", path)
	if len(p.Exclude) > 0 {
		out.SummaryItem("Excludes", fmt.Sprintf("%d", len(p.Exclude)))
	}
	return nil
}

func printCheckUsage() {
	out.HelpTitle("conform check - validate test descriptions")

	out.HelpSection("Usage:")
	out.HelpUsage("conform check <file>...")

	out.HelpSection("Files:")
	out.HelpCommand(".program_test", "Program test description", 14)
	out.HelpCommand(".cl", "OpenCL C source with an embedded description", 14)
	out.HelpCommand(".yaml", "Suite manifest", 14)
	out.HelpCommand(".toml", "Run profile", 14)

	out.HelpSection("Examples:")
	out.HelpExample("conform check tests/*.program_test", "Validate every program test")
	out.HelpExample("conform check suite.yaml ci.toml", "Validate a suite and its profile")
	out.Println("")
}

package cli

import (
	"fmt"

	"github.com/AndreyAkinshin/conform/internal/output"
	"github.com/AndreyAkinshin/conform/internal/result"
	"github.com/AndreyAkinshin/conform/internal/suite"
)

// cmdSummary loads saved suite results and prints a summary.
func cmdSummary(args []string) int {
	if wantsHelp(args) {
		printSummaryUsage()
		return 0
	}
	if len(args) != 1 {
		return usageError("summary: exactly one results file required")
	}

	res, err := suite.LoadResults(args[0])
	if err != nil {
		return fail(err)
	}
	printResultsSummary(res)
	return res.Result().ExitCode()
}

// printResultsSummary prints a formatted summary of suite results.
func printResultsSummary(res *suite.Results) {
	counts := res.Counts()

	out.Println("")
	out.SummaryHeader(fmt.Sprintf("%s Summary", res.Suite))

	out.SummaryPassed(output.Label(result.Pass), fmt.Sprintf("%d", counts.Passed))
	if counts.Failed > 0 {
		out.SummaryFailed(output.Label(result.Fail), fmt.Sprintf("%d", counts.Failed))
	}
	if counts.Warned > 0 {
		out.SummaryItem(output.Label(result.Warn), fmt.Sprintf("%d", counts.Warned))
	}
	if counts.Skipped > 0 {
		out.SummaryItem(output.Label(result.Skip), fmt.Sprintf("%d", counts.Skipped))
	}
	out.SummaryItem("Total", fmt.Sprintf("%d", counts.Total))
	out.SummaryItem("Duration", formatDuration(res.Duration))

	if len(counts.FailedTests) > 0 {
		out.Println("")
		out.SummarySectionLabel("Failed Tests:")
		for _, ft := range counts.FailedTests {
			out.SummaryFailed("  "+ft.Name, ft.Reason)
		}
	}

	var warned []string
	for _, name := range res.Names() {
		if res.Tests[name].Result == result.Warn {
			warned = append(warned, res.Tests[name].String())
		}
	}
	if len(warned) > 0 {
		out.Println("")
		out.SummarySectionLabel("Warnings:")
		out.List(warned)
	}

	out.Println("")

	switch {
	case res.Error != "":
		out.FinalFailure("Run aborted after %d tests: %s", counts.Total, res.Error)
	case counts.Failed > 0:
		out.FinalFailure("%d of %d tests failed.", counts.Failed, counts.Total)
	case counts.Passed == 0 && counts.Warned == 0:
		out.FinalSuccess("All %d tests skipped.", counts.Total)
	default:
		out.FinalSuccess("No failures in %d tests.", counts.Total)
	}
}

func printSummaryUsage() {
	out.HelpTitle("conform summary - summarize saved suite results")
	out.HelpSection("Usage:")
	out.HelpUsage("conform summary <results.json>")
	out.HelpSection("Description:")
	out.Println("  Loads results saved by 'conform run -o' and prints the result counts,")
	out.Println("  highlighting failed tests with their failure reasons.")
	out.Println("")
	out.HelpSection("Examples:")
	out.HelpExample("conform run suite.yaml -o results.json", "Run a suite and save results")
	out.HelpExample("conform summary results.json", "Summarize the saved results")
	out.Println("")
}

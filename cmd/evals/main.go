// Command evals loads the wiki tool selection suites, checks them against
// the registered tools and optionally scores the keyword baseline.
//
// Usage:
//
//	go run ./cmd/evals -dir ./evals -suite all -baseline
//
// To score an LLM, implement evals.ToolSelector and call the Evaluate*
// functions from your own harness.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/olgasafonova/wikiread-mcp-server/evals"
	"github.com/olgasafonova/wikiread-mcp-server/tools"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("evals", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dir := fs.String("dir", "./evals", "Directory containing eval JSON files")
	suite := fs.String("suite", "all", "Suite to report: tool_selection, confusion_pairs, arguments, or all")
	baseline := fs.Bool("baseline", false, "Score the keyword baseline selector")
	verbose := fs.Bool("verbose", false, "Show individual test cases")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	switch *suite {
	case "tool_selection", "confusion_pairs", "arguments", "all":
	default:
		fmt.Fprintf(stderr, "Unknown suite: %s\n", *suite)
		return 2
	}

	ts, cp, as, err := evals.LoadAllEvals(*dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading evals: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "wikiread MCP Server - Evaluation Framework")
	fmt.Fprintln(stdout, "==========================================")

	names := make([]string, 0, len(tools.AllTools))
	for _, spec := range tools.AllTools {
		names = append(names, spec.Name)
	}
	if unknown := evals.UnknownTools(names, ts, cp, as); len(unknown) > 0 {
		fmt.Fprintf(stderr, "Eval data references unregistered tools: %v\n", unknown)
		return 1
	}

	var selector evals.ToolSelector
	if *baseline {
		selector = evals.KeywordSelector{}
	}

	failed := false
	if *suite == "tool_selection" || *suite == "all" {
		describeToolSelection(stdout, ts, *verbose)
		if selector != nil {
			m, _ := evals.EvaluateToolSelection(ts, selector)
			fmt.Fprint(stdout, evals.FormatMetrics(m, ts.Name))
			failed = failed || m.FailedTests > 0
		}
	}
	if *suite == "confusion_pairs" || *suite == "all" {
		describeConfusionPairs(stdout, cp, *verbose)
		if selector != nil {
			m, _ := evals.EvaluateConfusionPairs(cp, selector)
			fmt.Fprint(stdout, evals.FormatMetrics(m, cp.Name))
			failed = failed || m.FailedTests > 0
		}
	}
	if *suite == "arguments" || *suite == "all" {
		describeArguments(stdout, as, *verbose)
		if selector != nil {
			m, _ := evals.EvaluateArguments(as, selector)
			fmt.Fprint(stdout, evals.FormatMetrics(m, as.Name))
			failed = failed || m.FailedTests > 0
		}
	}

	if failed {
		return 1
	}
	return 0
}

func describeToolSelection(w io.Writer, suite *evals.ToolSelectionSuite, verbose bool) {
	fmt.Fprintf(w, "\nTool Selection Suite: %s (v%s)\n", suite.Name, suite.Version)
	fmt.Fprintf(w, "Total Tests: %d\n", len(suite.Tests))

	byTool := make(map[string]int)
	for _, test := range suite.Tests {
		byTool[test.ExpectedTool]++
	}
	fmt.Fprintln(w, "Tests by Tool:")
	for _, name := range sortedNames(byTool) {
		fmt.Fprintf(w, "  %-25s: %d\n", name, byTool[name])
	}

	if verbose {
		for _, test := range suite.Tests {
			fmt.Fprintf(w, "  [%s] %s\n    -> %s %v\n", test.ID, test.Input, test.ExpectedTool, test.ExpectedArgs)
		}
	}
}

func describeConfusionPairs(w io.Writer, suite *evals.ConfusionPairSuite, verbose bool) {
	fmt.Fprintf(w, "\nConfusion Pairs Suite: %s (v%s)\n", suite.Name, suite.Version)
	for _, pair := range suite.Pairs {
		fmt.Fprintf(w, "  %s %v: %d tests\n", pair.ID, pair.Tools, len(pair.Tests))
		if verbose {
			fmt.Fprintf(w, "    Rule: %s\n", pair.Disambiguation)
			for _, test := range pair.Tests {
				fmt.Fprintf(w, "    %q -> %s (%s)\n", test.Input, test.Expected, test.Reason)
			}
		}
	}
}

func describeArguments(w io.Writer, suite *evals.ArgumentSuite, verbose bool) {
	fmt.Fprintf(w, "\nArgument Suite: %s (v%s)\n", suite.Name, suite.Version)
	fmt.Fprintf(w, "Total Tests: %d\n", len(suite.Tests))
	fmt.Fprintf(w, "Rules:\n  title: %s\n  page_id: %s\n  target: %s\n  continue: %s\n",
		suite.Rules.TitleFormat, suite.Rules.PageIDSource, suite.Rules.TargetFormat, suite.Rules.ContinueSource)

	if verbose {
		for _, test := range suite.Tests {
			fmt.Fprintf(w, "  [%s] %s\n    tool=%s required=%v expected=%v\n",
				test.ID, test.Input, test.Tool, test.RequiredArgs, test.ExpectedArgs)
			if test.ArgNotes != "" {
				fmt.Fprintf(w, "    notes: %s\n", test.ArgNotes)
			}
		}
	}
}

func sortedNames(m map[string]int) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

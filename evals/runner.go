// Package evals checks how well a tool selector (an LLM, or the keyword
// baseline in this package) maps natural language requests onto the wiki
// tools and their arguments.
package evals

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Suite file names inside an eval directory.
const (
	ToolSelectionFile  = "tool_selection.json"
	ConfusionPairsFile = "confusion_pairs.json"
	ArgumentsFile      = "argument_correctness.json"
)

// ToolSelectionTest is one request and the tool it should map to.
type ToolSelectionTest struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	Input        string         `json:"input"`
	ExpectedTool string         `json:"expected_tool"`
	ExpectedArgs map[string]any `json:"expected_args"`
	NotTools     []string       `json:"not_tools"`
}

// ToolSelectionSuite contains all tool selection tests
type ToolSelectionSuite struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Tests       []ToolSelectionTest `json:"tests"`
}

// ConfusionPairTest is a request that must land on one side of a pair.
type ConfusionPairTest struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Reason   string `json:"reason"`
}

// ConfusionPair groups tools that are easy to mix up, e.g. wiki_get_article
// and wiki_open_article.
type ConfusionPair struct {
	ID             string              `json:"id"`
	Tools          []string            `json:"tools"`
	Disambiguation string              `json:"disambiguation"`
	Tests          []ConfusionPairTest `json:"tests"`
}

// ConfusionPairSuite contains all confusion pair tests
type ConfusionPairSuite struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Pairs       []ConfusionPair `json:"pairs"`
}

// ArgumentTest checks the arguments extracted for a request.
type ArgumentTest struct {
	ID            string         `json:"id"`
	Tool          string         `json:"tool"`
	Input         string         `json:"input"`
	RequiredArgs  []string       `json:"required_args"`
	ExpectedArgs  map[string]any `json:"expected_args"`
	ForbiddenArgs []string       `json:"forbidden_args"`
	ArgNotes      string         `json:"arg_notes,omitempty"`
}

// ArgumentRules documents how arguments are expected to be formed.
type ArgumentRules struct {
	TitleFormat    string `json:"title_format"`
	PageIDSource   string `json:"page_id_source"`
	TargetFormat   string `json:"target_format"`
	ContinueSource string `json:"continue_source"`
}

// ArgumentSuite contains all argument correctness tests
type ArgumentSuite struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Tests       []ArgumentTest `json:"tests"`
	Rules       ArgumentRules  `json:"rules"`
}

// ToolSelectionResult represents the result of a single tool selection evaluation
type ToolSelectionResult struct {
	TestID       string
	Input        string
	ExpectedTool string
	ActualTool   string
	Passed       bool
	Errors       []string
}

// ConfusionPairResult represents the result of a confusion pair evaluation
type ConfusionPairResult struct {
	PairID       string
	TestInput    string
	ExpectedTool string
	ActualTool   string
	Reason       string
	Passed       bool
}

// ArgumentResult represents the result of an argument correctness evaluation
type ArgumentResult struct {
	TestID       string
	Tool         string
	ActualTool   string
	Input        string
	Passed       bool
	MissingArgs  []string
	WrongArgs    map[string]string // arg -> "expected X, got Y"
	ForbiddenHit []string
	Err          error
}

// EvalMetrics contains aggregate metrics for an evaluation run
type EvalMetrics struct {
	TotalTests    int
	PassedTests   int
	FailedTests   int
	Accuracy      float64 // PassedTests / TotalTests
	ByCategory    map[string]*CategoryMetrics
	ByTool        map[string]*ToolMetrics
	FailedDetails []string
}

// CategoryMetrics contains metrics per category
type CategoryMetrics struct {
	Total  int
	Passed int
	Failed int
}

// ToolMetrics contains metrics per tool
type ToolMetrics struct {
	ExpectedCount  int // times tool was expected
	SelectedCount  int // times tool was actually selected
	CorrectCount   int
	FalsePositives int // selected although another tool was expected
	FalseNegatives int // expected but another tool was selected
}

func newEvalMetrics() *EvalMetrics {
	return &EvalMetrics{
		ByCategory: make(map[string]*CategoryMetrics),
		ByTool:     make(map[string]*ToolMetrics),
	}
}

func (m *EvalMetrics) category(name string) *CategoryMetrics {
	if m.ByCategory[name] == nil {
		m.ByCategory[name] = &CategoryMetrics{}
	}
	return m.ByCategory[name]
}

func (m *EvalMetrics) tool(name string) *ToolMetrics {
	if m.ByTool[name] == nil {
		m.ByTool[name] = &ToolMetrics{}
	}
	return m.ByTool[name]
}

// selection books one expected/actual tool pair.
func (m *EvalMetrics) selection(expected, actual string) {
	m.tool(expected).ExpectedCount++
	m.tool(actual).SelectedCount++
	if expected == actual {
		m.tool(expected).CorrectCount++
		return
	}
	m.tool(expected).FalseNegatives++
	m.tool(actual).FalsePositives++
}

// outcome books a pass or failure in category.
func (m *EvalMetrics) outcome(category string, passed bool, detail string) {
	m.TotalTests++
	c := m.category(category)
	c.Total++
	if passed {
		m.PassedTests++
		c.Passed++
		return
	}
	m.FailedTests++
	c.Failed++
	m.FailedDetails = append(m.FailedDetails, detail)
}

func (m *EvalMetrics) finish() {
	if m.TotalTests > 0 {
		m.Accuracy = float64(m.PassedTests) / float64(m.TotalTests)
	}
}

func loadSuite[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var suite T
	if err := sonic.ConfigStd.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing JSON %s: %w", path, err)
	}
	return &suite, nil
}

// LoadToolSelectionSuite loads tool selection tests from a JSON file
func LoadToolSelectionSuite(path string) (*ToolSelectionSuite, error) {
	return loadSuite[ToolSelectionSuite](path)
}

// LoadConfusionPairSuite loads confusion pair tests from a JSON file
func LoadConfusionPairSuite(path string) (*ConfusionPairSuite, error) {
	return loadSuite[ConfusionPairSuite](path)
}

// LoadArgumentSuite loads argument correctness tests from a JSON file
func LoadArgumentSuite(path string) (*ArgumentSuite, error) {
	return loadSuite[ArgumentSuite](path)
}

// LoadAllEvals loads all evaluation suites from a directory
func LoadAllEvals(dir string) (*ToolSelectionSuite, *ConfusionPairSuite, *ArgumentSuite, error) {
	toolSelection, err := LoadToolSelectionSuite(filepath.Join(dir, ToolSelectionFile))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading tool selection: %w", err)
	}
	confusionPairs, err := LoadConfusionPairSuite(filepath.Join(dir, ConfusionPairsFile))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading confusion pairs: %w", err)
	}
	arguments, err := LoadArgumentSuite(filepath.Join(dir, ArgumentsFile))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading arguments: %w", err)
	}
	return toolSelection, confusionPairs, arguments, nil
}

// ToolSelector is an interface that an LLM or mock can implement for testing
type ToolSelector interface {
	// SelectTool returns the tool name and arguments for a natural language input
	SelectTool(input string) (toolName string, args map[string]any, err error)
}

// EvaluateToolSelection runs tool selection tests against a selector
func EvaluateToolSelection(suite *ToolSelectionSuite, selector ToolSelector) (*EvalMetrics, []ToolSelectionResult) {
	metrics := newEvalMetrics()
	results := make([]ToolSelectionResult, 0, len(suite.Tests))

	for _, test := range suite.Tests {
		actualTool, actualArgs, err := selector.SelectTool(test.Input)

		result := ToolSelectionResult{
			TestID:       test.ID,
			Input:        test.Input,
			ExpectedTool: test.ExpectedTool,
			ActualTool:   actualTool,
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("selector error: %v", err))
		}
		if actualTool != test.ExpectedTool {
			result.Errors = append(result.Errors,
				fmt.Sprintf("wrong tool: expected %s, got %s", test.ExpectedTool, actualTool))
		}
		for _, forbidden := range test.NotTools {
			if actualTool == forbidden {
				result.Errors = append(result.Errors, fmt.Sprintf("selected forbidden tool: %s", forbidden))
			}
		}
		for _, key := range sortedKeys(test.ExpectedArgs) {
			want := test.ExpectedArgs[key]
			got, ok := actualArgs[key]
			switch {
			case !ok:
				result.Errors = append(result.Errors, fmt.Sprintf("missing arg %s (expected %v)", key, want))
			case !compareValues(want, got):
				result.Errors = append(result.Errors, fmt.Sprintf("wrong arg %s: expected %v, got %v", key, want, got))
			}
		}
		result.Passed = len(result.Errors) == 0

		metrics.selection(test.ExpectedTool, actualTool)
		metrics.outcome(test.Category, result.Passed,
			fmt.Sprintf("[%s] %s: %s", test.ID, test.Input, strings.Join(result.Errors, "; ")))
		results = append(results, result)
	}

	metrics.finish()
	return metrics, results
}

// EvaluateConfusionPairs runs confusion pair tests against a selector.
// Each pair is reported as its own category.
func EvaluateConfusionPairs(suite *ConfusionPairSuite, selector ToolSelector) (*EvalMetrics, []ConfusionPairResult) {
	metrics := newEvalMetrics()
	var results []ConfusionPairResult

	for _, pair := range suite.Pairs {
		for _, test := range pair.Tests {
			actualTool, _, err := selector.SelectTool(test.Input)

			result := ConfusionPairResult{
				PairID:       pair.ID,
				TestInput:    test.Input,
				ExpectedTool: test.Expected,
				ActualTool:   actualTool,
				Reason:       test.Reason,
				Passed:       err == nil && actualTool == test.Expected,
			}

			metrics.selection(test.Expected, actualTool)
			metrics.outcome(pair.ID, result.Passed,
				fmt.Sprintf("[%s] %s: expected %s, got %s (%s)",
					pair.ID, test.Input, test.Expected, actualTool, test.Reason))
			results = append(results, result)
		}
	}

	metrics.finish()
	return metrics, results
}

// EvaluateArguments runs argument correctness tests against a selector.
// Picking the wrong tool fails the test without inspecting arguments.
func EvaluateArguments(suite *ArgumentSuite, selector ToolSelector) (*EvalMetrics, []ArgumentResult) {
	metrics := newEvalMetrics()
	results := make([]ArgumentResult, 0, len(suite.Tests))

	for _, test := range suite.Tests {
		actualTool, actualArgs, err := selector.SelectTool(test.Input)

		result := ArgumentResult{
			TestID:     test.ID,
			Tool:       test.Tool,
			ActualTool: actualTool,
			Input:      test.Input,
			WrongArgs:  make(map[string]string),
			Err:        err,
		}

		var details []string
		switch {
		case err != nil:
			details = append(details, fmt.Sprintf("selector error: %v", err))
		case actualTool != test.Tool:
			details = append(details, fmt.Sprintf("wrong tool: %s", actualTool))
		default:
			for _, name := range test.RequiredArgs {
				if _, ok := actualArgs[name]; !ok {
					result.MissingArgs = append(result.MissingArgs, name)
				}
			}
			for _, key := range sortedKeys(test.ExpectedArgs) {
				want := test.ExpectedArgs[key]
				got, ok := actualArgs[key]
				if !ok {
					if !containsString(result.MissingArgs, key) {
						result.MissingArgs = append(result.MissingArgs, key)
					}
					continue
				}
				if !compareValues(want, got) {
					result.WrongArgs[key] = fmt.Sprintf("expected %v, got %v", want, got)
					details = append(details, fmt.Sprintf("%s: %s", key, result.WrongArgs[key]))
				}
			}
			for _, name := range test.ForbiddenArgs {
				if _, ok := actualArgs[name]; ok {
					result.ForbiddenHit = append(result.ForbiddenHit, name)
				}
			}
			if len(result.MissingArgs) > 0 {
				details = append(details, fmt.Sprintf("missing: %v", result.MissingArgs))
			}
			if len(result.ForbiddenHit) > 0 {
				details = append(details, fmt.Sprintf("forbidden: %v", result.ForbiddenHit))
			}
		}
		result.Passed = len(details) == 0

		metrics.outcome(test.Tool, result.Passed,
			fmt.Sprintf("[%s] %s: %s", test.ID, test.Input, strings.Join(details, "; ")))
		results = append(results, result)
	}

	metrics.finish()
	return metrics, results
}

// UnknownTools lists tool names referenced by the suites that are not in
// known. A non-empty result means the eval data has drifted from the
// registered tools.
func UnknownTools(known []string, ts *ToolSelectionSuite, cp *ConfusionPairSuite, as *ArgumentSuite) []string {
	valid := make(map[string]bool, len(known))
	for _, name := range known {
		valid[name] = true
	}

	seen := make(map[string]bool)
	var unknown []string
	check := func(name string) {
		if name == "" || valid[name] || seen[name] {
			return
		}
		seen[name] = true
		unknown = append(unknown, name)
	}

	if ts != nil {
		for _, test := range ts.Tests {
			check(test.ExpectedTool)
			for _, name := range test.NotTools {
				check(name)
			}
		}
	}
	if cp != nil {
		for _, pair := range cp.Pairs {
			for _, name := range pair.Tools {
				check(name)
			}
			for _, test := range pair.Tests {
				check(test.Expected)
			}
		}
	}
	if as != nil {
		for _, test := range as.Tests {
			check(test.Tool)
		}
	}

	sort.Strings(unknown)
	return unknown
}

// compareValues compares expected and actual values. JSON numbers decode as
// float64, so integers compare by value.
func compareValues(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	ev := reflect.ValueOf(expected)
	av := reflect.ValueOf(actual)

	if f, ok := asFloat(ev); ok {
		if g, ok := asFloat(av); ok {
			return f == g
		}
	}

	if ev.Kind() == reflect.Slice && av.Kind() == reflect.Slice {
		if ev.Len() != av.Len() {
			return false
		}
		for i := 0; i < ev.Len(); i++ {
			if !compareValues(ev.Index(i).Interface(), av.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(expected, actual)
}

func asFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// FormatMetrics returns a human-readable summary of evaluation metrics
func FormatMetrics(metrics *EvalMetrics, suiteName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n=== %s ===\n", suiteName)
	fmt.Fprintf(&b, "Total: %d tests\n", metrics.TotalTests)
	fmt.Fprintf(&b, "Passed: %d (%.1f%%)\n", metrics.PassedTests, metrics.Accuracy*100)
	fmt.Fprintf(&b, "Failed: %d\n", metrics.FailedTests)

	if len(metrics.ByCategory) > 0 {
		b.WriteString("\nBy Category:\n")
		names := make([]string, 0, len(metrics.ByCategory))
		for name := range metrics.ByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := metrics.ByCategory[name]
			if m.Total > 0 {
				fmt.Fprintf(&b, "  %-25s: %d/%d (%.0f%%)\n", name, m.Passed, m.Total, float64(m.Passed)/float64(m.Total)*100)
			}
		}
	}

	const maxDetails = 10
	switch n := len(metrics.FailedDetails); {
	case n == 0:
	case n <= maxDetails:
		b.WriteString("\nFailed Tests:\n")
		for _, detail := range metrics.FailedDetails {
			fmt.Fprintf(&b, "  - %s\n", detail)
		}
	default:
		fmt.Fprintf(&b, "\nFailed Tests (showing first %d of %d):\n", maxDetails, n)
		for _, detail := range metrics.FailedDetails[:maxDetails] {
			fmt.Fprintf(&b, "  - %s\n", detail)
		}
	}

	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

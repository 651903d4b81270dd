package suite

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"bookerbdd/internal/color"
)

// nameColumn is the width scenario names are padded to in compact output.
const nameColumn = 56

// consoleReporter prints emoji status lines for humans.
type consoleReporter struct {
	out     io.Writer
	verbose bool
	debug   bool
}

// NewConsoleReporter creates the default human-readable reporter.
func NewConsoleReporter(out io.Writer, verbose, debug bool) Reporter {
	return &consoleReporter{out: out, verbose: verbose, debug: debug}
}

func (r *consoleReporter) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// ReportStart is called when the run begins
func (r *consoleReporter) ReportStart(config Configuration) {
	r.printf("%s\n", color.TitleStyle.Render("🧪 Starting booking API acceptance suite"))
	r.printf("📡 Base URL: %s\n", config.BaseURL)

	if r.verbose {
		r.printf("⚙️  Configuration:\n")
		r.printf("   • Features: %s\n", stringOrDefault(strings.Join(config.Features, ", "), "embedded"))
		r.printf("   • Tags: %s\n", stringOrDefault(config.Tags, "all"))
		r.printf("   • Format: %s\n", config.Format)
		r.printf("   • Fail fast: %t\n", config.FailFast)
		r.printf("   • Debug mode: %t\n", config.Debug)
		if config.Timeout > 0 {
			r.printf("   • Timeout: %v\n", config.Timeout)
		}
		if config.ReportPath != "" {
			r.printf("   • Report path: %s\n", config.ReportPath)
		}
		r.printf("\n")
	}
}

// ReportScenarioStart is called when a scenario begins
func (r *consoleReporter) ReportScenarioStart(scenario ScenarioResult) {
	if r.verbose {
		r.printf("🎯 Starting scenario: %s\n", scenario.Name)
		r.printf("   📄 %s\n", color.MutedStyle.Render(scenario.URI))
		if len(scenario.Tags) > 0 {
			r.printf("   🏷️  Tags: %s\n", strings.Join(scenario.Tags, ", "))
		}
		return
	}
	r.printf("🎯 %s ", runewidth.FillRight(scenario.Name+"...", nameColumn))
}

// ReportStepResult is called when a step completes
func (r *consoleReporter) ReportStepResult(stepResult StepResult) {
	if !r.verbose && !r.debug {
		return
	}
	r.printf("   %s %s %s\n", resultSymbol(stepResult.Result), stepResult.Text,
		color.MutedStyle.Render(fmt.Sprintf("(%v)", stepResult.Duration)))
	if stepResult.Error != "" {
		r.printf("     ❌ %s: %s\n", stepResult.Kind, color.FailedStyle.Render(stepResult.Error))
	}
}

// ReportScenarioResult is called when a scenario completes
func (r *consoleReporter) ReportScenarioResult(scenarioResult ScenarioResult) {
	symbol := resultSymbol(scenarioResult.Result)

	if !r.verbose {
		r.printf("%s %s\n", symbol, color.MutedStyle.Render(fmt.Sprintf("(%v)", scenarioResult.Duration)))
		if scenarioResult.Error != "" {
			r.printf("   ❌ %s\n", color.FailedStyle.Render(scenarioResult.Error))
		}
		return
	}

	r.printf("%s Scenario completed: %s (%v)\n", symbol, scenarioResult.Name, scenarioResult.Duration)
	if scenarioResult.Error != "" {
		r.printf("   ❌ Error (%s): %s\n", scenarioResult.Kind, scenarioResult.Error)
	}

	passed, failed, skipped := 0, 0, 0
	for _, stepResult := range scenarioResult.StepResults {
		switch stepResult.Result {
		case ResultPassed:
			passed++
		case ResultFailed, ResultUndefined:
			failed++
		case ResultSkipped:
			skipped++
		}
	}
	r.printf("   📊 Steps: %d passed", passed)
	if failed > 0 {
		r.printf(", %d failed", failed)
	}
	if skipped > 0 {
		r.printf(", %d skipped", skipped)
	}
	r.printf("\n\n")
}

// ReportSuiteResult is called when every scenario has run
func (r *consoleReporter) ReportSuiteResult(suiteResult SuiteResult) {
	r.printf("\n%s\n", color.TitleStyle.Render("🏁 Suite Complete"))
	r.printf("⏱️  Duration: %v\n", suiteResult.Duration)
	r.printf("📊 Results:\n")
	r.printf("   ✅ Passed: %d\n", suiteResult.PassedScenarios)

	if suiteResult.FailedScenarios > 0 {
		r.printf("   ❌ Failed: %d\n", suiteResult.FailedScenarios)
	}
	if suiteResult.UndefinedScenarios > 0 {
		r.printf("   ❓ Undefined: %d\n", suiteResult.UndefinedScenarios)
	}
	if suiteResult.SkippedScenarios > 0 {
		r.printf("   ⏭️  Skipped: %d\n", suiteResult.SkippedScenarios)
	}
	r.printf("   📈 Total: %d\n", suiteResult.TotalScenarios)
	r.printf("   🔑 Token requests: %d\n", suiteResult.AuthCalls)

	successRate := 0.0
	if suiteResult.TotalScenarios > 0 {
		successRate = float64(suiteResult.PassedScenarios) / float64(suiteResult.TotalScenarios) * 100
	}
	r.printf("   📏 Success Rate: %.1f%%\n", successRate)

	if suiteResult.HasFailures() {
		r.printf("\n%s\n", color.FailedStyle.Render("💔 Some scenarios failed"))
	} else {
		r.printf("\n%s\n", color.PassedStyle.Render("🎉 All scenarios passed!"))
	}

	if suiteResult.ReportFile != "" {
		r.printf("📄 Detailed report saved to: %s\n", suiteResult.ReportFile)
	}
}

func resultSymbol(result Result) string {
	switch result {
	case ResultPassed:
		return color.PassedStyle.Render("✅")
	case ResultFailed:
		return color.FailedStyle.Render("❌")
	case ResultSkipped:
		return color.SkippedStyle.Render("⏭️")
	case ResultUndefined:
		return color.SkippedStyle.Render("❓")
	default:
		return "❓"
	}
}

func stringOrDefault(s, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}

// NewQuietReporter creates a reporter that prints failures and a summary only.
func NewQuietReporter(out io.Writer) Reporter {
	return &quietReporter{out: out}
}

type quietReporter struct {
	out io.Writer
}

func (r *quietReporter) ReportStart(Configuration) {}
func (r *quietReporter) ReportScenarioStart(ScenarioResult) {}
func (r *quietReporter) ReportStepResult(StepResult) {}

func (r *quietReporter) ReportScenarioResult(scenarioResult ScenarioResult) {
	switch scenarioResult.Result {
	case ResultFailed, ResultUndefined:
		fmt.Fprintf(r.out, "❌ %s [%s]: %s\n", scenarioResult.Name, scenarioResult.Kind, scenarioResult.Error)
	}
}

func (r *quietReporter) ReportSuiteResult(suiteResult SuiteResult) {
	if !suiteResult.HasFailures() {
		fmt.Fprintf(r.out, "✅ All %d scenarios passed\n", suiteResult.PassedScenarios)
		return
	}
	fmt.Fprintf(r.out, "❌ %d/%d scenarios failed\n",
		suiteResult.FailedScenarios+suiteResult.UndefinedScenarios,
		suiteResult.TotalScenarios)
}

// NewJSONReporter creates a reporter that prints the suite result as JSON.
func NewJSONReporter(out io.Writer) Reporter {
	return &jsonReporter{out: out}
}

type jsonReporter struct {
	out io.Writer
}

func (r *jsonReporter) ReportStart(Configuration) {}
func (r *jsonReporter) ReportScenarioStart(ScenarioResult) {}
func (r *jsonReporter) ReportStepResult(StepResult) {}
func (r *jsonReporter) ReportScenarioResult(ScenarioResult) {}

func (r *jsonReporter) ReportSuiteResult(suiteResult SuiteResult) {
	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, `{"error": "failed to marshal results: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(r.out, string(jsonData))
}

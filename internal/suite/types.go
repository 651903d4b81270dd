package suite

import (
	"time"

	"bookerbdd/internal/expect"
)

// Result represents the outcome of a scenario or step.
type Result string

const (
	// ResultPassed indicates every step passed
	ResultPassed Result = "PASSED"
	// ResultFailed indicates a step returned an error
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the step did not run because an earlier one failed
	ResultSkipped Result = "SKIPPED"
	// ResultUndefined indicates a step phrase has no definition or is pending
	ResultUndefined Result = "UNDEFINED"
)

// Configuration is the subset of settings that shapes one suite run.
type Configuration struct {
	// BaseURL is the booking API under test
	BaseURL string `json:"base_url"`
	// Timeout is the overall run timeout, zero for none
	Timeout time.Duration `json:"timeout"`
	// Features overrides the embedded feature files
	Features []string `json:"features,omitempty"`
	// Tags is a godog tag expression such as "~@wip"
	Tags string `json:"tags,omitempty"`
	// Format is the godog formatter
	Format string `json:"format"`
	// FailFast stops the run at the first failed scenario
	FailFast bool `json:"fail_fast"`
	// Verbose enables per-step output
	Verbose bool `json:"verbose"`
	// Debug enables debug logging
	Debug bool `json:"debug"`
	// ReportPath is the directory for the detailed JSON report
	ReportPath string `json:"report_path,omitempty"`
}

// StepResult represents the result of a single step.
type StepResult struct {
	// Text is the step phrase as written in the feature file
	Text string `json:"text"`
	// Result is the result of the step
	Result Result `json:"result"`
	// Duration of step execution
	Duration time.Duration `json:"duration"`
	// Error message if the step failed
	Error string `json:"error,omitempty"`
	// Kind classifies the failure
	Kind expect.Kind `json:"kind,omitempty"`
}

// ScenarioResult represents the result of a single scenario.
type ScenarioResult struct {
	// Name is the scenario title
	Name string `json:"name"`
	// URI is the feature file the scenario came from
	URI string `json:"uri"`
	// Tags on the scenario and its feature
	Tags []string `json:"tags,omitempty"`
	// Result is the overall result of the scenario
	Result Result `json:"result"`
	// StartTime when scenario execution began
	StartTime time.Time `json:"start_time"`
	// EndTime when scenario execution completed
	EndTime time.Time `json:"end_time"`
	// Duration of scenario execution
	Duration time.Duration `json:"duration"`
	// StepResults contains individual step results
	StepResults []StepResult `json:"step_results"`
	// Error message of the failing step
	Error string `json:"error,omitempty"`
	// Kind classifies Error
	Kind expect.Kind `json:"kind,omitempty"`
}

// SuiteResult represents the overall result of a run.
type SuiteResult struct {
	StartTime          time.Time        `json:"start_time"`
	EndTime            time.Time        `json:"end_time"`
	Duration           time.Duration    `json:"duration"`
	TotalScenarios     int              `json:"total_scenarios"`
	PassedScenarios    int              `json:"passed_scenarios"`
	FailedScenarios    int              `json:"failed_scenarios"`
	SkippedScenarios   int              `json:"skipped_scenarios"`
	UndefinedScenarios int              `json:"undefined_scenarios"`
	ScenarioResults    []ScenarioResult `json:"scenario_results"`
	Configuration      Configuration    `json:"configuration"`
	// AuthCalls is how many times a token was requested during the run
	AuthCalls int `json:"auth_calls"`
	// ReportFile is where the detailed report was written, if anywhere
	ReportFile string `json:"-"`
}

// HasFailures reports whether the run should exit non-zero.
func (r SuiteResult) HasFailures() bool {
	return r.FailedScenarios > 0 || r.UndefinedScenarios > 0
}

// Reporter defines how results are reported.
type Reporter interface {
	// ReportStart is called when the run begins
	ReportStart(config Configuration)
	// ReportScenarioStart is called when a scenario begins
	ReportScenarioStart(scenario ScenarioResult)
	// ReportStepResult is called when a step completes
	ReportStepResult(stepResult StepResult)
	// ReportScenarioResult is called when a scenario completes
	ReportScenarioResult(scenarioResult ScenarioResult)
	// ReportSuiteResult is called when every scenario has run
	ReportSuiteResult(suiteResult SuiteResult)
}

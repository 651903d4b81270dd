package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
	"github.com/samber/lo"

	"bookerbdd/internal/expect"
	"bookerbdd/internal/steps"
	"bookerbdd/pkg/logging"
)

// Runner executes the feature suite through godog.
type Runner struct {
	deps     steps.Deps
	reporter Reporter
	features fs.FS
	// output receives the godog formatter's output.
	output io.Writer
	now    func() time.Time

	mu        sync.Mutex
	result    *SuiteResult
	current   *ScenarioResult
	stepStart time.Time
}

// NewRunner creates a Runner. features is used when the configuration names
// no feature paths; output receives godog's own formatter.
func NewRunner(deps steps.Deps, reporter Reporter, features fs.FS, output io.Writer) *Runner {
	return &Runner{
		deps:     deps,
		reporter: reporter,
		features: features,
		output:   output,
		now:      time.Now,
	}
}

// Run executes every scenario once, in file order, and returns the collected
// results. ctx is handed to each step, so cancelling it aborts in-flight
// requests.
func (r *Runner) Run(ctx context.Context, config Configuration) (*SuiteResult, error) {
	r.mu.Lock()
	r.result = &SuiteResult{
		StartTime:       r.now(),
		ScenarioResults: make([]ScenarioResult, 0),
		Configuration:   config,
	}
	r.current = nil
	r.mu.Unlock()

	suite := godog.TestSuite{
		Name: "bookerbdd",
		TestSuiteInitializer: func(ts *godog.TestSuiteContext) {
			ts.BeforeSuite(func() { r.beforeSuite(config) })
		},
		ScenarioInitializer: r.initializeScenario,
		Options:             r.options(ctx, config),
	}

	status := suite.Run()

	r.mu.Lock()
	result := r.result
	r.mu.Unlock()

	// Status 2 means godog could not even start: bad options, unreadable or
	// unparsable feature files.
	if status == 2 {
		return result, fmt.Errorf("failed to run feature suite with paths %v", r.paths(config))
	}

	result.EndTime = r.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if r.deps.Tokens != nil {
		result.AuthCalls = r.deps.Tokens.Fetches()
	}

	if config.ReportPath != "" {
		path, err := SaveReport(config.ReportPath, *result, result.EndTime)
		if err != nil {
			logging.Warn("Runner", "Failed to save detailed report: %v", err)
		} else {
			result.ReportFile = path
		}
	}

	r.reporter.ReportSuiteResult(*result)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("suite run interrupted: %w", err)
	}
	return result, nil
}

func (r *Runner) paths(config Configuration) []string {
	if len(config.Features) > 0 {
		return config.Features
	}
	return []string{"."}
}

func (r *Runner) options(ctx context.Context, config Configuration) *godog.Options {
	opts := &godog.Options{
		Format: config.Format,
		Tags:   config.Tags,
		Paths:  r.paths(config),
		// Scenarios depend on state written by earlier ones, so they must run
		// one at a time in file order.
		Concurrency:    1,
		Randomize:      0,
		StopOnFailure:  config.FailFast,
		Strict:         true,
		DefaultContext: ctx,
		Output:         r.output,
	}
	if opts.Format == "" {
		opts.Format = "progress"
	}
	if len(config.Features) == 0 {
		opts.FS = r.features
	}
	return opts
}

func (r *Runner) beforeSuite(config Configuration) {
	if r.deps.Store != nil {
		r.deps.Store.Reset()
	}
	if r.deps.Tokens != nil {
		r.deps.Tokens.Reset()
	}
	logging.Debug("Runner", "Scenario store and token cache reset")
	r.reporter.ReportStart(config)
}

func (r *Runner) initializeScenario(sc *godog.ScenarioContext) {
	steps.Register(sc, r.deps)

	// Hooks only observe; returning an error would fail the scenario.
	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		r.scenarioStarted(s)
		return ctx, nil
	})
	sc.StepContext().Before(func(ctx context.Context, st *godog.Step) (context.Context, error) {
		r.mu.Lock()
		r.stepStart = r.now()
		r.mu.Unlock()
		return ctx, nil
	})
	sc.StepContext().After(func(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		r.stepFinished(st, status, err)
		return ctx, nil
	})
	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		r.scenarioFinished(s, err)
		return ctx, nil
	})
}

func (r *Runner) scenarioStarted(s *godog.Scenario) {
	logging.Info("Runner", "Scenario has started: %s", s.Name)

	r.mu.Lock()
	r.current = &ScenarioResult{
		Name:      s.Name,
		URI:       s.Uri,
		Tags:      lo.Map(s.Tags, func(t *messages.PickleTag, _ int) string { return t.Name }),
		StartTime: r.now(),
	}
	started := *r.current
	r.mu.Unlock()

	r.reporter.ReportScenarioStart(started)
}

func (r *Runner) stepFinished(st *godog.Step, status godog.StepResultStatus, err error) {
	r.mu.Lock()
	stepResult := StepResult{
		Text:     st.Text,
		Result:   stepResultFromStatus(status),
		Duration: r.now().Sub(r.stepStart),
	}
	if err != nil {
		stepResult.Error = err.Error()
		stepResult.Kind = expect.KindOf(err)
	}
	if r.current != nil {
		r.current.StepResults = append(r.current.StepResults, stepResult)
	}
	r.mu.Unlock()

	if err != nil && status == godog.StepFailed {
		logging.Warn("Runner", "Step %q failed (%s): %v", st.Text, stepResult.Kind, err)
	}
	r.reporter.ReportStepResult(stepResult)
}

func (r *Runner) scenarioFinished(s *godog.Scenario, err error) {
	r.mu.Lock()
	sr := r.current
	if sr == nil {
		sr = &ScenarioResult{Name: s.Name, URI: s.Uri, StartTime: r.now()}
	}
	r.current = nil

	sr.EndTime = r.now()
	sr.Duration = sr.EndTime.Sub(sr.StartTime)
	sr.Result = scenarioResult(sr.StepResults, err)
	if err != nil {
		sr.Error = err.Error()
		sr.Kind = expect.KindOf(err)
	}

	r.result.ScenarioResults = append(r.result.ScenarioResults, *sr)
	r.result.TotalScenarios++
	switch sr.Result {
	case ResultPassed:
		r.result.PassedScenarios++
	case ResultFailed:
		r.result.FailedScenarios++
	case ResultSkipped:
		r.result.SkippedScenarios++
	case ResultUndefined:
		r.result.UndefinedScenarios++
	}
	finished := *sr
	r.mu.Unlock()

	logging.Info("Runner", "Scenario has ended: %s (%s)", s.Name, finished.Result)
	r.reporter.ReportScenarioResult(finished)
}

func stepResultFromStatus(status godog.StepResultStatus) Result {
	switch status {
	case godog.StepPassed:
		return ResultPassed
	case godog.StepFailed:
		return ResultFailed
	case godog.StepSkipped:
		return ResultSkipped
	default:
		return ResultUndefined
	}
}

// scenarioResult derives the scenario outcome from its error and steps.
func scenarioResult(stepResults []StepResult, err error) Result {
	switch {
	case errors.Is(err, godog.ErrUndefined), errors.Is(err, godog.ErrPending), errors.Is(err, godog.ErrAmbiguous):
		return ResultUndefined
	case errors.Is(err, godog.ErrSkip):
		return ResultSkipped
	case err != nil:
		return ResultFailed
	}

	if lo.ContainsBy(stepResults, func(s StepResult) bool { return s.Result == ResultFailed }) {
		return ResultFailed
	}
	if lo.ContainsBy(stepResults, func(s StepResult) bool { return s.Result == ResultUndefined }) {
		return ResultUndefined
	}
	if len(stepResults) > 0 && lo.EveryBy(stepResults, func(s StepResult) bool { return s.Result == ResultSkipped }) {
		return ResultSkipped
	}
	return ResultPassed
}

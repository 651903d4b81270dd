package suite

import (
	"fmt"
	"io"
	"io/fs"
	"time"

	"bookerbdd/features"
	"bookerbdd/internal/auth"
	"bookerbdd/internal/client"
	"bookerbdd/internal/config"
	"bookerbdd/internal/scenario"
	"bookerbdd/internal/steps"
)

// FrameworkOptions are the run settings that do not live in the config file.
type FrameworkOptions struct {
	Verbose bool
	Debug   bool
	Timeout time.Duration
	// Stdout receives reporter output and, in console mode, the godog formatter.
	Stdout io.Writer
	// Features overrides the embedded feature files when no paths are configured.
	Features fs.FS
	// Now is the clock used to decide whether a booking has ended.
	Now func() time.Time
}

// Framework holds all components needed for a run.
type Framework struct {
	Runner        *Runner
	Client        *client.Client
	Tokens        *auth.TokenCache
	Store         *scenario.Store
	Reporter      Reporter
	Configuration Configuration
}

// NewFramework creates a fully wired framework from a loaded configuration.
func NewFramework(cfg config.SuiteConfig, opts FrameworkOptions) (*Framework, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Features == nil {
		opts.Features = features.FS
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := client.New(cfg.API)
	tokens := auth.NewTokenCache(c, auth.Credentials{
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	})
	store := scenario.NewStore()

	reporter, formatterOut := NewReporter(cfg.Run.Output, opts.Stdout, opts.Verbose, opts.Debug)

	deps := steps.Deps{
		API:       c,
		Tokens:    tokens,
		Store:     store,
		Now:       opts.Now,
		ScanLimit: cfg.Run.ScanLimit,
	}

	return &Framework{
		Runner:        NewRunner(deps, reporter, opts.Features, formatterOut),
		Client:        c,
		Tokens:        tokens,
		Store:         store,
		Reporter:      reporter,
		Configuration: NewConfiguration(cfg, opts),
	}, nil
}

// NewReporter picks the reporter for mode and the writer godog's formatter
// should use. Only console mode lets the formatter through; quiet and JSON
// output must stay clean.
func NewReporter(mode config.OutputMode, out io.Writer, verbose, debug bool) (Reporter, io.Writer) {
	switch mode {
	case config.OutputQuiet:
		return NewQuietReporter(out), io.Discard
	case config.OutputJSON:
		return NewJSONReporter(out), io.Discard
	default:
		return NewConsoleReporter(out, verbose, debug), out
	}
}

// NewConfiguration extracts the run settings from the loaded configuration.
func NewConfiguration(cfg config.SuiteConfig, opts FrameworkOptions) Configuration {
	return Configuration{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    opts.Timeout,
		Features:   cfg.Run.Features,
		Tags:       cfg.Run.Tags,
		Format:     cfg.Run.Format,
		FailFast:   cfg.Run.FailFast,
		Verbose:    opts.Verbose,
		Debug:      opts.Debug,
		ReportPath: cfg.Run.ReportPath,
	}
}

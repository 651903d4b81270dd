package config

import (
	"time"
)

// SuiteConfig is the top-level configuration structure for bookerbdd.
type SuiteConfig struct {
	API  APIConfig  `yaml:"api"`
	Auth AuthConfig `yaml:"auth"`
	Run  RunConfig  `yaml:"run"`
}

// APIConfig describes how the booking API is reached.
type APIConfig struct {
	BaseURL        string        `yaml:"baseURL,omitempty"`
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`
	// RequestsPerSecond paces outgoing requests. Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
}

// AuthConfig holds the fixed credentials exchanged for a token on POST /auth.
type AuthConfig struct {
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// OutputMode selects the reporter used for a run.
type OutputMode string

const (
	OutputConsole OutputMode = "console"
	OutputQuiet   OutputMode = "quiet"
	OutputJSON    OutputMode = "json"
)

// RunConfig controls how the feature suite is executed.
type RunConfig struct {
	// Features are filesystem paths overriding the embedded feature files.
	Features []string `yaml:"features,omitempty"`
	Tags     string   `yaml:"tags,omitempty"`
	// Format is the godog formatter name (pretty, progress, cucumber, junit...).
	Format   string `yaml:"format,omitempty"`
	FailFast bool   `yaml:"failFast,omitempty"`
	// ScanLimit caps how many booking records a single step reads while
	// searching (expired booking lookup, filter verification).
	ScanLimit  int        `yaml:"scanLimit,omitempty"`
	ReportPath string     `yaml:"reportPath,omitempty"`
	Output     OutputMode `yaml:"output,omitempty"`
}

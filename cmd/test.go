package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"bookerbdd/internal/color"
	"bookerbdd/internal/config"
	"bookerbdd/internal/suite"
	"bookerbdd/pkg/logging"
)

var (
	testBaseURL        string
	testConfigPath     string
	testTimeout        time.Duration
	testRequestTimeout time.Duration
	testTags           string
	testFormat         string
	testFeatures       []string
	testReportPath     string
	testOutput         string
	testFailFast       bool
	testVerbose        bool
	testDebug          bool
	testScanLimit      int
)

// exit is replaced in tests.
var exit = os.Exit

// completeOutputFlag provides shell completion for the output flag
func completeOutputFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{string(config.OutputConsole), string(config.OutputQuiet), string(config.OutputJSON)}, cobra.ShellCompDirectiveDefault
}

// completeFormatFlag provides shell completion for the godog formatter flag
func completeFormatFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"pretty", "progress", "cucumber", "junit", "events"}, cobra.ShellCompDirectiveDefault
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the booking API acceptance suite",
	Long: `The test command runs the Gherkin acceptance suite against a booking API.

Scenarios run one at a time in file order. Later scenarios reuse the booking
created by earlier ones, so the order is part of the suite:

1. Health check
2. Create a booking with valid details (stores its id)
3. Create a booking with missing required fields
4. List and filter booking ids
5. Retrieve, partially update and delete the stored booking
6. Delete it again and expect not found

A failing step fails its scenario only; the remaining scenarios still run.
Mutating requests share one authentication token, requested at most once per
run.

Configuration is layered: built-in defaults, then ~/.config/bookerbdd/config.yaml,
then .bookerbdd/config.yaml, then the file given with --config, then flags.

Example usage:
  bookerbdd test                                     # Run against the hosted API
  bookerbdd test --base-url=http://localhost:3001    # Run against 'bookerbdd mock'
  bookerbdd test --verbose --debug                   # Per-step output and request logs
  bookerbdd test --output=json > result.json         # Machine readable result
  bookerbdd test --report=./reports                  # Save a detailed JSON report
  bookerbdd test --features=./my-features            # Use feature files from disk
  bookerbdd test --tags='~@wip' --fail-fast          # Filter scenarios, stop at first failure`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)

	// Target API
	testCmd.Flags().StringVar(&testBaseURL, "base-url", "", "Base URL of the booking API (default "+config.DefaultBaseURL+")")
	testCmd.Flags().StringVar(&testConfigPath, "config", "", "Path to an additional YAML configuration file")

	// Timeouts
	testCmd.Flags().DurationVar(&testTimeout, "timeout", 10*time.Minute, "Overall suite execution timeout")
	testCmd.Flags().DurationVar(&testRequestTimeout, "request-timeout", 0, "Timeout for a single HTTP request (default 30s)")

	// Scenario selection
	testCmd.Flags().StringVar(&testTags, "tags", "", "Tag expression selecting scenarios, e.g. '@smoke && ~@wip'")
	testCmd.Flags().StringSliceVar(&testFeatures, "features", nil, "Feature files or directories to run instead of the built-in suite")
	testCmd.Flags().IntVar(&testScanLimit, "scan-limit", 0, "Maximum bookings a single step reads while searching (default 50)")

	// Output and reporting
	testCmd.Flags().StringVar(&testFormat, "format", "", "godog formatter used in console output (default pretty)")
	testCmd.Flags().StringVar(&testOutput, "output", "", "Result output: console, quiet or json (default console)")
	testCmd.Flags().StringVar(&testReportPath, "report", "", "Directory to save a detailed JSON report in")
	testCmd.Flags().BoolVar(&testVerbose, "verbose", false, "Enable verbose per-step output")
	testCmd.Flags().BoolVar(&testDebug, "debug", false, "Enable debug logging of requests and hooks")

	// Execution control
	testCmd.Flags().BoolVar(&testFailFast, "fail-fast", false, "Stop at the first failed scenario")

	_ = testCmd.RegisterFlagCompletionFunc("output", completeOutputFlag)
	_ = testCmd.RegisterFlagCompletionFunc("format", completeFormatFlag)

	testCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if testTimeout < 0 {
			return fmt.Errorf("timeout must not be negative, got %v", testTimeout)
		}
		if cmd.Flags().Changed("scan-limit") && testScanLimit < 1 {
			return fmt.Errorf("scan-limit must be at least 1, got %d", testScanLimit)
		}
		return nil
	}
}

// loadTestConfig layers flags that were set explicitly over the loaded files.
func loadTestConfig(cmd *cobra.Command) (config.SuiteConfig, error) {
	cfg, err := config.LoadConfig(testConfigPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.API.BaseURL = testBaseURL
	}
	if flags.Changed("request-timeout") {
		cfg.API.RequestTimeout = testRequestTimeout
	}
	if flags.Changed("tags") {
		cfg.Run.Tags = testTags
	}
	if flags.Changed("features") {
		cfg.Run.Features = testFeatures
	}
	if flags.Changed("scan-limit") {
		cfg.Run.ScanLimit = testScanLimit
	}
	if flags.Changed("format") {
		cfg.Run.Format = testFormat
	}
	if flags.Changed("output") {
		cfg.Run.Output = config.OutputMode(testOutput)
	}
	if flags.Changed("report") {
		cfg.Run.ReportPath = testReportPath
	}
	if flags.Changed("fail-fast") {
		cfg.Run.FailFast = testFailFast
	}
	return cfg, cfg.Validate()
}

func runTest(cmd *cobra.Command, args []string) error {
	if testDebug {
		logging.InitForCLI(logging.LevelDebug, os.Stderr)
	}

	cfg, err := loadTestConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupts gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			if cfg.Run.Output == config.OutputConsole {
				fmt.Fprintln(cmd.OutOrStdout(), "\nReceived interrupt signal, stopping the suite...")
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	if testTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, testTimeout)
		defer timeoutCancel()
	}

	color.Initialize(lipgloss.HasDarkBackground())

	framework, err := suite.NewFramework(cfg, suite.FrameworkOptions{
		Verbose: testVerbose,
		Debug:   testDebug,
		Timeout: testTimeout,
		Stdout:  cmd.OutOrStdout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create test framework: %w", err)
	}

	result, err := framework.Runner.Run(ctx, framework.Configuration)
	if err != nil {
		return fmt.Errorf("suite execution failed: %w", err)
	}

	// Set exit code based on results
	if result.HasFailures() {
		exit(1)
	}
	return nil
}

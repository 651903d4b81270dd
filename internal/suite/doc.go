// Package suite runs the booking feature files and reports the outcome.
//
// ## Architecture Components
//
// ### Runner (runner.go)
// - Drives godog over the embedded features, or over paths given on the
//   command line
// - Forces sequential execution in file order, because later scenarios read
//   the booking id written by earlier ones
// - Resets the scenario store and the token cache at the start of every run
// - Turns godog hook callbacks into scenario and step results
//
// ### Reporters (reporter.go)
// - Console: emoji status lines, per-step detail in verbose mode
// - Quiet: failures and a one-line summary
// - JSON: the whole suite result on stdout for CI
//
// ### Report file (report.go)
// - Optional detailed JSON report written to a directory after each run
//
// ### Framework (factory.go)
// - Wires client, token cache, store, reporter and runner from a loaded
//   configuration
//
// ## Failure kinds
//
// Every failed step carries the kind reported by expect.KindOf, so a report
// tells a missing prerequisite apart from a wrong status code, a payload
// mismatch, a network failure or a failed login.
package suite

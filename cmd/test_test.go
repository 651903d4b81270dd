package cmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookerbdd/internal/bookerfake"
	"bookerbdd/internal/suite"
)

func executeTest(t *testing.T, fakeOpts bookerfake.Options) (suite.SuiteResult, int) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	srv := httptest.NewServer(bookerfake.New(fakeOpts).Handler())
	t.Cleanup(srv.Close)

	code := 0
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"test", "--base-url", srv.URL, "--output", "json", "--timeout", "1m"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	var result suite.SuiteResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), "output: %s", out.String())
	return result, code
}

func TestRunTest_Passes(t *testing.T) {
	result, code := executeTest(t, bookerfake.DefaultOptions())

	assert.Equal(t, 0, code)
	assert.Equal(t, 10, result.PassedScenarios)
	assert.Equal(t, 1, result.AuthCalls)
}

func TestRunTest_FailureExitsNonZero(t *testing.T) {
	opts := bookerfake.DefaultOptions()
	opts.RejectExpiredUpdates = false

	result, code := executeTest(t, opts)

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, result.FailedScenarios)
}

func TestLoadTestConfig_RejectsUnknownOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	rootCmd.SetArgs([]string{"test", "--output", "xml"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	assert.ErrorContains(t, err, `invalid run.output "xml"`)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Helper function to create a temporary config file
func createTempConfigFile(t *testing.T, dir string, filename string, content SuiteConfig) string {
	t.Helper()
	tempFilePath := filepath.Join(dir, filename)
	data, err := yaml.Marshal(&content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tempFilePath, data, 0644))
	return tempFilePath
}

// pointConfigPaths redirects user and project lookups into dir for the test.
func pointConfigPaths(t *testing.T, userPath, projectPath string) {
	t.Helper()
	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
	})
	getUserConfigPath = func() (string, error) { return userPath, nil }
	getProjectConfigPath = func() (string, error) { return projectPath, nil }
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	tempDir := t.TempDir()
	pointConfigPaths(t,
		filepath.Join(tempDir, "non-existent-user-config.yaml"),
		filepath.Join(tempDir, "non-existent-project-config.yaml"))

	loaded, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
	assert.NoError(t, loaded.Validate())
}

func TestLoadConfig_LayerOrder(t *testing.T) {
	tempDir := t.TempDir()

	userPath := createTempConfigFile(t, tempDir, "user.yaml", SuiteConfig{
		API:  APIConfig{BaseURL: "http://user.example:3001", RequestTimeout: 5 * time.Second},
		Auth: AuthConfig{Username: "someone"},
	})
	projectPath := createTempConfigFile(t, tempDir, "project.yaml", SuiteConfig{
		API: APIConfig{BaseURL: "http://project.example:3001"},
		Run: RunConfig{Tags: "@smoke", ScanLimit: 10},
	})
	explicitPath := createTempConfigFile(t, tempDir, "explicit.yaml", SuiteConfig{
		Run: RunConfig{FailFast: true, Output: OutputJSON},
	})
	pointConfigPaths(t, userPath, projectPath)

	loaded, err := LoadConfig(explicitPath)
	require.NoError(t, err)

	assert.Equal(t, "http://project.example:3001", loaded.API.BaseURL, "project overrides user")
	assert.Equal(t, 5*time.Second, loaded.API.RequestTimeout, "user value survives when project is silent")
	assert.Equal(t, "someone", loaded.Auth.Username)
	assert.Equal(t, DefaultPassword, loaded.Auth.Password)
	assert.Equal(t, "@smoke", loaded.Run.Tags)
	assert.Equal(t, 10, loaded.Run.ScanLimit)
	assert.True(t, loaded.Run.FailFast)
	assert.Equal(t, OutputJSON, loaded.Run.Output)
	assert.Equal(t, DefaultFormat, loaded.Run.Format)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	tempDir := t.TempDir()
	pointConfigPaths(t, filepath.Join(tempDir, "a.yaml"), filepath.Join(tempDir, "b.yaml"))

	_, err := LoadConfig(filepath.Join(tempDir, "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	projectPath := filepath.Join(tempDir, "project.yaml")
	require.NoError(t, os.WriteFile(projectPath, []byte("api: [not, a, map"), 0644))
	pointConfigPaths(t, filepath.Join(tempDir, "none.yaml"), projectPath)

	_, err := LoadConfig("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), projectPath)
}

func TestLoadConfig_DurationFromYAML(t *testing.T) {
	tempDir := t.TempDir()
	projectPath := filepath.Join(tempDir, "project.yaml")
	content := "api:\n  requestTimeout: 1500ms\n  requestsPerSecond: 2.5\n"
	require.NoError(t, os.WriteFile(projectPath, []byte(content), 0644))
	pointConfigPaths(t, filepath.Join(tempDir, "none.yaml"), projectPath)

	loaded, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, loaded.API.RequestTimeout)
	assert.Equal(t, 2.5, loaded.API.RequestsPerSecond)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *SuiteConfig)
		wantErr string
	}{
		{"defaults are valid", func(c *SuiteConfig) {}, ""},
		{"relative url", func(c *SuiteConfig) { c.API.BaseURL = "/booking" }, "scheme"},
		{"missing host", func(c *SuiteConfig) { c.API.BaseURL = "http://" }, "missing host"},
		{"zero timeout", func(c *SuiteConfig) { c.API.RequestTimeout = 0 }, "requestTimeout"},
		{"negative rate", func(c *SuiteConfig) { c.API.RequestsPerSecond = -1 }, "requestsPerSecond"},
		{"zero scan limit", func(c *SuiteConfig) { c.Run.ScanLimit = 0 }, "scanLimit"},
		{"unknown output", func(c *SuiteConfig) { c.Run.Output = "xml" }, "run.output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetUserConfigDir(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()
	osUserHomeDir = func() (string, error) { return "/home/tester", nil }

	dir, err := GetUserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "bookerbdd"), dir)
}

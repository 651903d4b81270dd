package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"bookerbdd/pkg/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/bookerbdd"
	projectConfigDir = ".bookerbdd"
	configFileName   = "config.yaml"
)

// LoadConfig loads the configuration by layering default, user and project
// settings. When explicitPath is not empty that file is layered last and must
// exist.
func LoadConfig(explicitPath string) (SuiteConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional.
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else if config, err = layerIfExists(config, userConfigPath); err != nil {
		return SuiteConfig{}, err
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if config, err = layerIfExists(config, projectConfigPath); err != nil {
		return SuiteConfig{}, err
	}

	if explicitPath != "" {
		explicit, err := loadConfigFromFile(explicitPath)
		if err != nil {
			return SuiteConfig{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
		config = mergeConfigs(config, explicit)
	}

	return config, nil
}

func layerIfExists(base SuiteConfig, path string) (SuiteConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return SuiteConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	logging.Debug("Config", "Layered configuration from %s", path)
	return mergeConfigs(base, overlay), nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a SuiteConfig from a YAML file.
func loadConfigFromFile(filePath string) (SuiteConfig, error) {
	var config SuiteConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return SuiteConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return SuiteConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Zero values in the
// overlay leave the base untouched.
func mergeConfigs(base, overlay SuiteConfig) SuiteConfig {
	merged := base

	if overlay.API.BaseURL != "" {
		merged.API.BaseURL = overlay.API.BaseURL
	}
	if overlay.API.RequestTimeout != 0 {
		merged.API.RequestTimeout = overlay.API.RequestTimeout
	}
	if overlay.API.RequestsPerSecond != 0 {
		merged.API.RequestsPerSecond = overlay.API.RequestsPerSecond
	}

	if overlay.Auth.Username != "" {
		merged.Auth.Username = overlay.Auth.Username
	}
	if overlay.Auth.Password != "" {
		merged.Auth.Password = overlay.Auth.Password
	}

	if len(overlay.Run.Features) > 0 {
		merged.Run.Features = overlay.Run.Features
	}
	if overlay.Run.Tags != "" {
		merged.Run.Tags = overlay.Run.Tags
	}
	if overlay.Run.Format != "" {
		merged.Run.Format = overlay.Run.Format
	}
	// FailFast can only be switched on by an overlay.
	if overlay.Run.FailFast {
		merged.Run.FailFast = true
	}
	if overlay.Run.ScanLimit != 0 {
		merged.Run.ScanLimit = overlay.Run.ScanLimit
	}
	if overlay.Run.ReportPath != "" {
		merged.Run.ReportPath = overlay.Run.ReportPath
	}
	if overlay.Run.Output != "" {
		merged.Run.Output = overlay.Run.Output
	}

	return merged
}

// Validate reports the first problem that would prevent a run.
func (c SuiteConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.baseURL %q: %w", c.API.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api.baseURL %q: scheme must be http or https", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api.baseURL %q: missing host", c.API.BaseURL)
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.requestTimeout must be positive")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requestsPerSecond must not be negative")
	}
	if c.Run.ScanLimit < 1 {
		return fmt.Errorf("run.scanLimit must be at least 1")
	}
	switch c.Run.Output {
	case OutputConsole, OutputQuiet, OutputJSON:
	default:
		return fmt.Errorf("invalid run.output %q, must be one of: console, quiet, json", c.Run.Output)
	}
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

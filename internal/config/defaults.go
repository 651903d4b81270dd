package config

import (
	"time"
)

const (
	DefaultBaseURL        = "https://restful-booker.herokuapp.com"
	DefaultRequestTimeout = 30 * time.Second
	DefaultUsername       = "admin"
	DefaultPassword       = "password123"
	DefaultFormat         = "pretty"
	DefaultScanLimit      = 50
)

// GetDefaultConfig returns the configuration used when no file overrides it.
func GetDefaultConfig() SuiteConfig {
	return SuiteConfig{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			RequestTimeout: DefaultRequestTimeout,
		},
		Auth: AuthConfig{
			Username: DefaultUsername,
			Password: DefaultPassword,
		},
		Run: RunConfig{
			Format:    DefaultFormat,
			ScanLimit: DefaultScanLimit,
			Output:    OutputConsole,
		},
	}
}

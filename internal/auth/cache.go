// Package auth caches the session token required by mutating booking requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookerbdd/pkg/logging"
)

// ErrAuthenticationFailed marks a token fetch that did not yield a token.
var ErrAuthenticationFailed = errors.New("authentication failed")

// TokenSource performs the actual authentication call.
type TokenSource interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// Credentials are the fixed username and password exchanged for a token.
type Credentials struct {
	Username string
	Password string
}

// State tells apart a cache that has not been asked yet from one whose
// single fetch failed.
type State int

const (
	StateNotFetched State = iota
	StateFetched
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotFetched:
		return "not-fetched"
	case StateFetched:
		return "fetched"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Error is returned for a failed fetch, both the first time and on every
// later call.
type Error struct {
	Username string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v for user %q: %v", ErrAuthenticationFailed, e.Username, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrAuthenticationFailed, e.Err}
}

// TokenCache fetches a token lazily, at most once per run, and hands the same
// token to every caller afterwards. A failed fetch is cached as well; there is
// no retry.
type TokenCache struct {
	source TokenSource
	creds  Credentials

	mu      sync.Mutex
	state   State
	token   string
	err     error
	fetches int
}

// NewTokenCache creates a cache in StateNotFetched.
func NewTokenCache(source TokenSource, creds Credentials) *TokenCache {
	return &TokenCache{source: source, creds: creds}
}

// Token returns the cached token, authenticating first if no fetch has
// happened yet. Concurrent callers wait for the single in-flight fetch.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateFetched:
		return c.token, nil
	case StateFailed:
		return "", c.err
	}

	c.fetches++
	logging.Debug("Auth", "Requesting token for user %q", c.creds.Username)
	token, err := c.source.Authenticate(ctx, c.creds.Username, c.creds.Password)
	if err == nil && token == "" {
		err = errors.New("empty token")
	}
	if err != nil {
		c.state = StateFailed
		c.err = &Error{Username: c.creds.Username, Err: err}
		logging.Error("Auth", err, "Token request failed")
		return "", c.err
	}

	c.state = StateFetched
	c.token = token
	return token, nil
}

// State reports the current cache state.
func (c *TokenCache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fetches reports how many authentication calls were made.
func (c *TokenCache) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// Reset forgets the token and any failure. Called at a run boundary.
func (c *TokenCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateNotFetched
	c.token = ""
	c.err = nil
	c.fetches = 0
}

package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls atomic.Int32
	token string
	err   error

	mu      sync.Mutex
	gotUser string
	gotPass string
}

func (f *fakeSource) Authenticate(ctx context.Context, username, password string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.gotUser, f.gotPass = username, password
	f.mu.Unlock()
	return f.token, f.err
}

func TestTokenCache_FetchesAtMostOnce(t *testing.T) {
	src := &fakeSource{token: "abc"}
	cache := NewTokenCache(src, Credentials{Username: "admin", Password: "password123"})
	assert.Equal(t, StateNotFetched, cache.State())

	first, err := cache.Token(context.Background())
	require.NoError(t, err)
	second, err := cache.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc", first)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, 1, cache.Fetches())
	assert.Equal(t, StateFetched, cache.State())
	assert.Equal(t, "admin", src.gotUser)
	assert.Equal(t, "password123", src.gotPass)
}

func TestTokenCache_NeverFetchedWhenUnused(t *testing.T) {
	src := &fakeSource{token: "abc"}
	cache := NewTokenCache(src, Credentials{})

	assert.Equal(t, 0, cache.Fetches())
	assert.Equal(t, StateNotFetched, cache.State())
	assert.EqualValues(t, 0, src.calls.Load())
}

func TestTokenCache_FailureIsDistinctAndCached(t *testing.T) {
	cause := errors.New("bad credentials")
	src := &fakeSource{err: cause}
	cache := NewTokenCache(src, Credentials{Username: "admin"})

	_, err := cache.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateFailed, cache.State())

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "admin", authErr.Username)

	_, again := cache.Token(context.Background())
	assert.Same(t, err, again)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestTokenCache_EmptyTokenIsFailure(t *testing.T) {
	cache := NewTokenCache(&fakeSource{}, Credentials{})

	token, err := cache.Token(context.Background())
	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, StateFailed, cache.State())
}

func TestTokenCache_Reset(t *testing.T) {
	src := &fakeSource{token: "abc"}
	cache := NewTokenCache(src, Credentials{})

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	cache.Reset()
	assert.Equal(t, StateNotFetched, cache.State())
	assert.Equal(t, 0, cache.Fetches())

	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestTokenCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	src := &fakeSource{token: "abc"}
	cache := NewTokenCache(src, Credentials{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := cache.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "abc", token)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not-fetched", StateNotFetched.String())
	assert.Equal(t, "fetched", StateFetched.String())
	assert.Equal(t, "failed", StateFailed.String())
}

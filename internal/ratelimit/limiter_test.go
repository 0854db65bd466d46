package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/brandlink/internal/ratelimit"
	"github.com/serroba/brandlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Record(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, errors.New("redis unavailable")
}

var redirectScopes = []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRedirect}

func TestPolicyLimiterAllow(t *testing.T) {
	policy := ratelimit.NewPolicyBuilder().
		AddLimit(ratelimit.ScopeGlobal, 100, time.Minute).
		AddLimit(ratelimit.ScopeRedirect, 2, time.Minute).
		Build()

	t.Run("allows until the scope limit is reached", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)

		for i := range 2 {
			d, err := limiter.Allow(context.Background(), "client", redirectScopes)

			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, ratelimit.ScopeRedirect, d.Scope, "redirect is the tightest limit")
			assert.Equal(t, int64(1-i), d.Remaining)
		}

		d, err := limiter.Allow(context.Background(), "client", redirectScopes)

		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ratelimit.ScopeRedirect, d.Scope)
		assert.Equal(t, int64(3), d.Count)
		assert.Equal(t, int64(0), d.Remaining)
		assert.Equal(t, "redirect scope, 3/2 requests in 1m0s", d.String())
	})

	t.Run("keeps clients apart", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)

		for range 2 {
			_, _ = limiter.Allow(context.Background(), "a", redirectScopes)
		}

		d, err := limiter.Allow(context.Background(), "b", redirectScopes)

		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("reports no remaining quota when no limit applies", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), policy)

		for range 10 {
			d, err := limiter.Allow(context.Background(), "client", []ratelimit.Scope{ratelimit.ScopeWrite})

			require.NoError(t, err)
			assert.True(t, d.Allowed)
			assert.Equal(t, int64(-1), d.Remaining)
		}
	})

	t.Run("wraps store errors", func(t *testing.T) {
		limiter := ratelimit.NewPolicyLimiter(failingStore{}, policy)

		d, err := limiter.Allow(context.Background(), "client", redirectScopes)

		require.ErrorContains(t, err, "redis unavailable")
		assert.False(t, d.Allowed)
	})
}

func TestPolicyLimiterAllowCustom(t *testing.T) {
	limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitMemoryStore(), ratelimit.NewPolicyBuilder().Build())
	limits := []ratelimit.LimitConfig{{Window: time.Hour, Max: 1}}

	d, err := limiter.AllowCustom(context.Background(), "client", "/api/links", limits)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.AllowCustom(context.Background(), "client", "/api/domains", limits)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "routes count separately")

	d, err = limiter.AllowCustom(context.Background(), "client", "/api/links", limits)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ratelimit.ScopeCustom, d.Scope)
}

func TestDefaultPolicy(t *testing.T) {
	policy := ratelimit.DefaultPolicy()

	assert.NotEmpty(t, policy.Limits[ratelimit.ScopeRedirect])
	assert.NotEmpty(t, policy.Limits[ratelimit.ScopeWrite])
}

func TestPolicyBuilder(t *testing.T) {
	policy := ratelimit.NewPolicyBuilder().
		AddLimit(ratelimit.ScopeWrite, 10, time.Minute).
		AddLimit(ratelimit.ScopeWrite, 100, time.Hour).
		Build()

	assert.Equal(t, []ratelimit.LimitConfig{
		{Window: time.Minute, Max: 10},
		{Window: time.Hour, Max: 100},
	}, policy.Limits[ratelimit.ScopeWrite])
	assert.Empty(t, policy.Limits[ratelimit.ScopeRead])
}

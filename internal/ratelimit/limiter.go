package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store keeps sliding windows of request timestamps.
type Store interface {
	// Record adds a request under key and returns how many fall inside the
	// trailing window, this one included.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// ScopeCustom labels decisions made from an endpoint's own limits.
const ScopeCustom Scope = "custom"

// Decision is the outcome of one limiter check. Limit, Count and Remaining
// describe the tightest limit evaluated; Remaining is -1 when no limit applied.
type Decision struct {
	Allowed   bool
	Scope     Scope
	Limit     LimitConfig
	Count     int64
	Remaining int64
}

func (d Decision) String() string {
	return fmt.Sprintf("%s scope, %d/%d requests in %s", d.Scope, d.Count, d.Limit.Max, d.Limit.Window)
}

// PolicyLimiter enforces a Policy over sliding windows kept in a Store.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request against every limit of every scope. The first
// exceeded limit denies it; later limits are not recorded.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (Decision, error) {
	var checks []check

	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			checks = append(checks, check{
				key:   fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds()),
				scope: scope,
				limit: limit,
			})
		}
	}

	return l.evaluate(ctx, checks)
}

// AllowCustom is Allow for limits declared on one route. Counters are keyed
// by the route template, so every request to "/api/links" shares them.
func (l *PolicyLimiter) AllowCustom(ctx context.Context, clientKey, route string, limits []LimitConfig) (Decision, error) {
	checks := make([]check, 0, len(limits))

	for _, limit := range limits {
		checks = append(checks, check{
			key:   fmt.Sprintf("%s:custom:%s:%d", clientKey, route, limit.Window.Milliseconds()),
			scope: ScopeCustom,
			limit: limit,
		})
	}

	return l.evaluate(ctx, checks)
}

type check struct {
	key   string
	scope Scope
	limit LimitConfig
}

func (l *PolicyLimiter) evaluate(ctx context.Context, checks []check) (Decision, error) {
	tightest := Decision{Allowed: true, Remaining: -1}

	for _, c := range checks {
		count, err := l.store.Record(ctx, c.key, c.limit.Window)
		if err != nil {
			return Decision{}, fmt.Errorf("record %s: %w", c.key, err)
		}

		d := Decision{
			Allowed:   count <= c.limit.Max,
			Scope:     c.scope,
			Limit:     c.limit,
			Count:     count,
			Remaining: max(c.limit.Max-count, 0),
		}

		if !d.Allowed {
			return d, nil
		}

		if tightest.Remaining < 0 || d.Remaining < tightest.Remaining {
			tightest = d
		}
	}

	return tightest, nil
}

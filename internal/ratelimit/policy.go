package ratelimit

import "time"

// LimitConfig allows at most Max requests per sliding Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy.
type PolicyBuilder struct {
	policy *Policy
}

// NewPolicyBuilder starts an empty policy.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{policy: &Policy{Limits: make(map[Scope][]LimitConfig)}}
}

// AddLimit allows max requests per window for scope.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	b.policy.Limits[scope] = append(b.policy.Limits[scope], LimitConfig{Window: window, Max: maxRequests})

	return b
}

// Build returns the assembled policy.
func (b *PolicyBuilder) Build() *Policy {
	return b.policy
}

// DefaultPolicy keeps redirects cheap and admin writes scarce.
func DefaultPolicy() *Policy {
	return NewPolicyBuilder().
		AddLimit(ScopeGlobal, 2000, time.Minute).
		AddLimit(ScopeRead, 600, time.Minute).
		AddLimit(ScopeRedirect, 50, time.Second).
		AddLimit(ScopeRedirect, 1000, time.Minute).
		AddLimit(ScopeWrite, 10, time.Minute).
		AddLimit(ScopeWrite, 100, time.Hour).
		AddLimit(ScopeWrite, 500, 24*time.Hour).
		Build()
}

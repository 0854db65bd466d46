package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope groups requests that share limits.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
	// ScopeRedirect is public short link traffic. Routes opt in through
	// EndpointConfig.Scope; it replaces ScopeRead for them.
	ScopeRedirect Scope = "redirect"
)

// MetadataKey holds an EndpointConfig in huma operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig is per-route rate limiting, attached to an operation with
// Metadata. Non-empty Limits replace the policy entirely and Scope is then
// ignored.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// Metadata returns operation metadata carrying the config.
func (c EndpointConfig) Metadata() map[string]any {
	return map[string]any{MetadataKey: c}
}

// ScopeResolver picks the scopes a request counts against.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// ScopeResolverFunc adapts a function to ScopeResolver.
type ScopeResolverFunc func(ctx huma.Context) []Scope

func (f ScopeResolverFunc) Resolve(ctx huma.Context) []Scope {
	return f(ctx)
}

// MethodScopes classifies safe methods as reads and everything else as
// writes. ScopeGlobal always applies.
func MethodScopes(method string) []Scope {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Scope{ScopeGlobal, ScopeRead}
	default:
		return []Scope{ScopeGlobal, ScopeWrite}
	}
}

// NewMethodScopeResolver resolves scopes from the HTTP method alone.
func NewMethodScopeResolver() ScopeResolver {
	return ScopeResolverFunc(func(ctx huma.Context) []Scope {
		return MethodScopes(ctx.Method())
	})
}

// NewOperationScopeResolver prefers the scope declared in operation metadata
// and falls back to MethodScopes.
func NewOperationScopeResolver() ScopeResolver {
	return ScopeResolverFunc(func(ctx huma.Context) []Scope {
		if cfg := GetEndpointConfig(ctx); cfg != nil && cfg.Scope != "" {
			return []Scope{ScopeGlobal, cfg.Scope}
		}

		return MethodScopes(ctx.Method())
	})
}

// GetEndpointConfig returns the operation's EndpointConfig, or nil.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

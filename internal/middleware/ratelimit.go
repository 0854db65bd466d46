package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/brandlink/internal/ratelimit"
	"go.uber.org/zap"
)

// Response headers describing the tightest limit a request counted against.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderRetry     = "Retry-After"
)

// clientKey identifies a client by IP and User-Agent.
func clientKey(ctx huma.Context) string {
	hash := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(hash[:])
}

// PolicyRateLimiter limits requests by the scopes the resolver picks.
// Operations can override the scope, declare their own limits, or opt out
// through ratelimit.EndpointConfig metadata. When the store fails the
// request goes through: an unavailable Redis must not take redirects down.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		path := operationPath(ctx)
		key := clientKey(ctx)

		var (
			decision ratelimit.Decision
			err      error
		)

		if cfg != nil && len(cfg.Limits) > 0 {
			decision, err = limiter.AllowCustom(ctx.Context(), key, path, cfg.Limits)
		} else {
			decision, err = limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			next(ctx)

			return
		}

		if decision.Remaining >= 0 {
			ctx.SetHeader(HeaderLimit, strconv.FormatInt(decision.Limit.Max, 10))
			ctx.SetHeader(HeaderRemaining, strconv.FormatInt(decision.Remaining, 10))
		}

		if !decision.Allowed {
			logger.Warn("rate limit exceeded",
				zap.String("path", path),
				zap.String("method", ctx.Method()),
				zap.String("scope", string(decision.Scope)),
				zap.Int64("count", decision.Count),
				zap.Int64("max", decision.Limit.Max),
				zap.Duration("window", decision.Limit.Window),
				zap.String("clientIp", clientIP(ctx)),
			)

			ctx.SetHeader(HeaderRetry, retryAfter(decision.Limit.Window))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded: "+decision.String())

			return
		}

		next(ctx)
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ctx.URL().Path
}

// retryAfter advertises the window length, an upper bound on the wait.
func retryAfter(window time.Duration) string {
	return strconv.Itoa(max(int(window.Round(time.Second)/time.Second), 1))
}

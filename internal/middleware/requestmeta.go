package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/brandlink/internal/handlers"
)

const unknownIP = "unknown"

// RequestMeta is a middleware that adds host, client IP, user-agent, and referrer to the request context.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			Host:      ctx.Host(),
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// clientIP returns the first X-Forwarded-For entry, else the transport
// remote address, else "unknown".
func clientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	addr := ctx.RemoteAddr()
	if addr == "" {
		return unknownIP
	}

	if ip, _, err := net.SplitHostPort(addr); err == nil {
		return ip
	}

	return addr
}

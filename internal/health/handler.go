package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/brandlink/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// Ping calls f.
func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// NewRedisChecker creates a Redis health checker.
func NewRedisChecker(client *redis.Client) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

// Handler reports the health of every registered dependency.
type Handler struct {
	checks map[string]Checker
}

// NewHandler creates a new health handler for the named checkers.
func NewHandler(checks map[string]Checker) *Handler {
	return &Handler{checks: checks}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status       string            `example:"ok"                                  json:"status"`
		Dependencies map[string]string `doc:"healthy or unhealthy per dependency" json:"dependencies"`
	}
}

// Check pings all dependencies concurrently, each bounded by a short timeout.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		group   errgroup.Group
	)

	for _, name := range h.names() {
		checker := h.checks[name]

		group.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			state := "healthy"
			if err := checker.Ping(ctx); err != nil {
				state = "unhealthy"
			}

			mu.Lock()
			results[name] = state
			mu.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Dependencies = results

	for _, state := range results {
		if state != "healthy" {
			resp.Body.Status = "degraded"
		}
	}

	return resp, nil
}

func (h *Handler) names() []string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// RegisterRoutes registers health check routes. Probes are never rate limited.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Metadata:    ratelimit.EndpointConfig{Disabled: true}.Metadata(),
	}, h.Check)
}

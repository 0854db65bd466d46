package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/brandlink/internal/ratelimit"
)

// RegisterRoutes registers the public short link routes.
func RegisterRoutes(api huma.API, redirect *RedirectHandler) {
	// GET /preview/{slug} - describe a link without following it
	huma.Register(api, huma.Operation{
		OperationID: "preview-link",
		Method:      http.MethodGet,
		Path:        "/preview/{slug}",
		Summary:     "Preview short link",
		Description: "Returns link metadata without redirecting or recording a click.",
		Tags:        []string{"Links"},
		Metadata:    ratelimit.EndpointConfig{Scope: ratelimit.ScopeRead}.Metadata(),
	}, redirect.Preview)

	// GET /{slug} - follow a link on the requesting host
	// Uses the redirect scope, which is tuned for high traffic
	huma.Register(api, huma.Operation{
		OperationID:   "follow-link",
		Method:        http.MethodGet,
		Path:          "/{slug}",
		Summary:       "Follow short link",
		Description:   "Resolves the slug on the request host and redirects to the destination.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusFound,
		Metadata:      ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect}.Metadata(),
	}, redirect.Redirect)
}

// RegisterAdminRoutes registers the token protected seeding routes.
func RegisterAdminRoutes(api huma.API, admin *AdminHandler) {
	writeLimits := ratelimit.EndpointConfig{
		Limits: []ratelimit.LimitConfig{
			{Window: time.Minute, Max: 30},
			{Window: time.Hour, Max: 500},
		},
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-domain",
		Method:        http.MethodPost,
		Path:          "/api/domains",
		Summary:       "Register domain",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusCreated,
		Metadata:      writeLimits.Metadata(),
	}, admin.CreateDomain)

	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Create short link",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusCreated,
		Metadata:      writeLimits.Metadata(),
	}, admin.CreateLink)
}

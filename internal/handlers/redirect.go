package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/shortener"
	"github.com/serroba/brandlink/internal/worker"
	"go.uber.org/zap"
)

// Task names submitted to the Dispatcher for every authorized redirect.
const (
	TaskRecordClick     = "record_click"
	TaskIncrementClicks = "increment_clicks"
)

const noCache = "private, max-age=0, no-cache"

// Dispatcher runs side effects after the response has been decided.
type Dispatcher interface {
	Submit(name string, task worker.Task) bool
}

// ClickRecorder persists one click per visit.
type ClickRecorder interface {
	Record(ctx context.Context, visit analytics.Visit) error
}

// RedirectObserver is notified about the outcome of every redirect request.
type RedirectObserver interface {
	ObserveRedirect(outcome string)
}

type nopRedirectObserver struct{}

func (nopRedirectObserver) ObserveRedirect(string) {}

// RedirectConfig configures a RedirectHandler.
type RedirectConfig struct {
	// Status is the redirect status code; defaults to 302.
	Status int
	// Now is the clock used for click timestamps; defaults to time.Now.
	Now func() time.Time
}

// RedirectHandler resolves branded short links and records clicks.
type RedirectHandler struct {
	domains  *shortener.DomainResolver
	links    shortener.LinkRepository
	guard    *shortener.AccessGuard
	recorder ClickRecorder
	dispatch Dispatcher
	observer RedirectObserver
	status   int
	now      func() time.Time
	logger   *zap.Logger
}

// NewRedirectHandler creates a new redirect handler. observer may be nil.
func NewRedirectHandler(
	domains *shortener.DomainResolver,
	links shortener.LinkRepository,
	guard *shortener.AccessGuard,
	recorder ClickRecorder,
	dispatch Dispatcher,
	observer RedirectObserver,
	cfg RedirectConfig,
	logger *zap.Logger,
) *RedirectHandler {
	if observer == nil {
		observer = nopRedirectObserver{}
	}

	if cfg.Status == 0 {
		cfg.Status = http.StatusFound
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &RedirectHandler{
		domains:  domains,
		links:    links,
		guard:    guard,
		recorder: recorder,
		dispatch: dispatch,
		observer: observer,
		status:   cfg.Status,
		now:      cfg.Now,
		logger:   logger,
	}
}

// Redirect resolves the slug on the requesting host and redirects to the
// composed destination. Clicks are recorded only for authorized redirects.
func (h *RedirectHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	meta := RequestMetaFromContext(ctx)

	_, link, err := h.lookup(ctx, meta.Host, req.Slug)
	if err != nil {
		return nil, err
	}

	state, err := h.guard.Evaluate(link, req.Password)
	if err != nil {
		h.logger.Error("failed to verify link password",
			zap.String("linkId", link.ID),
			zap.Error(err),
		)
		h.observer.ObserveRedirect("error")

		return nil, errServer()
	}

	if state != shortener.AccessValid {
		h.observer.ObserveRedirect(state.String())

		return nil, accessError(state)
	}

	destination, err := shortener.ComposeDestination(link)
	if err != nil {
		h.logger.Error("stored destination is invalid",
			zap.String("linkId", link.ID),
			zap.String("destination", link.DestinationURL),
			zap.Error(err),
		)
		h.observer.ObserveRedirect("invalid_destination")

		return nil, errServer()
	}

	h.recordClick(link, meta)

	h.observer.ObserveRedirect("redirected")

	resp := &RedirectResponse{
		Status:   h.status,
		Location: destination,
	}

	if h.status != http.StatusMovedPermanently && h.status != http.StatusPermanentRedirect {
		resp.CacheControl = noCache
	}

	return resp, nil
}

// Preview describes a link without redirecting or recording a click.
func (h *RedirectHandler) Preview(ctx context.Context, req *PreviewRequest) (*PreviewResponse, error) {
	domain, link, err := h.lookup(ctx, RequestMetaFromContext(ctx).Host, req.Slug)
	if err != nil {
		return nil, err
	}

	state, _ := h.guard.Evaluate(link, "")

	resp := &PreviewResponse{}
	resp.Body = PreviewBody{
		Success:          true,
		Slug:             string(link.Slug),
		Domain:           domain.Name,
		Title:            link.Title,
		Description:      link.Description,
		Tags:             link.Tags,
		RequiresPassword: link.RequiresPassword(),
		ExpiresAt:        link.ExpiresAt,
		Expired:          state == shortener.AccessExpired,
	}

	return resp, nil
}

// lookup resolves the domain and the active link, mapping failures to API errors.
func (h *RedirectHandler) lookup(ctx context.Context, host, slug string) (*shortener.Domain, *shortener.Link, error) {
	domain, err := h.domains.Resolve(ctx, host)
	if err != nil {
		if errors.Is(err, shortener.ErrDomainNotFound) {
			h.observer.ObserveRedirect("domain_not_found")

			return nil, nil, errNotFound(msgDomainNotFound)
		}

		h.logger.Error("failed to resolve domain", zap.String("host", host), zap.Error(err))
		h.observer.ObserveRedirect("error")

		return nil, nil, errServer()
	}

	link, err := h.links.FindActiveLink(ctx, domain.ID, shortener.Slug(slug))
	if err != nil {
		if errors.Is(err, shortener.ErrLinkNotFound) || errors.Is(err, shortener.ErrLinkInactive) {
			h.observer.ObserveRedirect("link_not_found")

			return nil, nil, errNotFound(msgLinkNotFound)
		}

		h.logger.Error("failed to find link",
			zap.String("domainId", domain.ID),
			zap.String("slug", slug),
			zap.Error(err),
		)
		h.observer.ObserveRedirect("error")

		return nil, nil, errServer()
	}

	return domain, link, nil
}

// recordClick dispatches the click record and the counter increment. Both
// run detached from the request; failures are logged by the dispatcher and
// never reach the caller.
func (h *RedirectHandler) recordClick(link *shortener.Link, meta RequestMeta) {
	visit := analytics.Visit{
		LinkID:    link.ID,
		At:        h.now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	if !h.dispatch.Submit(TaskRecordClick, func(ctx context.Context) error {
		return h.recorder.Record(ctx, visit)
	}) {
		h.logger.Warn("click dropped", zap.String("linkId", link.ID))
	}

	linkID := link.ID
	if !h.dispatch.Submit(TaskIncrementClicks, func(ctx context.Context) error {
		return h.links.IncrementClickCount(ctx, linkID)
	}) {
		h.logger.Warn("click count increment dropped", zap.String("linkId", link.ID))
	}
}

func accessError(state shortener.AccessState) *APIError {
	switch state {
	case shortener.AccessExpired:
		return errGone(msgLinkExpired)
	case shortener.AccessPasswordRequired:
		return errPassword(msgPasswordRequired)
	case shortener.AccessPasswordInvalid:
		return errPassword(msgInvalidPassword)
	default:
		return errServer()
	}
}

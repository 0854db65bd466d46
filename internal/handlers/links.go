package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/serroba/brandlink/internal/shortener"
	"go.uber.org/zap"
)

// AdminHandler seeds domains and links. It is registered only when an admin
// token is configured.
type AdminHandler struct {
	creator *shortener.Creator
	token   string
	scheme  string
	logger  *zap.Logger
}

// NewAdminHandler creates a new admin handler. scheme is used to build the
// shortUrl of created links.
func NewAdminHandler(creator *shortener.Creator, token, scheme string, logger *zap.Logger) *AdminHandler {
	if scheme == "" {
		scheme = "https"
	}

	return &AdminHandler{
		creator: creator,
		token:   token,
		scheme:  scheme,
		logger:  logger,
	}
}

func (h *AdminHandler) CreateDomain(ctx context.Context, req *CreateDomainRequest) (*CreateDomainResponse, error) {
	if !h.authorized(req.Authorization) {
		return nil, errStatus(http.StatusUnauthorized, "Unauthorized")
	}

	domain, err := h.creator.CreateDomain(ctx, shortener.NewDomain{
		UserID:   req.Body.UserID,
		Name:     req.Body.Name,
		Verified: req.Body.Verified,
		Default:  req.Body.Default,
	})
	if err != nil {
		return nil, h.writeError("create domain", err)
	}

	h.logger.Info("domain registered",
		zap.String("domainId", domain.ID),
		zap.String("name", domain.Name),
	)

	return &CreateDomainResponse{
		Status: http.StatusCreated,
		Body: DomainBody{
			Success:           true,
			ID:                domain.ID,
			UserID:            domain.UserID,
			Name:              domain.Name,
			Verified:          domain.Verified,
			IsDefault:         domain.IsDefault,
			VerificationToken: domain.VerificationToken,
			CreatedAt:         domain.CreatedAt,
		},
	}, nil
}

func (h *AdminHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	if !h.authorized(req.Authorization) {
		return nil, errStatus(http.StatusUnauthorized, "Unauthorized")
	}

	in := req.Body

	link, err := h.creator.CreateLink(ctx, shortener.NewLink{
		UserID:         in.UserID,
		DomainName:     in.Domain,
		Slug:           shortener.Slug(in.Slug),
		DestinationURL: in.DestinationURL,
		Title:          in.Title,
		Description:    in.Description,
		Tags:           in.Tags,
		Password:       in.Password,
		ExpiresAt:      in.ExpiresAt,
		UTM: shortener.UTM{
			Source:   in.UTMSource,
			Medium:   in.UTMMedium,
			Campaign: in.UTMCampaign,
		},
	})
	if err != nil {
		return nil, h.writeError("create link", err)
	}

	shortURL := h.scheme + "://" + shortener.NormalizeDomainName(in.Domain) + "/" + string(link.Slug)

	h.logger.Info("link created",
		zap.String("linkId", link.ID),
		zap.String("shortUrl", shortURL),
	)

	return &CreateLinkResponse{
		Status:   http.StatusCreated,
		Location: shortURL,
		Body: LinkBody{
			Success:          true,
			ID:               link.ID,
			DomainID:         link.DomainID,
			Slug:             string(link.Slug),
			ShortURL:         shortURL,
			DestinationURL:   link.DestinationURL,
			Title:            link.Title,
			Description:      link.Description,
			Tags:             link.Tags,
			RequiresPassword: link.RequiresPassword(),
			ExpiresAt:        link.ExpiresAt,
			CreatedAt:        link.CreatedAt,
		},
	}, nil
}

func (h *AdminHandler) authorized(header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || h.token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}

func (h *AdminHandler) writeError(op string, err error) *APIError {
	switch {
	case errors.Is(err, shortener.ErrSlugTaken), errors.Is(err, shortener.ErrDomainTaken):
		return errStatus(http.StatusConflict, err.Error())
	case errors.Is(err, shortener.ErrDomainNotFound):
		return errNotFound(msgDomainNotFound)
	case errors.Is(err, shortener.ErrInvalidDestination),
		errors.Is(err, shortener.ErrInvalidSlug),
		errors.Is(err, shortener.ErrSlugReserved),
		errors.Is(err, shortener.ErrInvalidDomainName),
		errors.Is(err, shortener.ErrDomainUnverified):
		return errStatus(http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("admin write failed", zap.String("op", op), zap.Error(err))

		return errServer()
	}
}

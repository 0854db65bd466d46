package shortener

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SlugGenerator generates candidate slugs.
type SlugGenerator func() string

const maxGenerateAttempts = 5

var (
	slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

	reservedSlugs = map[Slug]bool{
		"api":     true,
		"docs":    true,
		"health":  true,
		"metrics": true,
		"openapi": true,
		"preview": true,
		"schemas": true,
	}
)

// NewLink describes a link to create.
type NewLink struct {
	UserID         string
	DomainName     string
	Slug           Slug // generated when empty
	DestinationURL string
	Title          string
	Description    string
	Tags           []string
	Password       string
	ExpiresAt      *time.Time
	UTM            UTM
}

// NewDomain describes a domain to register.
type NewDomain struct {
	UserID   string
	Name     string
	Verified bool
	Default  bool
}

// Creator seeds domains and links into a store.
type Creator struct {
	store         Repository
	generateSlug  SlugGenerator
	defaultDomain string
	now           Clock
}

// NewCreator creates a Creator. Links may always be created on defaultDomain,
// verified or not, so a local setup works without the DNS flow.
func NewCreator(store Repository, generator SlugGenerator, defaultDomain string) *Creator {
	return &Creator{
		store:         store,
		generateSlug:  generator,
		defaultDomain: NormalizeDomainName(defaultDomain),
		now:           time.Now,
	}
}

// CreateDomain registers a domain.
func (c *Creator) CreateDomain(ctx context.Context, in NewDomain) (*Domain, error) {
	name := NormalizeDomainName(in.Name)
	if name == "" || strings.ContainsAny(name, "/ :") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomainName, in.Name)
	}

	domain := &Domain{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		Name:              name,
		Verified:          in.Verified,
		IsDefault:         in.Default,
		VerificationToken: "brandlink-verify=" + uuid.NewString(),
		CreatedAt:         c.now().UTC(),
	}

	if err := c.store.SaveDomain(ctx, domain); err != nil {
		return nil, err
	}

	return domain, nil
}

// CreateLink validates and stores a link.
func (c *Creator) CreateLink(ctx context.Context, in NewLink) (*Link, error) {
	if _, err := ParseDestination(in.DestinationURL); err != nil {
		return nil, err
	}

	if in.Slug != "" {
		if err := ValidateSlug(in.Slug); err != nil {
			return nil, err
		}
	}

	domain, err := c.store.GetDomainByName(ctx, NormalizeDomainName(in.DomainName))
	if err != nil {
		return nil, err
	}

	if !domain.Verified && domain.Name != c.defaultDomain {
		return nil, ErrDomainUnverified
	}

	link := &Link{
		ID:             uuid.NewString(),
		UserID:         in.UserID,
		DomainID:       domain.ID,
		Slug:           in.Slug,
		DestinationURL: strings.TrimSpace(in.DestinationURL),
		Title:          in.Title,
		Description:    in.Description,
		Tags:           in.Tags,
		ExpiresAt:      in.ExpiresAt,
		IsActive:       true,
		UTM:            in.UTM,
		CreatedAt:      c.now().UTC(),
	}

	if in.Password != "" {
		if link.PasswordHash, err = HashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	if in.Slug != "" {
		if err := c.store.SaveLink(ctx, link); err != nil {
			return nil, err
		}

		return link, nil
	}

	// Generated slugs retry on collision; explicit slugs do not.
	for range maxGenerateAttempts {
		link.Slug = Slug(c.generateSlug())
		if reservedSlugs[link.Slug] {
			continue
		}

		err = c.store.SaveLink(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, ErrSlugTaken) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("generate slug after %d attempts: %w", maxGenerateAttempts, ErrSlugTaken)
}

// ValidateSlug checks the slug charset and the reserved route names.
func ValidateSlug(slug Slug) error {
	if !slugPattern.MatchString(string(slug)) {
		return fmt.Errorf("%w %q: use letters, digits, '-' or '_'", ErrInvalidSlug, slug)
	}

	if reservedSlugs[Slug(strings.ToLower(string(slug)))] {
		return ErrSlugReserved
	}

	return nil
}

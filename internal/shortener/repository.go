package shortener

import "context"

// DomainRepository looks up domain records. Domains are owned by the
// domain-management side; the redirect path only reads them.
type DomainRepository interface {
	GetDomainByName(ctx context.Context, name string) (*Domain, error)
}

// LinkRepository is the link store used on the redirect path.
type LinkRepository interface {
	// FindActiveLink returns the active link for (domainID, slug).
	// Inactive links are reported as ErrLinkNotFound.
	FindActiveLink(ctx context.Context, domainID string, slug Slug) (*Link, error)

	// IncrementClickCount atomically adds one to the link's click counter.
	IncrementClickCount(ctx context.Context, linkID string) error
}

// Writer persists domains and links for the admin seeding API.
type Writer interface {
	// SaveDomain stores a domain. When domain.IsDefault is set, every other
	// domain of the same user loses its default flag in the same transaction.
	SaveDomain(ctx context.Context, domain *Domain) error

	// SaveLink stores a link, returning ErrSlugTaken when (DomainID, Slug)
	// already exists.
	SaveLink(ctx context.Context, link *Link) error
}

// Repository groups everything a backing store provides.
type Repository interface {
	DomainRepository
	LinkRepository
	Writer
}

package shortener

import "errors"

var (
	ErrDomainNotFound     = errors.New("domain not found")
	ErrLinkNotFound       = errors.New("link not found")
	ErrLinkExpired        = errors.New("link has expired")
	ErrLinkInactive       = errors.New("link is inactive")
	ErrPasswordRequired   = errors.New("password required")
	ErrPasswordInvalid    = errors.New("invalid password")
	ErrInvalidDestination = errors.New("invalid destination url")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrSlugTaken is returned when (domain, slug) is already in use.
	ErrSlugTaken = errors.New("slug already taken on this domain")
	// ErrInvalidSlug is returned for slugs outside [A-Za-z0-9_-]{1,64}.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrInvalidDomainName is returned for names that cannot be a host.
	ErrInvalidDomainName = errors.New("invalid domain name")
	// ErrSlugReserved is returned for slugs that collide with service routes.
	ErrSlugReserved = errors.New("slug is reserved")
	// ErrDomainTaken is returned when a domain name is already registered.
	ErrDomainTaken = errors.New("domain already registered")
	// ErrDomainUnverified is returned when creating links on an unverified domain.
	ErrDomainUnverified = errors.New("domain is not verified")
)

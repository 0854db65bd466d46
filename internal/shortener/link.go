package shortener

import (
	"strings"
	"time"
)

// Slug is the per-domain path segment identifying a link.
type Slug string

// Domain is a branded host that links are served from.
type Domain struct {
	ID                string
	UserID            string
	Name              string // lowercase, globally unique
	Verified          bool
	IsDefault         bool // exactly one default per user
	VerificationToken string
	CreatedAt         time.Time
}

// Link maps a slug on a domain to a destination URL.
type Link struct {
	ID             string
	UserID         string
	DomainID       string
	Slug           Slug
	DestinationURL string
	Title          string
	Description    string
	Tags           []string
	Clicks         int64
	PasswordHash   string // empty when the link is not protected
	ExpiresAt      *time.Time
	IsActive       bool
	UTM            UTM
	CreatedAt      time.Time
}

// UTM holds the optional campaign parameters appended on redirect.
type UTM struct {
	Source   string
	Medium   string
	Campaign string
}

// IsZero reports whether no campaign parameter is set.
func (u UTM) IsZero() bool {
	return u.Source == "" && u.Medium == "" && u.Campaign == ""
}

// RequiresPassword reports whether the link is password protected.
func (l *Link) RequiresPassword() bool {
	return l.PasswordHash != ""
}

// ExpiredAt reports whether the link is expired at the given instant.
// A link is expired only when now is strictly after its expiry.
func (l *Link) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// NormalizeDomainName lowercases a domain name and strips a trailing dot.
func NormalizeDomainName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

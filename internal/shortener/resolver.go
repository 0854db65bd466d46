package shortener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// DomainResolver maps an inbound Host header to a domain record.
type DomainResolver struct {
	domains       DomainRepository
	defaultDomain string
}

// NewDomainResolver creates a resolver. defaultDomain is used for loopback
// hosts during local development; leave it empty to disable the fallback.
func NewDomainResolver(domains DomainRepository, defaultDomain string) *DomainResolver {
	return &DomainResolver{
		domains:       domains,
		defaultDomain: NormalizeDomainName(defaultDomain),
	}
}

// Resolve returns the domain serving host.
func (r *DomainResolver) Resolve(ctx context.Context, host string) (*Domain, error) {
	name := hostname(host)

	domain, err := r.domains.GetDomainByName(ctx, name)
	if err == nil {
		return domain, nil
	}

	if !errors.Is(err, ErrDomainNotFound) {
		return nil, fmt.Errorf("lookup domain %q: %w", name, err)
	}

	if r.defaultDomain == "" || !IsLoopbackHost(name) {
		return nil, ErrDomainNotFound
	}

	domain, err = r.domains.GetDomainByName(ctx, r.defaultDomain)
	if err != nil {
		if errors.Is(err, ErrDomainNotFound) {
			return nil, ErrDomainNotFound
		}

		return nil, fmt.Errorf("lookup default domain %q: %w", r.defaultDomain, err)
	}

	return domain, nil
}

// IsLoopbackHost reports whether host (without port) is a local development host.
func IsLoopbackHost(host string) bool {
	switch hostname(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

// hostname strips an optional port and normalizes the remaining name.
func hostname(host string) string {
	host = strings.TrimSpace(host)

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	return NormalizeDomainName(host)
}

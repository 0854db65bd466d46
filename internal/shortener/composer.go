package shortener

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	paramUTMSource   = "utm_source"
	paramUTMMedium   = "utm_medium"
	paramUTMCampaign = "utm_campaign"
)

// ComposeDestination builds the redirect target for a link. Non-empty UTM
// fields are appended as utm_source, utm_medium and utm_campaign, in that
// order, after any existing query parameters. A parameter already present on
// the destination is replaced so composing twice yields the same URL.
func ComposeDestination(link *Link) (string, error) {
	u, err := ParseDestination(link.DestinationURL)
	if err != nil {
		return "", err
	}

	if link.UTM.IsZero() {
		return link.DestinationURL, nil
	}

	params := []struct{ key, value string }{
		{paramUTMSource, link.UTM.Source},
		{paramUTMMedium, link.UTM.Medium},
		{paramUTMCampaign, link.UTM.Campaign},
	}

	set := make(map[string]bool, len(params))

	for _, p := range params {
		if p.value != "" {
			set[p.key] = true
		}
	}

	pairs := make([]string, 0, len(params))

	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}

		key, _, _ := strings.Cut(pair, "=")
		if name, err := url.QueryUnescape(key); err == nil && set[name] {
			continue
		}

		pairs = append(pairs, pair)
	}

	for _, p := range params {
		if p.value == "" {
			continue
		}

		pairs = append(pairs, url.QueryEscape(p.key)+"="+url.QueryEscape(p.value))
	}

	u.RawQuery = strings.Join(pairs, "&")
	u.ForceQuery = false

	return u.String(), nil
}

// ParseDestination parses a stored destination and checks that it is an
// absolute http(s) URL.
func ParseDestination(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDestination, err)
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidDestination, raw)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidDestination, u.Scheme)
	}

	return u, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/brandlink/internal/shortener"
)

// RedisCacheRepository wraps a Repository with Redis caching for the
// lookups on the redirect path.
type RedisCacheRepository struct {
	store        shortener.Repository
	client       *redis.Client
	domainPrefix string
	linkPrefix   string
	ttl          time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
// Cached entries expire after ttl, which bounds how long a deactivated or
// edited link keeps being served from cache.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:        store,
		client:       client,
		domainPrefix: "domain:",
		linkPrefix:   "link:",
		ttl:          ttl,
	}
}

// GetDomainByName retrieves a domain, checking the cache first.
func (r *RedisCacheRepository) GetDomainByName(ctx context.Context, name string) (*shortener.Domain, error) {
	key := r.domainPrefix + shortener.NormalizeDomainName(name)

	if result, err := r.client.HGetAll(ctx, key).Result(); err == nil && len(result) > 0 {
		return decodeDomain(result), nil
	}

	domain, err := r.store.GetDomainByName(ctx, name)
	if err != nil {
		return nil, err
	}

	r.cache(ctx, key, encodeDomain(domain))

	return domain, nil
}

// FindActiveLink retrieves an active link, checking the cache first.
// Only active links are cached, so a cache hit is always active.
func (r *RedisCacheRepository) FindActiveLink(ctx context.Context, domainID string, slug shortener.Slug) (*shortener.Link, error) {
	key := r.linkKey(domainID, slug)

	if result, err := r.client.HGetAll(ctx, key).Result(); err == nil && len(result) > 0 {
		if link, err := decodeLink(result); err == nil {
			return link, nil
		}
	}

	link, err := r.store.FindActiveLink(ctx, domainID, slug)
	if err != nil {
		return nil, err
	}

	r.cache(ctx, key, encodeLink(link))

	return link, nil
}

// IncrementClickCount passes through; the cached copy does not carry the counter.
func (r *RedisCacheRepository) IncrementClickCount(ctx context.Context, linkID string) error {
	return r.store.IncrementClickCount(ctx, linkID)
}

// SaveDomain stores the domain and evicts the cached copies of every domain
// name it may have changed. Other domains of the same user may lose their
// default flag, so their entries expire through the TTL.
func (r *RedisCacheRepository) SaveDomain(ctx context.Context, domain *shortener.Domain) error {
	if err := r.store.SaveDomain(ctx, domain); err != nil {
		return err
	}

	r.client.Del(ctx, r.domainPrefix+shortener.NormalizeDomainName(domain.Name))

	return nil
}

// SaveLink stores the link and evicts any cached entry for its slug.
func (r *RedisCacheRepository) SaveLink(ctx context.Context, link *shortener.Link) error {
	if err := r.store.SaveLink(ctx, link); err != nil {
		return err
	}

	r.client.Del(ctx, r.linkKey(link.DomainID, link.Slug))

	return nil
}

func (r *RedisCacheRepository) linkKey(domainID string, slug shortener.Slug) string {
	return r.linkPrefix + domainID + ":" + string(slug)
}

func (r *RedisCacheRepository) cache(ctx context.Context, key string, fields map[string]interface{}) {
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fields)

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

func encodeDomain(d *shortener.Domain) map[string]interface{} {
	return map[string]interface{}{
		"id":                 d.ID,
		"user_id":            d.UserID,
		"name":               d.Name,
		"verified":           strconv.FormatBool(d.Verified),
		"is_default":         strconv.FormatBool(d.IsDefault),
		"verification_token": d.VerificationToken,
		"created_at":         d.CreatedAt.UnixNano(),
	}
}

func decodeDomain(m map[string]string) *shortener.Domain {
	verified, _ := strconv.ParseBool(m["verified"])
	isDefault, _ := strconv.ParseBool(m["is_default"])

	return &shortener.Domain{
		ID:                m["id"],
		UserID:            m["user_id"],
		Name:              m["name"],
		Verified:          verified,
		IsDefault:         isDefault,
		VerificationToken: m["verification_token"],
		CreatedAt:         unixNanos(m["created_at"]),
	}
}

func encodeLink(l *shortener.Link) map[string]interface{} {
	tags, _ := json.Marshal(l.Tags)

	expiresAt := ""
	if l.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(l.ExpiresAt.UnixNano(), 10)
	}

	return map[string]interface{}{
		"id":              l.ID,
		"user_id":         l.UserID,
		"domain_id":       l.DomainID,
		"slug":            string(l.Slug),
		"destination_url": l.DestinationURL,
		"title":           l.Title,
		"description":     l.Description,
		"tags":            string(tags),
		"password_hash":   l.PasswordHash,
		"expires_at":      expiresAt,
		"utm_source":      l.UTM.Source,
		"utm_medium":      l.UTM.Medium,
		"utm_campaign":    l.UTM.Campaign,
		"created_at":      l.CreatedAt.UnixNano(),
	}
}

func decodeLink(m map[string]string) (*shortener.Link, error) {
	if m["id"] == "" || m["destination_url"] == "" {
		return nil, errors.New("incomplete cache entry")
	}

	link := &shortener.Link{
		ID:             m["id"],
		UserID:         m["user_id"],
		DomainID:       m["domain_id"],
		Slug:           shortener.Slug(m["slug"]),
		DestinationURL: m["destination_url"],
		Title:          m["title"],
		Description:    m["description"],
		PasswordHash:   m["password_hash"],
		IsActive:       true,
		UTM: shortener.UTM{
			Source:   m["utm_source"],
			Medium:   m["utm_medium"],
			Campaign: m["utm_campaign"],
		},
		CreatedAt: unixNanos(m["created_at"]),
	}

	if raw := m["tags"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &link.Tags); err != nil {
			return nil, err
		}
	}

	if raw := m["expires_at"]; raw != "" {
		at := unixNanos(raw)
		link.ExpiresAt = &at
	}

	return link, nil
}

func unixNanos(s string) time.Time {
	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(0, nanos).UTC()
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)

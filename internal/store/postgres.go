package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/shortener"
)

const pgUniqueViolation = "23505"

// PostgresStore is a PostgreSQL implementation of shortener.Repository and
// analytics.Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) GetDomainByName(ctx context.Context, name string) (*shortener.Domain, error) {
	query := `
		SELECT id, user_id, name, verified, is_default, verification_token, created_at
		FROM domains
		WHERE name = $1
	`

	var d shortener.Domain

	err := p.pool.QueryRow(ctx, query, shortener.NormalizeDomainName(name)).Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Verified,
		&d.IsDefault,
		&d.VerificationToken,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrDomainNotFound
		}

		return nil, unavailable(err)
	}

	return &d, nil
}

func (p *PostgresStore) FindActiveLink(ctx context.Context, domainID string, slug shortener.Slug) (*shortener.Link, error) {
	query := `
		SELECT id, user_id, domain_id, slug, destination_url, title, description, tags,
		       clicks, password_hash, expires_at, is_active,
		       utm_source, utm_medium, utm_campaign, created_at
		FROM links
		WHERE domain_id = $1 AND slug = $2 AND is_active
	`

	var l shortener.Link

	err := p.pool.QueryRow(ctx, query, domainID, string(slug)).Scan(
		&l.ID,
		&l.UserID,
		&l.DomainID,
		&l.Slug,
		&l.DestinationURL,
		&l.Title,
		&l.Description,
		&l.Tags,
		&l.Clicks,
		&l.PasswordHash,
		&l.ExpiresAt,
		&l.IsActive,
		&l.UTM.Source,
		&l.UTM.Medium,
		&l.UTM.Campaign,
		&l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrLinkNotFound
		}

		return nil, unavailable(err)
	}

	return &l, nil
}

// IncrementClickCount relies on the row-level atomic update; no read-modify-write.
func (p *PostgresStore) IncrementClickCount(ctx context.Context, linkID string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = $1`, linkID)
	if err != nil {
		return unavailable(err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrLinkNotFound
	}

	return nil
}

func (p *PostgresStore) SaveDomain(ctx context.Context, domain *shortener.Domain) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if domain.IsDefault {
			_, err := tx.Exec(ctx,
				`UPDATE domains SET is_default = FALSE WHERE user_id = $1 AND id <> $2 AND is_default`,
				domain.UserID, domain.ID,
			)
			if err != nil {
				return unavailable(err)
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO domains (id, user_id, name, verified, is_default, verification_token, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			domain.ID,
			domain.UserID,
			shortener.NormalizeDomainName(domain.Name),
			domain.Verified,
			domain.IsDefault,
			domain.VerificationToken,
			domain.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return shortener.ErrDomainTaken
			}

			return unavailable(err)
		}

		return nil
	})
}

func (p *PostgresStore) SaveLink(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (id, user_id, domain_id, slug, destination_url, title, description, tags,
		                   clicks, password_hash, expires_at, is_active,
		                   utm_source, utm_medium, utm_campaign, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := p.pool.Exec(ctx, query,
		link.ID,
		link.UserID,
		link.DomainID,
		string(link.Slug),
		link.DestinationURL,
		link.Title,
		link.Description,
		tags,
		link.Clicks,
		link.PasswordHash,
		link.ExpiresAt,
		link.IsActive,
		link.UTM.Source,
		link.UTM.Medium,
		link.UTM.Campaign,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shortener.ErrSlugTaken
		}

		return unavailable(err)
	}

	return nil
}

func (p *PostgresStore) SaveClick(ctx context.Context, click *analytics.Click) error {
	query := `
		INSERT INTO clicks (id, link_id, clicked_at, ip, user_agent, referrer,
		                    browser, os, device_type, country, city, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		click.ID,
		click.LinkID,
		click.ClickedAt,
		click.IP,
		click.UserAgent,
		click.Referrer,
		click.Browser,
		click.OS,
		click.DeviceType,
		click.Country,
		click.City,
		click.Region,
	)
	if err != nil {
		return unavailable(err)
	}

	return nil
}

// CountClicks returns the number of click rows stored for a link.
func (p *PostgresStore) CountClicks(ctx context.Context, linkID string) (int64, error) {
	var n int64

	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clicks WHERE link_id = $1`, linkID).Scan(&n)

	return n, err
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", shortener.ErrStorageUnavailable, err)
}

var (
	_ shortener.Repository = (*PostgresStore)(nil)
	_ analytics.Store      = (*PostgresStore)(nil)
)

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/shortener"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQLiteStore is an embedded implementation of shortener.Repository and
// analytics.Store for single-node deployments and local development.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := MigrateSQLite(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetDomainByName(ctx context.Context, name string) (*shortener.Domain, error) {
	var (
		d         shortener.Domain
		createdAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, verified, is_default, verification_token, created_at
		FROM domains WHERE name = ?
	`, shortener.NormalizeDomainName(name)).Scan(
		&d.ID, &d.UserID, &d.Name, &d.Verified, &d.IsDefault, &d.VerificationToken, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shortener.ErrDomainNotFound
		}

		return nil, unavailable(err)
	}

	d.CreatedAt = time.Unix(0, createdAt).UTC()

	return &d, nil
}

func (s *SQLiteStore) FindActiveLink(ctx context.Context, domainID string, slug shortener.Slug) (*shortener.Link, error) {
	var (
		l         shortener.Link
		slugStr   string
		tags      string
		expiresAt sql.NullInt64
		createdAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, domain_id, slug, destination_url, title, description, tags,
		       clicks, password_hash, expires_at, is_active,
		       utm_source, utm_medium, utm_campaign, created_at
		FROM links
		WHERE domain_id = ? AND slug = ? AND is_active = 1
	`, domainID, string(slug)).Scan(
		&l.ID, &l.UserID, &l.DomainID, &slugStr, &l.DestinationURL, &l.Title, &l.Description, &tags,
		&l.Clicks, &l.PasswordHash, &expiresAt, &l.IsActive,
		&l.UTM.Source, &l.UTM.Medium, &l.UTM.Campaign, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shortener.ErrLinkNotFound
		}

		return nil, unavailable(err)
	}

	l.Slug = shortener.Slug(slugStr)
	l.CreatedAt = time.Unix(0, createdAt).UTC()

	if expiresAt.Valid {
		at := time.Unix(0, expiresAt.Int64).UTC()
		l.ExpiresAt = &at
	}

	if err := json.Unmarshal([]byte(tags), &l.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of link %s: %w", l.ID, err)
	}

	return &l, nil
}

func (s *SQLiteStore) IncrementClickCount(ctx context.Context, linkID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = ?`, linkID)
	if err != nil {
		return unavailable(err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shortener.ErrLinkNotFound
	}

	return nil
}

func (s *SQLiteStore) SaveDomain(ctx context.Context, domain *shortener.Domain) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	if domain.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE domains SET is_default = 0 WHERE user_id = ? AND id <> ?`,
			domain.UserID, domain.ID,
		); err != nil {
			return unavailable(err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO domains (id, user_id, name, verified, is_default, verification_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		domain.ID,
		domain.UserID,
		shortener.NormalizeDomainName(domain.Name),
		domain.Verified,
		domain.IsDefault,
		domain.VerificationToken,
		domain.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return shortener.ErrDomainTaken
		}

		return unavailable(err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable(err)
	}

	return nil
}

func (s *SQLiteStore) SaveLink(ctx context.Context, link *shortener.Link) error {
	tags := link.Tags
	if tags == nil {
		tags = []string{}
	}

	encoded, err := json.Marshal(tags)
	if err != nil {
		return err
	}

	var expiresAt sql.NullInt64
	if link.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: link.ExpiresAt.UnixNano(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO links (id, user_id, domain_id, slug, destination_url, title, description, tags,
		                   clicks, password_hash, expires_at, is_active,
		                   utm_source, utm_medium, utm_campaign, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		link.ID, link.UserID, link.DomainID, string(link.Slug), link.DestinationURL,
		link.Title, link.Description, string(encoded),
		link.Clicks, link.PasswordHash, expiresAt, link.IsActive,
		link.UTM.Source, link.UTM.Medium, link.UTM.Campaign, link.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isSQLiteConstraint(err) {
			return shortener.ErrSlugTaken
		}

		return unavailable(err)
	}

	return nil
}

func (s *SQLiteStore) SaveClick(ctx context.Context, click *analytics.Click) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO clicks (id, link_id, clicked_at, ip, user_agent, referrer,
		                              browser, os, device_type, country, city, region)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		click.ID, click.LinkID, click.ClickedAt.UnixNano(), click.IP, click.UserAgent, click.Referrer,
		click.Browser, click.OS, click.DeviceType, click.Country, click.City, click.Region,
	)
	if err != nil {
		return unavailable(err)
	}

	return nil
}

// CountClicks returns the number of click rows stored for a link.
func (s *SQLiteStore) CountClicks(ctx context.Context, linkID string) (int64, error) {
	var n int64

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clicks WHERE link_id = ?`, linkID).Scan(&n)

	return n, err
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

// modernc reports constraint failures as "constraint failed: UNIQUE ..." errors.
func isSQLiteConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ shortener.Repository = (*SQLiteStore)(nil)
	_ analytics.Store      = (*SQLiteStore)(nil)
)

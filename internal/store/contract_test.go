package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkStore is what every persistent backend implements.
type linkStore interface {
	shortener.Repository
	analytics.Store
	CountClicks(ctx context.Context, linkID string) (int64, error)
}

func newDomain(userID, name string, isDefault bool) *shortener.Domain {
	return &shortener.Domain{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Verified:  true,
		IsDefault: isDefault,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func newLink(domainID string, slug shortener.Slug) *shortener.Link {
	return &shortener.Link{
		ID:             uuid.NewString(),
		UserID:         "user-1",
		DomainID:       domainID,
		Slug:           slug,
		DestinationURL: "https://x.test/" + string(slug),
		IsActive:       true,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

// runStoreContract exercises the behaviour shared by all link stores. Every
// run uses fresh ids and names so it can share a database with other runs.
func runStoreContract(t *testing.T, s linkStore) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	user := "user-" + suffix

	domain := newDomain(user, "go-"+suffix+".example", true)
	require.NoError(t, s.SaveDomain(ctx, domain))

	t.Run("finds domains by normalized name", func(t *testing.T) {
		got, err := s.GetDomainByName(ctx, "GO-"+suffix+".example.")

		require.NoError(t, err)
		assert.Equal(t, domain.ID, got.ID)
		assert.Equal(t, domain.Name, got.Name)
		assert.True(t, got.Verified)
		assert.True(t, got.IsDefault)

		_, err = s.GetDomainByName(ctx, "missing-"+suffix+".example")
		assert.ErrorIs(t, err, shortener.ErrDomainNotFound)
	})

	t.Run("domain names are unique", func(t *testing.T) {
		err := s.SaveDomain(ctx, newDomain("other", domain.Name, false))

		assert.ErrorIs(t, err, shortener.ErrDomainTaken)
	})

	t.Run("one default domain per user", func(t *testing.T) {
		second := newDomain(user, "second-"+suffix+".example", true)
		require.NoError(t, s.SaveDomain(ctx, second))

		first, err := s.GetDomainByName(ctx, domain.Name)
		require.NoError(t, err)
		assert.False(t, first.IsDefault)

		got, err := s.GetDomainByName(ctx, second.Name)
		require.NoError(t, err)
		assert.True(t, got.IsDefault)
	})

	t.Run("round trips every link field", func(t *testing.T) {
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)

		link := newLink(domain.ID, "full")
		link.Title = "Launch"
		link.Description = "Spring launch"
		link.Tags = []string{"spring", "launch"}
		link.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
		link.ExpiresAt = &expires
		link.UTM = shortener.UTM{Source: "tw", Medium: "social", Campaign: "launch"}

		require.NoError(t, s.SaveLink(ctx, link))

		got, err := s.FindActiveLink(ctx, domain.ID, "full")

		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.Equal(t, link.DestinationURL, got.DestinationURL)
		assert.Equal(t, link.Title, got.Title)
		assert.Equal(t, link.Description, got.Description)
		assert.Equal(t, link.Tags, got.Tags)
		assert.Equal(t, link.PasswordHash, got.PasswordHash)
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, expires.Equal(*got.ExpiresAt))
		assert.Equal(t, link.UTM, got.UTM)
		assert.True(t, got.IsActive)
	})

	t.Run("slugs are unique per domain only", func(t *testing.T) {
		require.NoError(t, s.SaveLink(ctx, newLink(domain.ID, "dup")))

		err := s.SaveLink(ctx, newLink(domain.ID, "dup"))
		assert.ErrorIs(t, err, shortener.ErrSlugTaken)

		other := newDomain("other-"+suffix, "other-"+suffix+".example", false)
		require.NoError(t, s.SaveDomain(ctx, other))
		require.NoError(t, s.SaveLink(ctx, newLink(other.ID, "dup")))
	})

	t.Run("inactive links are not found", func(t *testing.T) {
		link := newLink(domain.ID, "off")
		link.IsActive = false
		require.NoError(t, s.SaveLink(ctx, link))

		_, err := s.FindActiveLink(ctx, domain.ID, "off")
		assert.ErrorIs(t, err, shortener.ErrLinkNotFound)

		_, err = s.FindActiveLink(ctx, domain.ID, "never-created")
		assert.ErrorIs(t, err, shortener.ErrLinkNotFound)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		link := newLink(domain.ID, "hot")
		require.NoError(t, s.SaveLink(ctx, link))

		const n = 25

		var wg sync.WaitGroup

		for range n {
			wg.Add(1)

			go func() {
				defer wg.Done()

				assert.NoError(t, s.IncrementClickCount(ctx, link.ID))
			}()
		}

		wg.Wait()

		got, err := s.FindActiveLink(ctx, domain.ID, "hot")
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.Clicks)

		assert.ErrorIs(t, s.IncrementClickCount(ctx, uuid.NewString()), shortener.ErrLinkNotFound)
	})

	t.Run("clicks are appended once per id", func(t *testing.T) {
		link := newLink(domain.ID, "tracked")
		require.NoError(t, s.SaveLink(ctx, link))

		click := analytics.BuildClick(analytics.Visit{LinkID: link.ID, ClientIP: "203.0.113.5"})
		click.ClickedAt = click.ClickedAt.Truncate(time.Microsecond)

		require.NoError(t, s.SaveClick(ctx, click))
		require.NoError(t, s.SaveClick(ctx, click))
		require.NoError(t, s.SaveClick(ctx, analytics.BuildClick(analytics.Visit{LinkID: link.ID})))

		n, err := s.CountClicks(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

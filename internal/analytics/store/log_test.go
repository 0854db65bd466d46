package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/brandlink/internal/analytics"
	"github.com/serroba/brandlink/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog_SaveClick(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := store.NewLog(zap.New(core))

	err := sink.SaveClick(context.Background(), &analytics.Click{
		ID:        "click-1",
		LinkID:    "link-1",
		ClickedAt: time.Now(),
		Referrer:  analytics.DirectReferrer,
	})

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "click received", entry.Message)
	assert.Equal(t, "link-1", entry.ContextMap()["linkId"])
	assert.Equal(t, "direct", entry.ContextMap()["referrer"])
}

package store

import (
	"context"

	"github.com/serroba/brandlink/internal/analytics"
	"go.uber.org/zap"
)

// Log is an analytics.Store that only logs clicks. The consumer falls back
// to it when no database is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a new logging click store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SaveClick(_ context.Context, click *analytics.Click) error {
	l.logger.Info("click received",
		zap.String("clickId", click.ID),
		zap.String("linkId", click.LinkID),
		zap.Time("clickedAt", click.ClickedAt),
		zap.String("referrer", click.Referrer),
		zap.String("browser", click.Browser),
		zap.String("deviceType", click.DeviceType),
		zap.String("country", click.Country),
	)

	return nil
}

var _ analytics.Store = (*Log)(nil)

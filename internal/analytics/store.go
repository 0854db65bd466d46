package analytics

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mock_store_test.go -package=analytics_test

// Store persists click records.
type Store interface {
	SaveClick(ctx context.Context, click *Click) error
}

package statuslog

import "context"

type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	FindByEventType(ctx context.Context, eventType string, limit int) ([]Entry, error)
}

package gorm

import (
	"context"
	"posguard/domain/statuslog"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

type StatusLogRepository struct {
	db *gorm.DB
}

func NewStatusLogRepository(db *gorm.DB) statuslog.Repository {
	return &StatusLogRepository{db: db}
}

func (r *StatusLogRepository) Append(ctx context.Context, entry *statuslog.Entry) error {
	entry.ID = "slg_" + ulid.Make().String()
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *StatusLogRepository) Recent(ctx context.Context, limit int) ([]statuslog.Entry, error) {
	var entries []statuslog.Entry
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *StatusLogRepository) FindByEventType(ctx context.Context, eventType string, limit int) ([]statuslog.Entry, error) {
	var entries []statuslog.Entry
	err := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

package repository

import (
	"context"
	"time"

	"github.com/railzwaylabs/metertrack/internal/baseline/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, b *domain.BaseReading) error {
	return db.WithContext(ctx).Create(b).Error
}

// FindCurrent returns the most recently created base reading, or nil.
func (r *repo) FindCurrent(ctx context.Context, db *gorm.DB) (*domain.BaseReading, error) {
	var items []domain.BaseReading
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) UpdateEndDate(ctx context.Context, db *gorm.DB, b *domain.BaseReading, endDate time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.BaseReading{}).
		Where("id = ?", b.ID).
		Update("end_date", datatypes.Date(endDate)).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.BaseReading, error) {
	var items []domain.BaseReading
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

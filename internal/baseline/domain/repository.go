package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, b *BaseReading) error
	FindCurrent(ctx context.Context, db *gorm.DB) (*BaseReading, error)
	UpdateEndDate(ctx context.Context, db *gorm.DB, b *BaseReading, endDate time.Time) error
	List(ctx context.Context, db *gorm.DB) ([]BaseReading, error)
}

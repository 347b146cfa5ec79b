package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, r *MeterReading) error
	FindByDate(ctx context.Context, db *gorm.DB, date time.Time) (*MeterReading, error)
	FindLatest(ctx context.Context, db *gorm.DB) (*MeterReading, error)
	FindLatestSince(ctx context.Context, db *gorm.DB, from time.Time) (*MeterReading, error)
	ListSince(ctx context.Context, db *gorm.DB, from time.Time) ([]MeterReading, error)
	ListBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]MeterReading, error)
	ListDates(ctx context.Context, db *gorm.DB) ([]time.Time, error)
	DeleteByDate(ctx context.Context, db *gorm.DB, date time.Time) (int64, error)
	DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}

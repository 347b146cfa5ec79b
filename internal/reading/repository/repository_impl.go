package repository

import (
	"context"
	"time"

	"github.com/railzwaylabs/metertrack/internal/reading/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert writes r, replacing values and timestamp of an existing row for
// the same reading_date. The row id of an existing row is kept.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, item *domain.MeterReading) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "reading_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"meter1_current",
				"meter2_current",
				"meter3_current",
				"meter1_consumption",
				"meter2_consumption",
				"meter3_consumption",
				"timestamp",
			}),
		}).
		Create(item).Error
}

func (r *repo) FindByDate(ctx context.Context, db *gorm.DB, date time.Time) (*domain.MeterReading, error) {
	return first(db.WithContext(ctx).Where("reading_date = ?", datatypes.Date(date)))
}

func (r *repo) FindLatest(ctx context.Context, db *gorm.DB) (*domain.MeterReading, error) {
	return first(db.WithContext(ctx).Order("reading_date DESC"))
}

func (r *repo) FindLatestSince(ctx context.Context, db *gorm.DB, from time.Time) (*domain.MeterReading, error) {
	return first(db.WithContext(ctx).
		Where("reading_date >= ?", datatypes.Date(from)).
		Order("reading_date DESC"))
}

func (r *repo) ListSince(ctx context.Context, db *gorm.DB, from time.Time) ([]domain.MeterReading, error) {
	var items []domain.MeterReading
	err := db.WithContext(ctx).
		Where("reading_date >= ?", datatypes.Date(from)).
		Order("reading_date ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]domain.MeterReading, error) {
	var items []domain.MeterReading
	err := db.WithContext(ctx).
		Where("reading_date >= ? AND reading_date <= ?", datatypes.Date(from), datatypes.Date(to)).
		Order("reading_date ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListDates(ctx context.Context, db *gorm.DB) ([]time.Time, error) {
	var dates []datatypes.Date
	err := db.WithContext(ctx).
		Model(&domain.MeterReading{}).
		Distinct("reading_date").
		Order("reading_date DESC").
		Pluck("reading_date", &dates).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, time.Time(d))
	}
	return out, nil
}

func (r *repo) DeleteByDate(ctx context.Context, db *gorm.DB, date time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("reading_date = ?", datatypes.Date(date)).
		Delete(&domain.MeterReading{})
	return res.RowsAffected, res.Error
}

func (r *repo) DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("reading_date < ?", datatypes.Date(cutoff)).
		Delete(&domain.MeterReading{})
	return res.RowsAffected, res.Error
}

func first(q *gorm.DB) (*domain.MeterReading, error) {
	var items []domain.MeterReading
	if err := q.Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

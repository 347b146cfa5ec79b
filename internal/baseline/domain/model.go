package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BaseReading is a zero point for consumption tracking. Only the most
// recently created row is in effect.
type BaseReading struct {
	ID         snowflake.ID   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Meter1Base int64          `gorm:"column:meter1_base;not null" json:"meter1_base"`
	Meter2Base int64          `gorm:"column:meter2_base;not null" json:"meter2_base"`
	Meter3Base int64          `gorm:"column:meter3_base;not null" json:"meter3_base"`
	BaseDate   datatypes.Date `gorm:"column:base_date;not null;index" json:"base_date"`
	EndDate    datatypes.Date `gorm:"column:end_date;not null" json:"end_date"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (BaseReading) TableName() string { return "base_readings" }

func (b BaseReading) Base() time.Time { return time.Time(b.BaseDate) }

func (b BaseReading) End() time.Time { return time.Time(b.EndDate) }

// Values returns the three base values in meter order.
func (b BaseReading) Values() [3]int64 {
	return [3]int64{b.Meter1Base, b.Meter2Base, b.Meter3Base}
}

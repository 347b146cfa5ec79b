package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// MeterReading is one day's register values. Consumption columns hold
// current minus the base that was in effect when the row was written.
type MeterReading struct {
	ID                snowflake.ID   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ReadingDate       datatypes.Date `gorm:"column:reading_date;not null;uniqueIndex:meter_readings_reading_date_key" json:"reading_date"`
	Meter1Current     int64          `gorm:"column:meter1_current;not null" json:"meter1_current"`
	Meter2Current     int64          `gorm:"column:meter2_current;not null" json:"meter2_current"`
	Meter3Current     int64          `gorm:"column:meter3_current;not null" json:"meter3_current"`
	Meter1Consumption int64          `gorm:"column:meter1_consumption;not null" json:"meter1_consumption"`
	Meter2Consumption int64          `gorm:"column:meter2_consumption;not null" json:"meter2_consumption"`
	Meter3Consumption int64          `gorm:"column:meter3_consumption;not null" json:"meter3_consumption"`
	Timestamp         time.Time      `gorm:"column:timestamp;not null" json:"timestamp"`
}

func (MeterReading) TableName() string { return "meter_readings" }

func (r MeterReading) Date() time.Time { return time.Time(r.ReadingDate) }

func (r MeterReading) Consumption() [3]int64 {
	return [3]int64{r.Meter1Consumption, r.Meter2Consumption, r.Meter3Consumption}
}

func (r MeterReading) Current() [3]int64 {
	return [3]int64{r.Meter1Current, r.Meter2Current, r.Meter3Current}
}

// Invalid reports whether any meter went below its base.
func (r MeterReading) Invalid() bool {
	return r.Meter1Consumption < 0 || r.Meter2Consumption < 0 || r.Meter3Consumption < 0
}

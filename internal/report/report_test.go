package report

import (
	"bytes"
	"testing"
	"time"

	quotadomain "github.com/railzwaylabs/metertrack/internal/quota/domain"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
	usagedomain "github.com/railzwaylabs/metertrack/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestWriteReadingsCSV(t *testing.T) {
	ts := time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)
	readings := []readingdomain.MeterReading{
		{
			ReadingDate:       datatypes.Date(time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)),
			Meter1Current:     1040,
			Meter2Current:     2060,
			Meter3Current:     1490,
			Meter1Consumption: 40,
			Meter2Consumption: 60,
			Meter3Consumption: -10,
			Timestamp:         ts,
		},
		{
			ReadingDate:       datatypes.Date(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
			Meter1Current:     1050,
			Meter2Current:     2070,
			Meter3Current:     1530,
			Meter1Consumption: 50,
			Meter2Consumption: 70,
			Meter3Consumption: 30,
			Timestamp:         ts,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReadingsCSV(&buf, readings))

	want := "reading_date,meter1_current,meter2_current,meter3_current,meter1_consumption,meter2_consumption,meter3_consumption,invalid,timestamp\n" +
		"2024-01-09,1040,2060,1490,40,60,-10,true,2024-01-10T08:30:00Z\n" +
		"2024-01-10,1050,2070,1530,50,70,30,false,2024-01-10T08:30:00Z\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReadingsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReadingsCSV(&buf, nil))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "home-usage-2024-01-10.pdf", Filename("Home", "usage", "2024-01-10", "pdf"))
	assert.Equal(t, "lake-house-readings-2024-01-10.csv", Filename("Lake House", "readings", "2024-01-10", "csv"))
	assert.Equal(t, "usage-2024-01-10.pdf", Filename("", "usage", "2024-01-10", "pdf"))
}

func TestRenderUsagePDF(t *testing.T) {
	days := 12.5
	m := usagedomain.Metrics{
		Limits: usagedomain.Limits{PerMeter: 200, Total: 600, WindowDays: 32},
		TrackingPeriod: usagedomain.TrackingPeriod{
			BaseDate: "2024-01-01", EndDate: "2024-02-01", CurrentDate: "2024-01-10",
			DaysElapsed: 10, DaysRemaining: 22, TotalDays: 32,
			CycleStart: "2024-01-01", CycleEnd: "2024-01-31", MonthCycle: 1,
		},
		TotalConsumed:  usagedomain.PerMeter[int64]{Meter1: 50, Meter2: 70, Meter3: 30, Total: 150},
		DaysUntilLimit: usagedomain.PerMeter[*float64]{Meter1: &days},
		AlertLevels: usagedomain.PerMeter[quotadomain.Level]{
			Meter1: quotadomain.LevelNominal, Meter2: quotadomain.LevelNominal,
			Meter3: quotadomain.LevelNominal, Total: quotadomain.LevelNominal,
		},
		DailyUsage: []usagedomain.DailyUsage{
			{Date: "2024-01-10", Meter1: 50, Meter2: 70, Meter3: 30, Total: 150},
		},
		PeakUsageDay: &usagedomain.DailyUsage{Date: "2024-01-10", Total: 150},
	}

	out, err := RenderUsagePDF("Home", m, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

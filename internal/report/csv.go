package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/railzwaylabs/metertrack/internal/calendar"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
)

var csvHeader = []string{
	"reading_date",
	"meter1_current",
	"meter2_current",
	"meter3_current",
	"meter1_consumption",
	"meter2_consumption",
	"meter3_consumption",
	"invalid",
	"timestamp",
}

// WriteReadingsCSV writes one row per reading in the given order.
func WriteReadingsCSV(w io.Writer, readings []readingdomain.MeterReading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range readings {
		current, consumption := r.Current(), r.Consumption()
		record := []string{
			calendar.Format(r.Date()),
			strconv.FormatInt(current[0], 10),
			strconv.FormatInt(current[1], 10),
			strconv.FormatInt(current[2], 10),
			strconv.FormatInt(consumption[0], 10),
			strconv.FormatInt(consumption[1], 10),
			strconv.FormatInt(consumption[2], 10),
			strconv.FormatBool(r.Invalid()),
			r.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

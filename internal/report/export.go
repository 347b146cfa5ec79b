package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/railzwaylabs/metertrack/internal/apperr"
	"github.com/railzwaylabs/metertrack/internal/calendar"
	readingdomain "github.com/railzwaylabs/metertrack/internal/reading/domain"
)

// Format is the output format of a readings export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = apperr.Validation("format", "unsupported_format", "export format must be csv or json")

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", ErrUnsupportedFormat
}

func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// Export is a rendered readings export. Checksum is the hex SHA-256 of Data.
type Export struct {
	Data     []byte
	Checksum string
	Format   Format
	Count    int
}

type exportRecord struct {
	ReadingDate       string `json:"reading_date"`
	Meter1Current     int64  `json:"meter1_current"`
	Meter2Current     int64  `json:"meter2_current"`
	Meter3Current     int64  `json:"meter3_current"`
	Meter1Consumption int64  `json:"meter1_consumption"`
	Meter2Consumption int64  `json:"meter2_consumption"`
	Meter3Consumption int64  `json:"meter3_consumption"`
	Invalid           bool   `json:"invalid"`
	Timestamp         string `json:"timestamp"`
}

func ExportReadings(readings []readingdomain.MeterReading, format Format) (*Export, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		err = WriteReadingsCSV(&buf, readings)
		data = buf.Bytes()
	case FormatJSON:
		data, err = formatJSON(readings)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return &Export{
		Data:     data,
		Checksum: checksum(data),
		Format:   format,
		Count:    len(readings),
	}, nil
}

func formatJSON(readings []readingdomain.MeterReading) ([]byte, error) {
	records := make([]exportRecord, 0, len(readings))
	for _, r := range readings {
		records = append(records, exportRecord{
			ReadingDate:       calendar.Format(r.Date()),
			Meter1Current:     r.Meter1Current,
			Meter2Current:     r.Meter2Current,
			Meter3Current:     r.Meter3Current,
			Meter1Consumption: r.Meter1Consumption,
			Meter2Consumption: r.Meter2Consumption,
			Meter3Consumption: r.Meter3Consumption,
			Invalid:           r.Invalid(),
			Timestamp:         r.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

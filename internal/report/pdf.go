// Package report renders exports of readings and usage metrics.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	usagedomain "github.com/railzwaylabs/metertrack/internal/usage/domain"
)

// Filename builds a download name such as "home-usage-2024-01-10.pdf".
func Filename(site, kind, date, ext string) string {
	name := slug.Make(strings.Join([]string{site, kind, date}, " "))
	if name == "" {
		name = kind
	}
	return name + "." + ext
}

var (
	titleStyle  = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Center}
	headerStyle = props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Center, Top: 1}
	cellStyle   = props.Text{Size: 9, Align: align.Center, Top: 1}
	labelStyle  = props.Text{Size: 9, Style: fontstyle.Bold, Top: 1}
	noteStyle   = props.Text{Size: 8, Style: fontstyle.Italic, Top: 1}
)

// RenderUsagePDF renders a one-page usage summary.
func RenderUsagePDF(site string, m usagedomain.Metrics, generatedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithTopMargin(15).
		WithLeftMargin(12).
		WithRightMargin(12).
		Build()
	doc := maroto.New(cfg)

	tp := m.TrackingPeriod
	doc.AddRow(12, text.NewCol(12, fmt.Sprintf("%s electricity usage", site), titleStyle))
	doc.AddRows(
		kv("Tracking window", fmt.Sprintf("%s to %s (%d days)", tp.BaseDate, tp.EndDate, tp.TotalDays)),
		kv("Current date", tp.CurrentDate),
		kv("Days elapsed / remaining", fmt.Sprintf("%d / %d", tp.DaysElapsed, tp.DaysRemaining)),
		kv("Monthly cycle", fmt.Sprintf("#%d, %s to %s", tp.MonthCycle, tp.CycleStart, tp.CycleEnd)),
		kv("Limits", fmt.Sprintf("%d per meter, %d total", m.Limits.PerMeter, m.Limits.Total)),
	)

	doc.AddRow(6)
	doc.AddRows(tableRow(headerStyle, "", "Meter 1", "Meter 2", "Meter 3", "Total"))
	doc.AddRows(
		intRow("Consumed", m.TotalConsumed),
		intRow("Remaining", m.Remaining),
		floatRow("Usage %", m.UsagePercentage),
		floatRow("Daily avg used", m.DailyAvgUsed),
		floatRow("Daily avg remaining", m.DailyAvgRemaining),
		floatRow("Projection", m.MonthlyProjection),
		optionalRow("Days until limit", m.DaysUntilLimit),
		floatRow("Efficiency", m.EfficiencyScore),
		levelRow("Alert", m.AlertLevels),
	)

	if m.PeakUsageDay != nil {
		doc.AddRow(6)
		doc.AddRows(kv("Peak usage day", fmt.Sprintf("%s (%d units)", m.PeakUsageDay.Date, m.PeakUsageDay.Total)))
	}

	if len(m.DailyUsage) > 0 {
		doc.AddRow(6)
		doc.AddRows(tableRow(headerStyle, "Date", "Meter 1", "Meter 2", "Meter 3", "Total"))
		for _, d := range m.DailyUsage {
			doc.AddRows(tableRow(cellStyle, d.Date,
				strconv.FormatInt(d.Meter1, 10),
				strconv.FormatInt(d.Meter2, 10),
				strconv.FormatInt(d.Meter3, 10),
				strconv.FormatInt(d.Total, 10),
			))
		}
	}

	doc.AddRow(8, text.NewCol(12, "Generated "+generatedAt.UTC().Format(time.RFC3339), noteStyle))

	out, err := doc.Generate()
	if err != nil {
		return nil, fmt.Errorf("render usage pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func kv(label, value string) core.Row {
	return row.New(6).Add(
		text.NewCol(4, label, labelStyle),
		text.NewCol(8, value, props.Text{Size: 9, Top: 1}),
	)
}

func tableRow(style props.Text, label string, values ...string) core.Row {
	cols := []core.Col{text.NewCol(4, label, labelStyle)}
	for _, v := range values {
		cols = append(cols, text.NewCol(2, v, style))
	}
	return row.New(6).Add(cols...)
}

func intRow(label string, v usagedomain.PerMeter[int64]) core.Row {
	f := func(n int64) string { return strconv.FormatInt(n, 10) }
	return tableRow(cellStyle, label, f(v.Meter1), f(v.Meter2), f(v.Meter3), f(v.Total))
}

func floatRow(label string, v usagedomain.PerMeter[float64]) core.Row {
	f := func(n float64) string { return strconv.FormatFloat(n, 'f', -1, 64) }
	return tableRow(cellStyle, label, f(v.Meter1), f(v.Meter2), f(v.Meter3), f(v.Total))
}

func optionalRow(label string, v usagedomain.PerMeter[*float64]) core.Row {
	f := func(n *float64) string {
		if n == nil {
			return "never"
		}
		return strconv.FormatFloat(*n, 'f', -1, 64)
	}
	return tableRow(cellStyle, label, f(v.Meter1), f(v.Meter2), f(v.Meter3), f(v.Total))
}

func levelRow[T ~string](label string, v usagedomain.PerMeter[T]) core.Row {
	return tableRow(cellStyle, label, string(v.Meter1), string(v.Meter2), string(v.Meter3), string(v.Total))
}

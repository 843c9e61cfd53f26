// Package respond turns a unified lookup result into the reply payload.
// Everything here is pure formatting.
package respond

import (
	"fmt"
	"strings"

	"github.com/marketbrief/marketbrief/models"
)

const (
	// maxSummaryLen is the transport's field length limit for the summary.
	maxSummaryLen = 1024

	summaryUnavailable = "News summary unavailable right now."
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Assemble builds the outgoing reply for a successful lookup.
func Assemble(res *models.UnifiedResult) models.Reply {
	title := res.Symbol
	if res.Profile.Name != "" {
		title = fmt.Sprintf("%s — %s", res.Profile.Name, res.Symbol)
	}

	arrow := "▪"
	switch {
	case res.Quote.ChangePercent > 0:
		arrow = "▲"
	case res.Quote.ChangePercent < 0:
		arrow = "▼"
	}

	currency := res.Profile.Currency
	if currency == "" {
		currency = res.Quote.Currency
	}

	fields := []models.EmbedField{
		{
			Name:  "Price",
			Value: fmt.Sprintf("%.2f %s", res.Quote.Price, currency),
		},
		{
			Name:  "Change",
			Value: fmt.Sprintf("%s %+.2f (%+.2f%%)", arrow, res.Quote.Change, res.Quote.ChangePercent),
		},
	}

	if chart := Chart(res.Series); chart != "" {
		fields = append(fields, models.EmbedField{Name: "Trend", Value: chart})
	}

	fields = append(fields, models.EmbedField{Name: "Latest news", Value: summaryField(res.Summary)})

	footer := res.Profile.Exchange
	if footer == "" {
		footer = res.Quote.Exchange
	}

	return models.Reply{
		Embed: &models.Embed{
			Title:    title,
			ColorTag: colorTag(res.Quote.ChangePercent),
			Fields:   fields,
			Footer:   footer,
		},
	}
}

// colorTag picks the visual accent strictly from the sign of the change
// percent. Zero is neutral.
func colorTag(changePercent float64) string {
	switch {
	case changePercent > 0:
		return "positive"
	case changePercent < 0:
		return "negative"
	default:
		return "neutral"
	}
}

// Chart renders the closing-price series as a block sparkline with its
// range underneath. A flat or single-point series renders at full height
// rather than as a baseline.
func Chart(series []models.PricePoint) string {
	if len(series) == 0 {
		return ""
	}

	min, max := series[0].Close, series[0].Close
	for _, p := range series[1:] {
		if p.Close < min {
			min = p.Close
		}
		if p.Close > max {
			max = p.Close
		}
	}

	var sb strings.Builder
	top := len(sparkBlocks) - 1
	for _, p := range series {
		level := top
		if max > min {
			level = int((p.Close - min) / (max - min) * float64(top))
		}
		sb.WriteRune(sparkBlocks[level])
	}

	sb.WriteString(fmt.Sprintf("\nH %.2f · L %.2f", max, min))
	return sb.String()
}

func summaryField(summary string) string {
	if summary == "" {
		return summaryUnavailable
	}
	runes := []rune(summary)
	if len(runes) <= maxSummaryLen {
		return summary
	}
	return string(runes[:maxSummaryLen-1]) + "…"
}

// Package report turns aggregate stats into presentation artifacts: display
// strings for humans and the downloadable PDF document.
package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/manojkp08/adpulse/internal/models"
)

// Field is one labeled display value, ordered for rendering.
type Field struct {
	Label string
	Value string
}

// Fields formats stats for display in the given locale: currency amounts as
// $1,234.56, CTR as a percentage, counts with grouping separators. The core
// keeps raw numerics; this adapter is the only place display rules live, so
// a different locale or unit style swaps in without touching aggregation.
func Fields(stats *models.AggregateStats, tag language.Tag) []Field {
	p := message.NewPrinter(tag)
	return []Field{
		{Label: "Total Spend", Value: p.Sprintf("$%.2f", stats.TotalSpend)},
		{Label: "Total Impressions", Value: p.Sprintf("%d", stats.TotalImpressions)},
		{Label: "Total Clicks", Value: p.Sprintf("%d", stats.TotalClicks)},
		{Label: "Total Conversions", Value: p.Sprintf("%d", stats.TotalConversions)},
		{Label: "Global CTR", Value: p.Sprintf("%.2f%%", stats.GlobalCTR)},
		{Label: "Avg CPA", Value: p.Sprintf("$%.2f", stats.AvgCPA)},
		{Label: "Avg CPC", Value: p.Sprintf("$%.2f", stats.AvgCPC)},
		{Label: "Top Campaign", Value: stats.TopCampaign},
		{Label: "Best Platform", Value: stats.BestPlatform},
	}
}

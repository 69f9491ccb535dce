// Package analytics holds the deterministic core of the service: column
// sums, derived KPIs, and winner selection over one uploaded table.
package analytics

import "github.com/manojkp08/adpulse/internal/models"

// Analyze computes aggregate totals, derived KPIs, and the two winners for
// one table. It is a pure function of its input: no field of the table is
// mutated and no state survives the call. Division by zero substitutes zero
// for the affected KPI instead of propagating Inf/NaN.
func Analyze(t *models.Table) (*models.AggregateStats, error) {
	if t == nil || len(t.Records) == 0 {
		// Winners are part of the stats contract, so an empty table cannot
		// produce a result even though its sums would all be zero.
		return nil, ErrEmptyTable
	}

	var (
		spend       float64
		clicks      int
		conversions int
		impressions int
	)
	for _, r := range t.Records {
		spend += r.Spend
		clicks += r.Clicks
		conversions += r.Conversions
		impressions += r.Impressions
	}

	stats := &models.AggregateStats{
		TotalSpend:       spend,
		TotalClicks:      clicks,
		TotalConversions: conversions,
		TotalImpressions: impressions,
		GlobalCTR:        safeDiv(float64(clicks)*100, float64(impressions)),
		AvgCPA:           safeDiv(spend, float64(conversions)),
		AvgCPC:           safeDiv(spend, float64(clicks)),
	}
	stats.TopCampaign, stats.BestPlatform = selectWinners(t.Records)
	return stats, nil
}

// selectWinners ranks rows by raw conversions (top campaign) and by
// conversions-per-unit-spend (best platform). Efficiency lives in a local
// slice parallel to the input, so caller-owned records stay untouched.
// Both scans use strict greater-than seeded from row 0: ties resolve to the
// earliest row in input order, and zero-spend rows (efficiency 0) can only
// win when every row has zero spend.
func selectWinners(recs []models.CampaignRecord) (topCampaign, bestPlatform string) {
	efficiency := make([]float64, len(recs))
	for i, r := range recs {
		efficiency[i] = safeDiv(float64(r.Conversions), r.Spend)
	}

	topIdx, bestIdx := 0, 0
	for i := 1; i < len(recs); i++ {
		if recs[i].Conversions > recs[topIdx].Conversions {
			topIdx = i
		}
		if efficiency[i] > efficiency[bestIdx] {
			bestIdx = i
		}
	}
	return recs[topIdx].CampaignName, recs[bestIdx].Platform
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

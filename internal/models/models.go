package models

import "time"

// CampaignRecord is one row of an uploaded performance table. Numeric
// fields are clamped to zero at ingest; extra CSV columns never reach here.
type CampaignRecord struct {
	CampaignName string
	Platform     string
	Impressions  int
	Clicks       int
	Spend        float64
	Conversions  int
}

// Table is an ordered sequence of records decoded from one upload.
// Row order matters only for tie-breaking during winner selection.
type Table struct {
	Records []CampaignRecord
}

// AggregateStats is the numeric output of one analysis run. All fields are
// derived once and never mutated; formatting (currency symbols, percent
// signs, separators) happens downstream in the report package.
type AggregateStats struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalClicks      int     `json:"total_clicks"`
	TotalConversions int     `json:"total_conversions"`
	TotalImpressions int     `json:"total_impressions"`
	GlobalCTR        float64 `json:"global_ctr"`
	AvgCPA           float64 `json:"avg_cpa"`
	AvgCPC           float64 `json:"avg_cpc"`
	TopCampaign      string  `json:"top_campaign"`
	BestPlatform     string  `json:"best_platform"`
}

// RunResult is what the pipeline hands back for one upload. NarrativeError
// carries the degradation reason when the narrative service was unreachable;
// stats are always present when the run succeeded.
type RunResult struct {
	RunID          string          `json:"run_id"`
	Stats          *AggregateStats `json:"stats"`
	Narrative      string          `json:"narrative,omitempty"`
	NarrativeError string          `json:"narrative_error,omitempty"`
}

// RunSummary is the retained record of a completed run. It keeps derived
// stats only; uploaded rows are discarded once the response is written.
type RunSummary struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	Rows         int            `json:"rows"`
	Stats        AggregateStats `json:"stats"`
	HasNarrative bool           `json:"has_narrative"`
}

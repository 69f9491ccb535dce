// Package pipeline orchestrates one request-scoped run: analyze the table,
// ask the narrative collaborator best-effort, record the summary.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/manojkp08/adpulse/internal/analytics"
	"github.com/manojkp08/adpulse/internal/metrics"
	"github.com/manojkp08/adpulse/internal/models"
	"github.com/manojkp08/adpulse/internal/narrative"
	"github.com/manojkp08/adpulse/internal/store"
)

// Pipeline holds the collaborators for a run. It carries no per-run state;
// concurrent Run calls over distinct tables need no coordination.
type Pipeline struct {
	gen narrative.Generator
	st  *store.RunStore
	met *metrics.Metrics
	log *slog.Logger
}

func New(gen narrative.Generator, st *store.RunStore, met *metrics.Metrics, log *slog.Logger) *Pipeline {
	return &Pipeline{gen: gen, st: st, met: met, log: log}
}

// Run executes the full pipeline. Analysis errors abort the run; narrative
// errors degrade it — the numeric stats are always delivered once analysis
// succeeded, with the degradation reason attached to the result.
func (p *Pipeline) Run(ctx context.Context, tbl *models.Table) (*models.RunResult, error) {
	res, err := p.analyze(tbl)
	if err != nil {
		return nil, err
	}

	if p.gen != nil {
		text, genErr := p.gen.Generate(ctx, res.Stats)
		if genErr != nil {
			p.met.NarrativeFailures.Inc()
			p.log.Warn("narrative degraded",
				slog.String("run_id", res.RunID),
				slog.String("err", genErr.Error()))
			res.NarrativeError = genErr.Error()
		} else {
			res.Narrative = text
		}
	}

	p.record(res, len(tbl.Records))
	return res, nil
}

// Analyze executes the numeric pipeline only, skipping the narrative
// collaborator entirely.
func (p *Pipeline) Analyze(ctx context.Context, tbl *models.Table) (*models.RunResult, error) {
	res, err := p.analyze(tbl)
	if err != nil {
		return nil, err
	}
	p.record(res, len(tbl.Records))
	return res, nil
}

func (p *Pipeline) analyze(tbl *models.Table) (*models.RunResult, error) {
	start := time.Now()
	stats, err := analytics.Analyze(tbl)
	if err != nil {
		return nil, err
	}
	p.met.ObserveAnalyze(time.Since(start))
	return &models.RunResult{RunID: newRunID(), Stats: stats}, nil
}

func (p *Pipeline) record(res *models.RunResult, rows int) {
	p.met.ReportsGenerated.Inc()
	p.st.Save(models.RunSummary{
		ID:           res.RunID,
		CreatedAt:    time.Now().UTC(),
		Rows:         rows,
		Stats:        *res.Stats,
		HasNarrative: res.Narrative != "",
	})
	p.log.Info("run complete",
		slog.String("run_id", res.RunID),
		slog.Int("rows", rows),
		slog.Bool("narrative", res.Narrative != ""))
}

func newRunID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

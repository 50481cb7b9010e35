package service

import (
	"context"

	"github.com/masteryoda101/fake-star-check/internal/platform/logger"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/repo"

	"github.com/rs/zerolog"
)

// Console logs one structured line per verdict. Suspicious verdicts are
// warnings; every line carries an outcome field
type Console struct{ log logger.Logger }

// NewConsole writes through l
func NewConsole(l logger.Logger) *Console { return &Console{log: l} }

// Name implements domain.Writer
func (*Console) Name() string { return "console" }

// WriteVerdict implements domain.Writer
func (c *Console) WriteVerdict(_ context.Context, v analyze.Verdict) error {
	var ev *zerolog.Event
	if v.IsSuspicious || v.Status == analyze.StatusInconclusive {
		ev = c.log.Warn()
	} else {
		ev = c.log.Info()
	}
	ev = ev.
		Str("repo", v.Repository.String()).
		Str("outcome", v.Outcome()).
		Str("run_id", v.RunID.String()).
		Int("stargazers", v.TotalStargazers).
		Int("profile_failures", v.ProfileFailures)

	switch v.Status {
	case analyze.StatusAnalyzed:
		ev = ev.
			Int("max_burst", v.MaxBurstCount).
			Float64("burst_ratio", v.BurstRatio).
			Bool("burst_suspicious", v.BurstSuspicious).
			Bool("cohort_skipped", v.CohortSkipped).
			Float64("cohort_pct", v.CohortSuspectPercentage).
			Bool("cohort_suspicious", v.CohortSuspicious).
			Int("common_repos", len(v.CommonlyStarredRepos))
	default:
		ev = ev.Str("reason", v.Reason)
	}
	ev.Msg("verdict")
	return nil
}

// WriteHealth implements domain.Writer
func (c *Console) WriteHealth(_ context.Context, h domain.Health) error {
	c.log.Debug().
		Int("queue_depth", h.QueueDepth).
		Int("capacity", h.Capacity).
		Int("pending", h.Pending).
		Int("active_workers", h.ActiveWorkers).
		Msg("pipeline health")
	return nil
}

// StoreWriter upserts verdicts into a latest-verdict store
type StoreWriter struct {
	name string
	s    repo.Storage
}

// NewStoreWriter names the writer for metrics
func NewStoreWriter(name string, s repo.Storage) *StoreWriter {
	return &StoreWriter{name: name, s: s}
}

// Name implements domain.Writer
func (w *StoreWriter) Name() string { return w.name }

// WriteVerdict implements domain.Writer
func (w *StoreWriter) WriteVerdict(ctx context.Context, v analyze.Verdict) error {
	return w.s.Upsert(ctx, v)
}

// WriteHealth implements domain.Writer; health is not stored here
func (*StoreWriter) WriteHealth(context.Context, domain.Health) error { return nil }

// AnalyticsWriter appends to ClickHouse
type AnalyticsWriter struct{ a *repo.Analytics }

// NewAnalyticsWriter wraps a
func NewAnalyticsWriter(a *repo.Analytics) *AnalyticsWriter { return &AnalyticsWriter{a: a} }

// Name implements domain.Writer
func (*AnalyticsWriter) Name() string { return "clickhouse" }

// WriteVerdict implements domain.Writer
func (w *AnalyticsWriter) WriteVerdict(ctx context.Context, v analyze.Verdict) error {
	return w.a.AppendVerdicts(ctx, v)
}

// WriteHealth implements domain.Writer
func (w *AnalyticsWriter) WriteHealth(ctx context.Context, h domain.Health) error {
	return w.a.AppendHealth(ctx, h)
}

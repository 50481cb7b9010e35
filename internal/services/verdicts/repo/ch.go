package repo

import (
	"context"
	"fmt"

	"github.com/masteryoda101/fake-star-check/internal/platform/store"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
)

// ClickHouse tables
const (
	TableVerdicts = "starcheck_verdicts"
	TableHealth   = "starcheck_health"
)

var schemaCH = []string{
	`CREATE TABLE IF NOT EXISTS ` + TableVerdicts + ` (
		analyzed_at        DateTime64(3, 'UTC'),
		run_id             UUID,
		repository         String,
		status             LowCardinality(String),
		outcome            LowCardinality(String),
		is_suspicious      Bool,
		total_stargazers   UInt32,
		max_burst_count    UInt32,
		burst_ratio        Float64,
		burst_suspicious   Bool,
		cohort_suspects    UInt32,
		cohort_pct         Float64,
		cohort_suspicious  Bool,
		profile_failures   UInt32,
		common_repos       UInt32,
		reason             String
	) ENGINE = MergeTree ORDER BY (repository, analyzed_at)`,
	`CREATE TABLE IF NOT EXISTS ` + TableHealth + ` (
		at             DateTime64(3, 'UTC'),
		queue_depth    UInt32,
		pending        UInt32,
		active_workers UInt32,
		capacity       UInt32
	) ENGINE = MergeTree ORDER BY at`,
}

// Analytics appends verdict and health rows to ClickHouse
type Analytics struct{ ch store.Clickhouse }

// NewAnalytics wraps the ClickHouse seam
func NewAnalytics(ch store.Clickhouse) *Analytics { return &Analytics{ch: ch} }

// EnsureSchema creates both tables
func (a *Analytics) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schemaCH {
		if err := a.ch.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return nil
}

// AppendVerdicts inserts one row per verdict
func (a *Analytics) AppendVerdicts(ctx context.Context, vs ...analyze.Verdict) error {
	rows := make([][]any, 0, len(vs))
	for _, v := range vs {
		rows = append(rows, VerdictRow(v))
	}
	return a.ch.Insert(ctx, TableVerdicts, rows)
}

// AppendHealth inserts one row per sample
func (a *Analytics) AppendHealth(ctx context.Context, hs ...domain.Health) error {
	rows := make([][]any, 0, len(hs))
	for _, h := range hs {
		rows = append(rows, []any{
			h.At.UTC(), u32(h.QueueDepth), u32(h.Pending), u32(h.ActiveWorkers), u32(h.Capacity),
		})
	}
	return a.ch.Insert(ctx, TableHealth, rows)
}

// VerdictRow is the column list in table order
func VerdictRow(v analyze.Verdict) []any {
	return []any{
		v.AnalyzedAt.UTC(),
		v.RunID,
		v.Repository.String(),
		string(v.Status),
		v.Outcome(),
		v.IsSuspicious,
		u32(v.TotalStargazers),
		u32(v.MaxBurstCount),
		v.BurstRatio,
		v.BurstSuspicious,
		u32(v.CohortSuspects),
		v.CohortSuspectPercentage,
		v.CohortSuspicious,
		u32(v.ProfileFailures),
		u32(len(v.CommonlyStarredRepos)),
		v.Reason,
	}
}

func u32(n int) uint32 {
	if n < 0 {
		return 0
	}
	return uint32(n)
}

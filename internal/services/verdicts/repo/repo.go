// Package repo persists verdicts: latest-per-repository in Postgres,
// append-only analytics in ClickHouse, and a bounded in-memory fallback
package repo

import (
	"context"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/modkit/repokit"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/store"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"

	json "github.com/goccy/go-json"
)

// DefaultListLimit applies when a filter asks for zero rows
const DefaultListLimit = 50

// MaxListLimit caps List
const MaxListLimit = 500

// Storage is the latest-verdict store
type Storage interface {
	Upsert(ctx context.Context, v analyze.Verdict) error
	Get(ctx context.Context, ref repo.Ref) (analyze.Verdict, error)
	List(ctx context.Context, f domain.Filter) ([]analyze.Verdict, error)
}

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs the Postgres binder
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

const schemaPG = `
CREATE TABLE IF NOT EXISTS verdicts (
	repo_key         text PRIMARY KEY,
	repository       text NOT NULL,
	run_id           uuid NOT NULL,
	status           text NOT NULL,
	outcome          text NOT NULL,
	is_suspicious    boolean NOT NULL,
	total_stargazers integer NOT NULL,
	burst_ratio      double precision NOT NULL,
	cohort_pct       double precision NOT NULL,
	analyzed_at      timestamptz NOT NULL,
	evidence         jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS verdicts_recent_idx ON verdicts (is_suspicious, analyzed_at DESC);
`

// EnsureSchemaPG creates the verdicts table
func EnsureSchemaPG(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, schemaPG); err != nil {
		return perr.FromPostgres(err, "create verdicts schema")
	}
	return nil
}

// Upsert implements Storage. An older verdict never replaces a newer one
func (s *pg) Upsert(ctx context.Context, v analyze.Verdict) error {
	evidence, err := json.Marshal(v)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode verdict evidence")
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO verdicts
			(repo_key, repository, run_id, status, outcome, is_suspicious,
			 total_stargazers, burst_ratio, cohort_pct, analyzed_at, evidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (repo_key) DO UPDATE SET
			repository = EXCLUDED.repository,
			run_id = EXCLUDED.run_id,
			status = EXCLUDED.status,
			outcome = EXCLUDED.outcome,
			is_suspicious = EXCLUDED.is_suspicious,
			total_stargazers = EXCLUDED.total_stargazers,
			burst_ratio = EXCLUDED.burst_ratio,
			cohort_pct = EXCLUDED.cohort_pct,
			analyzed_at = EXCLUDED.analyzed_at,
			evidence = EXCLUDED.evidence
		WHERE verdicts.analyzed_at <= EXCLUDED.analyzed_at`,
		v.Repository.Key(), v.Repository.String(), v.RunID.String(), string(v.Status), v.Outcome(),
		v.IsSuspicious, v.TotalStargazers, v.BurstRatio, v.CohortSuspectPercentage,
		v.AnalyzedAt, evidence,
	)
	if err != nil {
		return perr.FromPostgres(err, "upsert verdict")
	}
	return nil
}

// Get implements Storage
func (s *pg) Get(ctx context.Context, ref repo.Ref) (analyze.Verdict, error) {
	var evidence []byte
	err := s.q.QueryRow(ctx, `SELECT evidence FROM verdicts WHERE repo_key = $1`, ref.Key()).Scan(&evidence)
	if store.IsNoRows(err) {
		return analyze.Verdict{}, perr.NotFoundf("no verdict for %s", ref)
	}
	if err != nil {
		return analyze.Verdict{}, perr.FromPostgres(err, "get verdict")
	}
	return decode(evidence)
}

// List implements Storage, newest first
func (s *pg) List(ctx context.Context, f domain.Filter) ([]analyze.Verdict, error) {
	sql := `SELECT evidence FROM verdicts ORDER BY analyzed_at DESC LIMIT $1`
	if f.SuspiciousOnly {
		sql = `SELECT evidence FROM verdicts WHERE is_suspicious ORDER BY analyzed_at DESC LIMIT $1`
	}
	rows, err := s.q.Query(ctx, sql, clampLimit(f.Limit))
	if err != nil {
		return nil, perr.FromPostgres(err, "list verdicts")
	}
	defer rows.Close()

	var out []analyze.Verdict
	for rows.Next() {
		var evidence []byte
		if err := rows.Scan(&evidence); err != nil {
			return nil, perr.FromPostgres(err, "scan verdict")
		}
		v, err := decode(evidence)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPostgres(err, "list verdicts")
	}
	return out, nil
}

func decode(evidence []byte) (analyze.Verdict, error) {
	var v analyze.Verdict
	if err := json.Unmarshal(evidence, &v); err != nil {
		return analyze.Verdict{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode verdict evidence")
	}
	return v, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	}
	return n
}

package repo

import (
	"context"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/modkit/repokit"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/store"
)

type (
	// PG is the Postgres claim store binder; rows are shared by every daemon
	// pointed at the same database
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres claim repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// EnsureSchema creates the claims table
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS dedup_claims (
			key        text        PRIMARY KEY,
			claimed_at timestamptz NOT NULL DEFAULT now(),
			expires_at timestamptz NOT NULL
		)
	`
	if _, err := q.Exec(ctx, ddl); err != nil {
		return perr.FromPostgres(err, "create dedup_claims")
	}
	return nil
}

// Claim implements Repo with one statement: insert, or take over an expired
// row. A returned row means this caller won
func (r *queries) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	const sql = `
		INSERT INTO dedup_claims (key, claimed_at, expires_at)
		VALUES ($1, now(), now() + make_interval(secs => $2))
		ON CONFLICT (key) DO UPDATE
		SET claimed_at = EXCLUDED.claimed_at, expires_at = EXCLUDED.expires_at
		WHERE dedup_claims.expires_at <= now()
		RETURNING key
	`
	var got string
	err := r.q.QueryRow(ctx, sql, key, ttl.Seconds()).Scan(&got)
	if store.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, perr.FromPostgres(err, "claim "+key)
	}
	return true, nil
}

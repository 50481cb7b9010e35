// Package repokit has the aliases and helpers repository packages share
package repokit

import (
	"context"

	"github.com/masteryoda101/fake-star-check/internal/platform/store"
)

type (
	// Queryer is the SQL surface a bound repository talks to
	Queryer = store.RowQuerier

	// TxRunner adds transactions
	TxRunner = store.TxRunner

	// Rows is a result set
	Rows = store.Rows

	// Row is a single row
	Row = store.Row

	// CommandTag is an Exec result
	CommandTag = store.CommandTag
)

// WithTx runs fn in a transaction on tx
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}

// Package repo holds the claim stores behind the idempotency cache
package repo

import (
	"context"
	"time"
)

// Repo is one claim store. Claim sets key with ttl when it is absent or
// expired and reports whether it did
type Repo interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

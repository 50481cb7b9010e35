package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/platform/logger"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
)

// Badger is an embedded, restart-surviving claim store. Each claim is one
// Update transaction; a concurrent writer on the same key makes the commit
// fail with ErrConflict, which counts as not claimed
type Badger struct {
	db  *badger.DB
	now func() time.Time
}

type badgerClaim struct {
	ClaimedAt time.Time `json:"claimed_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OpenBadger opens (or creates) the store at dir; empty dir means in-memory
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log: *logger.Named("dedup.badger")})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return &Badger{db: db, now: time.Now}, nil
}

// Claim implements Repo. The stored expiry is checked as well as badger's own
// TTL, which has second resolution and is applied lazily
func (b *Badger) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	k := []byte(key)
	claimed := false
	err := b.db.Update(func(txn *badger.Txn) error {
		now := b.now()
		item, err := txn.Get(k)
		switch {
		case err == nil:
			var prev badgerClaim
			if verr := item.Value(func(val []byte) error { return json.Unmarshal(val, &prev) }); verr == nil && now.Before(prev.ExpiresAt) {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		data, err := json.Marshal(badgerClaim{ClaimedAt: now.UTC(), ExpiresAt: now.Add(ttl).UTC()})
		if err != nil {
			return err
		}
		if err := txn.SetEntry(badger.NewEntry(k, data).WithTTL(ttl)); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// Close flushes and closes the database
func (b *Badger) Close() error { return b.db.Close() }

// badgerLogger routes badger's logging into zerolog
type badgerLogger struct{ log logger.Logger }

func (l badgerLogger) Errorf(f string, a ...any)   { l.log.Error().Msgf(f, a...) }
func (l badgerLogger) Warningf(f string, a ...any) { l.log.Warn().Msgf(f, a...) }
func (l badgerLogger) Infof(f string, a ...any)    { l.log.Debug().Msgf(f, a...) }
func (l badgerLogger) Debugf(f string, a ...any)   { l.log.Trace().Msgf(f, a...) }

// Package service implements the idempotency cache over a claim store
package service

import (
	"context"
	"strings"
	"time"

	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/repo"

	"golang.org/x/text/cases"
)

// Svc implements domain.ClaimerPort
type Svc struct {
	repo    repo.Repo
	backend string
	log     logger.Logger
	fold    cases.Caser
}

// New wraps r; backend names the store in logs
func New(r repo.Repo, backend string) *Svc {
	return &Svc{
		repo:    r,
		backend: backend,
		log:     *logger.Named("dedup"),
		fold:    cases.Fold(),
	}
}

var _ domain.ClaimerPort = (*Svc)(nil)

// Normalize trims and case-folds an identifier
func (s *Svc) Normalize(identifier string) string {
	return s.fold.String(strings.TrimSpace(identifier))
}

// TryClaim implements domain.ClaimerPort
func (s *Svc) TryClaim(ctx context.Context, ns domain.Namespace, identifier string, ttl time.Duration) (bool, error) {
	if !ns.Valid() {
		return false, perr.InvalidArgf("unknown dedup namespace %q", ns)
	}
	id := s.Normalize(identifier)
	if id == "" {
		return false, perr.InvalidArgf("empty dedup identifier")
	}
	if ttl <= 0 {
		ttl = domain.DefaultTTL
	}

	ok, err := s.repo.Claim(ctx, domain.Key(ns, id), ttl)
	if err != nil {
		metrics.DedupClaims.WithLabelValues(string(ns), "error").Inc()
		s.log.Warn().Err(err).Str("backend", s.backend).Str("key", domain.Key(ns, id)).Msg("dedup claim failed")
		return false, perr.Wrapf(err, perr.ErrorCodeCacheUnavailable, "dedup %s claim", s.backend)
	}
	if ok {
		metrics.DedupClaims.WithLabelValues(string(ns), "claimed").Inc()
	} else {
		metrics.DedupClaims.WithLabelValues(string(ns), "duplicate").Inc()
	}
	return ok, nil
}

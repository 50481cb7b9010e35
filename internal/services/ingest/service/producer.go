package service

import (
	"context"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/adapters/registry"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"
	"github.com/masteryoda101/fake-star-check/internal/platform/net/http/bind"

	dedup "github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/ingest/domain"
)

// produce polls every source once immediately and then on each tick until
// ctx ends. Nothing is enqueued after cancellation
func (s *Svc) produce(ctx context.Context, queue chan<- item) {
	cursors := make(map[string]time.Time, len(s.d.Sources))
	start := s.now().UTC()
	for _, src := range s.d.Sources {
		cursors[src.Name()] = start
	}

	t := time.NewTicker(s.cfg.PollInterval)
	defer t.Stop()
	for {
		for _, src := range s.d.Sources {
			if ctx.Err() != nil {
				return
			}
			cursors[src.Name()] = s.pollOnce(ctx, src, cursors[src.Name()], queue)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// pollOnce reads one batch and returns the next cursor. A failed read keeps
// the old cursor so the next tick retries from the same point
func (s *Svc) pollOnce(ctx context.Context, src registry.Source, since time.Time, queue chan<- item) time.Time {
	rels, next, err := src.Poll(ctx, since)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Str("source", src.Name()).Time("since", since).Msg("registry poll failed")
		}
		return since
	}
	for _, rel := range rels {
		if !s.offer(ctx, rel, queue) {
			break
		}
	}
	if next.IsZero() {
		return since
	}
	return next
}

// offer validates, claims and enqueues one release. It returns false once
// ctx is done
func (s *Svc) offer(ctx context.Context, rel registry.Release, queue chan<- item) bool {
	id := rel.Identifier()
	s.transition(id, domain.StateObserved, "")

	if err := bind.Struct(rel); err != nil {
		field, msg := bind.ValidationFieldAndMessage(err)
		s.transition(id, domain.StateDropped, "malformed release: "+field+" "+msg)
		return true
	}

	claimed, err := s.d.Claimer.TryClaim(ctx, dedup.NamespacePackage, id, s.cfg.ClaimTTL)
	switch {
	case err != nil && ctx.Err() != nil:
		return false
	case err != nil:
		// fail open: a cache outage must not stop ingestion
		s.log.Warn().Err(err).Str("item", id).Bool("fail_open", true).Msg("package claim unavailable")
	case !claimed:
		s.transition(id, domain.StateDropped, "duplicate package")
		return true
	}
	s.transition(id, domain.StateClaimed, "")

	if ctx.Err() != nil {
		return false
	}
	s.pending.Add(1)
	metrics.Pending.Inc()
	select {
	case queue <- item{rel: rel, id: id}:
		metrics.QueueDepth.Set(float64(len(queue)))
		s.transition(id, domain.StateQueued, "")
		return true
	case <-ctx.Done():
		s.pending.Add(-1)
		metrics.Pending.Dec()
		s.transition(id, domain.StateDropped, "shutdown before enqueue")
		return false
	}
}

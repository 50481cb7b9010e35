package service

import (
	"context"
	"fmt"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	dedup "github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/ingest/domain"
)

// work ranges over the queue until it is closed and empty
func (s *Svc) work(ctx context.Context, n int, queue <-chan item) {
	log := s.log.With().Int("worker", n).Logger()
	log.Debug().Msg("worker started")
	for it := range queue {
		metrics.QueueDepth.Set(float64(len(queue)))
		s.process(ctx, it)
	}
	log.Debug().Msg("worker stopped")
}

// process handles one item. No error or panic leaves this function
func (s *Svc) process(ctx context.Context, it item) {
	s.active.Add(1)
	metrics.ActiveWorkers.Inc()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("item", it.id).Msg("worker recovered")
			s.transition(it.id, domain.StateFailed, fmt.Sprintf("panic: %v", r))
		}
		s.active.Add(-1)
		metrics.ActiveWorkers.Dec()
		s.pending.Add(-1)
		metrics.Pending.Dec()
	}()

	s.transition(it.id, domain.StateInProgress, "")

	ref, err := s.d.Resolver.Resolve(ctx, it.rel.Ecosystem, it.rel.Name)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeUnresolvable) {
			s.transition(it.id, domain.StateDropped, "unresolvable: "+err.Error())
			return
		}
		s.transition(it.id, domain.StateFailed, "resolve: "+err.Error())
		return
	}

	claimed, err := s.d.Claimer.TryClaim(ctx, dedup.NamespaceRepo, ref.Key(), s.cfg.ClaimTTL)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("repo", ref.String()).Bool("fail_open", true).Msg("repo claim unavailable")
	case !claimed:
		s.transition(it.id, domain.StateDropped, "repository analyzed recently: "+ref.String())
		return
	}

	v, err := s.d.Analyzer.Analyze(ctx, ref)
	s.d.Sink.Emit(v)
	if err != nil {
		s.transition(it.id, domain.StateFailed, "analyze "+ref.String()+": "+err.Error())
		return
	}
	s.transition(it.id, domain.StateCompleted, string(v.Status))
}

// AnalyzeNow implements domain.TriggerPort
func (s *Svc) AnalyzeNow(ctx context.Context, ref repo.Ref, force bool) (analyze.Verdict, error) {
	if ref.IsZero() {
		return analyze.Verdict{}, perr.InvalidArgf("repository is required")
	}
	if !force {
		claimed, err := s.d.Claimer.TryClaim(ctx, dedup.NamespaceRepo, ref.Key(), s.cfg.ClaimTTL)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("repo", ref.String()).Bool("fail_open", true).Msg("repo claim unavailable")
		case !claimed:
			return analyze.Verdict{}, perr.Newf(perr.ErrorCodeConflict, "%s was analyzed recently, use force to rerun", ref)
		}
	}
	v, err := s.d.Analyzer.Analyze(ctx, ref)
	s.d.Sink.Emit(v)
	return v, err
}

// Package service is the ingestion pipeline: one producer polling registry
// sources into a bounded queue, a fixed worker pool analyzing what it
// resolves, and a health sampler
package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/adapters/registry"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	dedup "github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/ingest/domain"
	verdicts "github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
)

// Config carries the pipeline knobs
type Config struct {
	Workers      int
	QueueSize    int
	PollInterval time.Duration
	HealthEvery  time.Duration
	ClaimTTL     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 10
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Minute
	}
	if c.HealthEvery <= 0 {
		c.HealthEvery = 15 * time.Second
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = dedup.DefaultTTL
	}
	return c
}

// Deps are the collaborators the pipeline drives
type Deps struct {
	Sources  []registry.Source
	Resolver registry.Resolver
	Claimer  dedup.ClaimerPort
	Analyzer analyze.AnalyzerPort
	Sink     verdicts.Sink
}

// Svc implements domain.RunnerPort and domain.TriggerPort
type Svc struct {
	d   Deps
	cfg Config
	log logger.Logger
	now func() time.Time

	pending atomic.Int64
	active  atomic.Int64
}

// New builds the pipeline
func New(d Deps, cfg Config) *Svc {
	return &Svc{d: d, cfg: cfg.withDefaults(), log: *logger.Named("ingest"), now: time.Now}
}

var (
	_ domain.RunnerPort  = (*Svc)(nil)
	_ domain.TriggerPort = (*Svc)(nil)
)

// item is one queued package
type item struct {
	rel registry.Release
	id  string
}

// Run implements domain.RunnerPort. Cancelling ctx stops the producer, then
// the workers finish every queued item on a context that outlives ctx
func (s *Svc) Run(ctx context.Context) error {
	queue := make(chan item, s.cfg.QueueSize)
	drainCtx := context.WithoutCancel(ctx)

	done := make(chan struct{}, s.cfg.Workers)
	for i := range s.cfg.Workers {
		go func() {
			s.work(drainCtx, i, queue)
			done <- struct{}{}
		}()
	}

	sampled := make(chan struct{})
	go func() {
		s.sampleHealth(ctx, queue)
		close(sampled)
	}()

	s.log.Info().
		Int("workers", s.cfg.Workers).
		Int("queue", s.cfg.QueueSize).
		Dur("poll", s.cfg.PollInterval).
		Int("sources", len(s.d.Sources)).
		Msg("pipeline started")

	s.produce(ctx, queue)

	close(queue)
	s.log.Info().Int("queued", len(queue)).Msg("producer stopped, draining")
	for range s.cfg.Workers {
		<-done
	}
	<-sampled
	s.d.Sink.Health(s.health(queue))
	s.log.Info().Msg("pipeline drained")
	return nil
}

func (s *Svc) health(queue chan item) verdicts.Health {
	h := verdicts.Health{
		At:            s.now().UTC(),
		Pending:       int(s.pending.Load()),
		ActiveWorkers: int(s.active.Load()),
	}
	h.QueueDepth = len(queue)
	h.Capacity = cap(queue)
	return h
}

func (s *Svc) sampleHealth(ctx context.Context, queue chan item) {
	t := time.NewTicker(s.cfg.HealthEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h := s.health(queue)
			metrics.QueueDepth.Set(float64(h.QueueDepth))
			s.d.Sink.Health(h)
		}
	}
}

func (s *Svc) transition(id string, to domain.State, reason string) {
	metrics.Items.WithLabelValues(to.String()).Inc()
	ev := s.log.Debug()
	if to == domain.StateFailed {
		ev = s.log.Warn()
	}
	ev = ev.Str("item", id).Stringer("state", to)
	if reason != "" {
		ev = ev.Str("reason", reason)
	}
	ev.Msg("item transition")
}

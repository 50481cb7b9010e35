// Package service fans verdicts and health samples out to writers without
// ever blocking the pipeline
package service

import (
	"context"
	"sync"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
)

type envelope struct {
	verdict *analyze.Verdict
	health  *domain.Health
}

// FanOut is a buffered domain.Sink drained by one goroutine. A full buffer
// drops the sample
type FanOut struct {
	mu      sync.RWMutex
	closed  bool
	ch      chan envelope
	done    chan struct{}
	writers []domain.Writer
	timeout time.Duration
	log     logger.Logger
}

// NewFanOut starts the drain goroutine; call Close to flush and stop it
func NewFanOut(buffer int, writeTimeout time.Duration, writers ...domain.Writer) *FanOut {
	if buffer <= 0 {
		buffer = 256
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	f := &FanOut{
		ch:      make(chan envelope, buffer),
		done:    make(chan struct{}),
		writers: writers,
		timeout: writeTimeout,
		log:     *logger.Named("verdicts.sink"),
	}
	go f.drain()
	return f
}

var _ domain.Sink = (*FanOut)(nil)

// Emit implements domain.Sink
func (f *FanOut) Emit(v analyze.Verdict) { f.offer(envelope{verdict: &v}, "verdict") }

// Health implements domain.Sink
func (f *FanOut) Health(h domain.Health) { f.offer(envelope{health: &h}, "health") }

func (f *FanOut) offer(e envelope, kind string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		metrics.SinkDropped.WithLabelValues(kind).Inc()
		return
	}
	select {
	case f.ch <- e:
	default:
		metrics.SinkDropped.WithLabelValues(kind).Inc()
		f.log.Warn().Str("kind", kind).Int("buffer", cap(f.ch)).Msg("sink full, sample dropped")
	}
}

func (f *FanOut) drain() {
	defer close(f.done)
	for e := range f.ch {
		for _, w := range f.writers {
			f.write(w, e)
		}
	}
}

func (f *FanOut) write(w domain.Writer, e envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	var err error
	switch {
	case e.verdict != nil:
		err = w.WriteVerdict(ctx, *e.verdict)
	case e.health != nil:
		err = w.WriteHealth(ctx, *e.health)
	}
	if err != nil {
		metrics.SinkWriteErrors.WithLabelValues(w.Name()).Inc()
		f.log.Warn().Err(err).Str("writer", w.Name()).Msg("sink write failed")
	}
}

// Close stops intake and waits until buffered samples are written or ctx ends
func (f *FanOut) Close(ctx context.Context) error {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
	f.mu.Unlock()

	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

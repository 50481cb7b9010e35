// Package domain defines verdict reporting: the sink the pipeline emits to,
// the writers behind it and the read side the API serves from
package domain

import (
	"context"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
)

// Health is one pipeline health sample
type Health struct {
	At            time.Time `json:"at"`
	QueueDepth    int       `json:"queue_depth"`
	Pending       int       `json:"pending"`
	ActiveWorkers int       `json:"active_workers"`
	Capacity      int       `json:"capacity"`
}

// Sink receives verdicts and health samples. Both calls are fire-and-forget
// and never block the caller
type Sink interface {
	Emit(v analyze.Verdict)
	Health(h Health)
}

// Writer persists or prints what the sink receives
type Writer interface {
	Name() string
	WriteVerdict(ctx context.Context, v analyze.Verdict) error
	WriteHealth(ctx context.Context, h Health) error
}

// Filter narrows List
type Filter struct {
	SuspiciousOnly bool
	Limit          int
}

// ReaderPort serves the latest verdict per repository
type ReaderPort interface {
	Get(ctx context.Context, ref repo.Ref) (analyze.Verdict, error)
	List(ctx context.Context, f Filter) ([]analyze.Verdict, error)
}

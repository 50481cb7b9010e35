// Package domain defines the ingestion pipeline states and ports
package domain

import (
	"context"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
)

// State of one package moving through the pipeline
type State int

// States in order; Completed, Failed and Dropped are terminal
const (
	StateObserved State = iota
	StateClaimed
	StateQueued
	StateInProgress
	StateCompleted
	StateFailed
	StateDropped
)

var stateNames = [...]string{"observed", "claimed", "queued", "in_progress", "completed", "failed", "dropped"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows
func (s State) Terminal() bool { return s >= StateCompleted }

// RunnerPort runs the producer, workers and health sampler until ctx ends,
// then drains the queue
type RunnerPort interface {
	Run(ctx context.Context) error
}

// TriggerPort analyzes one repository on demand, outside the queue. Unless
// force is set the repository claim applies and a live claim is a conflict
type TriggerPort interface {
	AnalyzeNow(ctx context.Context, ref repo.Ref, force bool) (analyze.Verdict, error)
}

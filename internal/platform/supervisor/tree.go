// Package supervisor runs long-lived services under a suture tree so a crash
// in one layer restarts that service without taking the process down
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/platform/logger"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Config tunes restart behavior; zero values take suture's defaults
type Config struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = 30
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	return c
}

// Tree has two layers: pipeline (producer, workers, sink) and api (http)
type Tree struct {
	root     *suture.Supervisor
	pipeline *suture.Supervisor
	api      *suture.Supervisor
}

// New builds the tree; supervisor events are logged through zerolog
func New(name string, cfg Config) *Tree {
	cfg = cfg.withDefaults()
	hook := (&sutureslog.Handler{Logger: logger.Slog("supervisor")}).MustHook()

	spec := func(withHook bool) suture.Spec {
		s := suture.Spec{
			FailureThreshold: cfg.FailureThreshold,
			FailureDecay:     cfg.FailureDecay,
			FailureBackoff:   cfg.FailureBackoff,
			Timeout:          cfg.ShutdownTimeout,
		}
		if withHook {
			s.EventHook = hook
		}
		return s
	}

	t := &Tree{
		root:     suture.New(name, spec(true)),
		pipeline: suture.New("pipeline-layer", spec(false)),
		api:      suture.New("api-layer", spec(false)),
	}
	t.root.Add(t.pipeline)
	t.root.Add(t.api)
	return t
}

// AddPipeline adds a service to the pipeline layer
func (t *Tree) AddPipeline(svc suture.Service) suture.ServiceToken { return t.pipeline.Add(svc) }

// AddAPI adds a service to the api layer
func (t *Tree) AddAPI(svc suture.Service) suture.ServiceToken { return t.api.Add(svc) }

// Serve blocks until ctx is cancelled and every service has returned
func (t *Tree) Serve(ctx context.Context) error { return t.root.Serve(ctx) }

// Func adapts a run function to suture.Service
type Func struct {
	Name string
	Run  func(ctx context.Context) error
}

// Serve implements suture.Service; a nil return after cancellation is final
func (f Func) Serve(ctx context.Context) error {
	err := f.Run(ctx)
	if err == nil || ctx.Err() != nil {
		return suture.ErrDoNotRestart
	}
	return err
}

func (f Func) String() string { return fmt.Sprintf("service(%s)", f.Name) }

// Package module wires the verdict sink, its writers and the reader
package module

import (
	"context"

	"github.com/masteryoda101/fake-star-check/internal/modkit"
	phttp "github.com/masteryoda101/fake-star-check/internal/platform/net/http"

	ingest "github.com/masteryoda101/fake-star-check/internal/services/ingest/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
	vhttp "github.com/masteryoda101/fake-star-check/internal/services/verdicts/http"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/repo"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/service"
)

// Ports defines the verdicts module ports
type Ports struct {
	Sink   domain.Sink
	Reader domain.ReaderPort
}

// Module owns the fan-out sink
type Module struct {
	deps    modkit.Deps
	opts    Options
	sink    *service.FanOut
	ports   Ports
	writers []string
}

// New picks writers from what deps carry: console unless disabled, Postgres
// (or a bounded in-memory store without it) and ClickHouse when enabled.
// Schemas are created here
func New(ctx context.Context, deps modkit.Deps, overrides Options) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if overrides.Buffer != 0 {
		opts.Buffer = overrides.Buffer
	}
	if overrides.MemoryMax != 0 {
		opts.MemoryMax = overrides.MemoryMax
	}

	var writers []domain.Writer
	if opts.Console {
		writers = append(writers, service.NewConsole(deps.Log.With().Str("component", "verdicts").Logger()))
	}

	var storage repo.Storage
	if deps.PG != nil {
		if err := repo.EnsureSchemaPG(ctx, deps.PG); err != nil {
			return nil, err
		}
		storage = repo.NewPG().Bind(deps.PG)
		writers = append(writers, service.NewStoreWriter("postgres", storage))
	} else {
		storage = repo.NewMemory(opts.MemoryMax)
		writers = append(writers, service.NewStoreWriter("memory", storage))
	}

	if deps.CH != nil {
		a := repo.NewAnalytics(deps.CH)
		if err := a.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		writers = append(writers, service.NewAnalyticsWriter(a))
	}

	names := make([]string, len(writers))
	for i, w := range writers {
		names[i] = w.Name()
	}
	deps.Log.Info().Strs("writers", names).Int("buffer", opts.Buffer).Msg("verdict sink ready")

	sink := service.NewFanOut(opts.Buffer, opts.WriteTimeout, writers...)
	return &Module{
		deps:    deps,
		opts:    opts,
		sink:    sink,
		writers: names,
		ports:   Ports{Sink: sink, Reader: storage},
	}, nil
}

// Name returns the module name
func (m *Module) Name() string { return "verdicts" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// Writers lists the active writer names
func (m *Module) Writers() []string { return m.writers }

// MountRoutes registers the API on r. trigger may be nil
func (m *Module) MountRoutes(r phttp.Router, d vhttp.Deps, trigger ingest.TriggerPort) {
	d.Reader = m.ports.Reader
	d.Trigger = trigger
	vhttp.Register(r, d)
}

// Close flushes buffered samples
func (m *Module) Close(ctx context.Context) error { return m.sink.Close(ctx) }

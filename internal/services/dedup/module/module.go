// Package module wires the idempotency cache and exposes its port
package module

import (
	"context"
	"fmt"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/modkit"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/repo"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/service"
)

// Ports defines the dedup module ports
type Ports struct {
	Claimer domain.ClaimerPort
}

// Module owns the selected claim store
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
	close func() error
}

// New builds the module from config, applying non-zero overrides. The pg
// backend needs deps.PG and creates its table
func New(ctx context.Context, deps modkit.Deps, defaultBackend string, overrides Options) (*Module, error) {
	opts := FromConfig(deps.Cfg, defaultBackend)
	if overrides.Backend != "" {
		opts.Backend = overrides.Backend
	}
	if overrides.BadgerDir != "" {
		opts.BadgerDir = overrides.BadgerDir
	}
	if overrides.TTL != 0 {
		opts.TTL = overrides.TTL
	}

	m := &Module{deps: deps, opts: opts, close: func() error { return nil }}
	var r repo.Repo
	switch opts.Backend {
	case BackendMemory:
		r = repo.NewMemory(time.Now)
	case BackendBadger:
		b, err := repo.OpenBadger(opts.BadgerDir)
		if err != nil {
			return nil, err
		}
		r, m.close = b, b.Close
	case BackendPG:
		if deps.PG == nil {
			return nil, fmt.Errorf("dedup backend pg requires PG_URL")
		}
		if err := repo.EnsureSchema(ctx, deps.PG); err != nil {
			return nil, err
		}
		r = repo.NewPG().Bind(deps.PG)
	default:
		return nil, fmt.Errorf("unknown dedup backend %q", opts.Backend)
	}

	m.ports = Ports{Claimer: service.New(r, opts.Backend)}
	deps.Log.Info().Str("backend", opts.Backend).Dur("ttl", opts.TTL).Msg("dedup ready")
	return m, nil
}

// Name returns the module name
func (m *Module) Name() string { return "dedup" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// TTL is the configured claim lifetime
func (m *Module) TTL() time.Duration { return m.opts.TTL }

// Close releases the store
func (m *Module) Close() error { return m.close() }

// Package module wires the ingestion pipeline to registry sources and
// exposes its ports
package module

import (
	"net/http"
	"strings"

	"github.com/masteryoda101/fake-star-check/internal/adapters/registry"
	"github.com/masteryoda101/fake-star-check/internal/modkit"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	dedup "github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/ingest/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/ingest/service"
	verdicts "github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
)

// Ports defines the ingest module ports
type Ports struct {
	Runner  domain.RunnerPort
	Trigger domain.TriggerPort
}

// Collaborators are the other modules' ports the pipeline drives
type Collaborators struct {
	Claimer  dedup.ClaimerPort
	Analyzer analyze.AnalyzerPort
	Sink     verdicts.Sink
}

// Module defines the ingest module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New builds sources and resolvers for the enabled ecosystems. Non-zero
// overrides win over config
func New(deps modkit.Deps, c Collaborators, overrides Options) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.Workers != 0 {
		opts.Workers = overrides.Workers
	}
	if overrides.QueueSize != 0 {
		opts.QueueSize = overrides.QueueSize
	}
	if overrides.PollInterval != 0 {
		opts.PollInterval = overrides.PollInterval
	}
	if len(overrides.Sources) > 0 {
		opts.Sources = overrides.Sources
	}

	hc := &http.Client{Timeout: opts.HTTPTimeout}
	var sources []registry.Source
	resolvers := registry.Multi{}
	for _, name := range opts.Sources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case registry.PyPI:
			sources = append(sources, registry.NewPyPISource(opts.PyPIFeedURL, hc))
			resolvers[registry.PyPI] = registry.NewPyPIResolver(opts.PyPIBaseURL, hc)
		case registry.NPM:
			sources = append(sources, registry.NewNPMSource(opts.NPMChangesURL, hc))
			resolvers[registry.NPM] = registry.NewNPMResolver(opts.NPMRegistryURL, hc)
		default:
			deps.Log.Warn().Str("source", name).Msg("unknown registry source ignored")
		}
	}

	svc := service.New(service.Deps{
		Sources:  sources,
		Resolver: resolvers,
		Claimer:  c.Claimer,
		Analyzer: c.Analyzer,
		Sink:     c.Sink,
	}, service.Config{
		Workers:      opts.Workers,
		QueueSize:    opts.QueueSize,
		PollInterval: opts.PollInterval,
		HealthEvery:  opts.HealthEvery,
		ClaimTTL:     opts.ClaimTTL,
	})

	return &Module{deps: deps, opts: opts, ports: Ports{Runner: svc, Trigger: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "ingest" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// Options returns the merged options
func (m *Module) Options() Options { return m.opts }

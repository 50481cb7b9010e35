// Package module wires the analyzer and exposes its port
package module

import (
	"github.com/masteryoda101/fake-star-check/internal/core/burst"
	"github.com/masteryoda101/fake-star-check/internal/core/cohort"
	"github.com/masteryoda101/fake-star-check/internal/modkit"
	"github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/analyze/service"

	gh "github.com/masteryoda101/fake-star-check/internal/adapters/codehost/github"
)

// Ports defines the analyze module ports
type Ports struct {
	Analyzer domain.AnalyzerPort
}

// Module defines the analyze module
type Module struct {
	deps  modkit.Deps
	opts  Options
	host  domain.CodeHost
	ports Ports
}

// Defaults passed by the binaries
type Defaults struct {
	GateMinStars    int
	CohortReportMin int
}

// New constructs the analyzer. A nil host means a GitHub client built from
// GITHUB_* config. Non-zero overrides win over config
func New(deps modkit.Deps, host domain.CodeHost, d Defaults, overrides Options) *Module {
	opts := FromConfig(deps.Cfg, d.GateMinStars, d.CohortReportMin)
	if overrides.GateMinStars != 0 {
		opts.GateMinStars = overrides.GateMinStars
	}
	if overrides.ProfileConcurrency != 0 {
		opts.ProfileConcurrency = overrides.ProfileConcurrency
	}
	if overrides.CohortReportMin != 0 {
		opts.CohortReportMin = overrides.CohortReportMin
	}
	if overrides.FlagBurstAlone {
		opts.FlagBurstAlone = true
	}

	if host == nil {
		host = gh.NewClient(gh.OptionsFromConfig(deps.Cfg))
	}

	svc := service.New(host, service.Timeline{}, service.Config{
		GateMinStars:       opts.GateMinStars,
		CohortAlwaysBelow:  opts.CohortAlwaysBelow,
		ProfileConcurrency: opts.ProfileConcurrency,
		FlagBurstAlone:     opts.FlagBurstAlone,
		Timeline:           opts.Timeline,

		MaxProfileFailureShare: opts.MaxProfileFailureShare,

		Burst: burst.Config{
			Window:    opts.BurstWindow,
			Threshold: opts.BurstThreshold,
			MinEvents: opts.BurstMinEvents,
		},
		Cohort: cohort.Config{
			Threshold:     opts.CohortThreshold,
			ReportMinSize: opts.CohortReportMin,
			Policy:        cohort.Policy{MinSignals: opts.CohortSignals},
		},
	})

	deps.Log.Info().
		Int("gate", opts.GateMinStars).
		Int("profile_concurrency", opts.ProfileConcurrency).
		Bool("flag_burst_alone", opts.FlagBurstAlone).
		Msg("analyzer ready")

	return &Module{deps: deps, opts: opts, host: host, ports: Ports{Analyzer: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "analyze" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// Host returns the code host the analyzer reads from
func (m *Module) Host() domain.CodeHost { return m.host }

// Options returns the merged options
func (m *Module) Options() Options { return m.opts }

// starcheck-watch polls package registries, analyzes the GitHub repositories
// new releases point at and reports fake-star verdicts. It serves health,
// metrics and verdict reads over HTTP
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/version"
	"github.com/masteryoda101/fake-star-check/internal/modkit"
	"github.com/masteryoda101/fake-star-check/internal/modkit/repokit"
	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	phttp "github.com/masteryoda101/fake-star-check/internal/platform/net/http"
	"github.com/masteryoda101/fake-star-check/internal/platform/net/middleware"
	"github.com/masteryoda101/fake-star-check/internal/platform/store"
	"github.com/masteryoda101/fake-star-check/internal/platform/supervisor"

	analyzemod "github.com/masteryoda101/fake-star-check/internal/services/analyze/module"
	dedupmod "github.com/masteryoda101/fake-star-check/internal/services/dedup/module"
	ingestmod "github.com/masteryoda101/fake-star-check/internal/services/ingest/module"
	vhttp "github.com/masteryoda101/fake-star-check/internal/services/verdicts/http"
	verdictmod "github.com/masteryoda101/fake-star-check/internal/services/verdicts/module"

	"github.com/go-chi/chi/v5"
)

const service = "starcheck-watch"

func main() {
	var (
		fWorkers = flag.Int("workers", 0, "analysis workers (env INGEST_WORKERS, default 10)")
		fQueue   = flag.Int("queue", 0, "bounded queue size (env INGEST_QUEUE_SIZE, default 100)")
		fPoll    = flag.Duration("poll", 0, "registry poll interval (env INGEST_POLL_INTERVAL, default 60s)")
		fSources = flag.String("sources", "", "comma-separated registries: pypi,npm (env INGEST_SOURCES)")
		fGate    = flag.Int("gate", 0, "analyze only repositories with more stars than this (env ANALYZE_GATE_MIN_STARS, default 150)")
		fDedup   = flag.String("dedup", "", "dedup backend: memory | badger | pg (env DEDUP_BACKEND, default badger)")
		fNoAPI   = flag.Bool("no-api", false, "do not serve the HTTP API")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.ConfigFromEnv(root, service), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	deps := modkit.FromStore(*l, root, st)

	dd, err := dedupmod.New(ctx, deps, dedupmod.BackendBadger, dedupmod.Options{Backend: *fDedup})
	if err != nil {
		l.Fatal().Err(err).Msg("dedup init failed")
	}
	defer func() {
		if err := dd.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close dedup store")
		}
	}()

	vm, err := verdictmod.New(ctx, deps, verdictmod.Options{})
	if err != nil {
		l.Fatal().Err(err).Msg("verdicts init failed")
	}

	am := analyzemod.New(deps, nil,
		analyzemod.Defaults{GateMinStars: 150, CohortReportMin: 1},
		analyzemod.Options{GateMinStars: *fGate},
	)

	var sources []string
	if *fSources != "" {
		sources = strings.Split(*fSources, ",")
	}
	im := ingestmod.New(deps, ingestmod.Collaborators{
		Claimer:  dd.Ports().Claimer,
		Analyzer: am.Ports().Analyzer,
		Sink:     vm.Ports().Sink,
	}, ingestmod.Options{
		Workers:      *fWorkers,
		QueueSize:    *fQueue,
		PollInterval: *fPoll,
		Sources:      sources,
	})

	tree := supervisor.New(service, supervisor.Config{
		ShutdownTimeout: root.MayDuration("SHUTDOWN_TIMEOUT", 10*time.Minute),
	})
	tree.AddPipeline(supervisor.Func{Name: "ingest", Run: im.Ports().Runner.Run})

	if !*fNoAPI {
		httpCfg := root.Prefix("HTTP_")
		srv := phttp.NewServer(root, func(m *chi.Mux) {
			m.Use(middleware.Defaults(
				middleware.CORSOptions{AllowedOrigins: httpCfg.MayCSV("CORS_ORIGINS", []string{"*"})},
				httpCfg.MayDuration("SLOW", 2*time.Second),
				httpCfg.MayDuration("TIMEOUT", 5*time.Minute),
			)...)
		})
		vm.MountRoutes(srv.Router(), vhttp.Deps{
			Service:   service,
			StartedAt: time.Now(),
			Ready:     st.Guard,
		}, im.Ports().Trigger)
		tree.AddAPI(srv)
	}

	l.Info().
		Str("version", version.Info(service).Version).
		Strs("sources", im.Options().Sources).
		Int("gate", am.Options().GateMinStars).
		Msg("starting")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		l.Error().Err(err).Msg("supervisor stopped")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := vm.Close(flushCtx); err != nil {
		l.Warn().Err(err).Msg("verdict sink flush incomplete")
	}
	l.Info().Msg("stopped")
}

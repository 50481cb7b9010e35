// starcheck-scan analyzes one repository, or every repository a user owns,
// and prints the verdicts with a final summary
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/modkit"
	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/store"

	gh "github.com/masteryoda101/fake-star-check/internal/adapters/codehost/github"
	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	analyzemod "github.com/masteryoda101/fake-star-check/internal/services/analyze/module"
	dedup "github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	dedupmod "github.com/masteryoda101/fake-star-check/internal/services/dedup/module"
	verdictmod "github.com/masteryoda101/fake-star-check/internal/services/verdicts/module"
)

const service = "starcheck-scan"

func main() {
	var (
		fRepo      = flag.String("repo", "", "repository to analyze, owner/name")
		fUser      = flag.String("user", "", "analyze every repository owned by this login")
		fGate      = flag.Int("gate", 0, "analyze only repositories with more stars than this (env ANALYZE_GATE_MIN_STARS, default 40)")
		fReportMin = flag.Int("report-min", 0, "list join-date cohorts larger than this (env ANALYZE_COHORT_REPORT_MIN, default 5)")
		fBurst     = flag.Bool("flag-burst", false, "a suspicious burst alone makes a repository suspicious")
		fForks     = flag.Bool("forks", false, "with -user, include forks")
		fPersist   = flag.Bool("persist", false, "write verdicts to PG_URL / CH_URL when set")
		fSkip      = flag.Bool("skip-recent", false, "skip repositories claimed within DEDUP_TTL (env DEDUP_BACKEND, default memory)")
	)
	flag.Parse()

	if (*fRepo == "") == (*fUser == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -repo or -user is required")
		flag.Usage()
		os.Exit(2)
	}

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if *fPersist {
		var err error
		st, err = store.Open(ctx, store.ConfigFromEnv(root, service), store.WithLogger(*l))
		if err != nil {
			l.Fatal().Err(err).Msg("store.Open failed")
		}
		defer func() { _ = st.Close(context.Background()) }()
	}
	deps := modkit.FromStore(*l, root, st)

	client := gh.NewClient(gh.OptionsFromConfig(root))
	am := analyzemod.New(deps, client,
		analyzemod.Defaults{GateMinStars: 40, CohortReportMin: 5},
		analyzemod.Options{GateMinStars: *fGate, CohortReportMin: *fReportMin, FlagBurstAlone: *fBurst},
	)

	vm, err := verdictmod.New(ctx, deps, verdictmod.Options{})
	if err != nil {
		l.Fatal().Err(err).Msg("verdicts init failed")
	}

	var claimer dedup.ClaimerPort
	var ttl time.Duration
	if *fSkip {
		dd, err := dedupmod.New(ctx, deps, dedupmod.BackendMemory, dedupmod.Options{})
		if err != nil {
			l.Fatal().Err(err).Msg("dedup init failed")
		}
		defer func() { _ = dd.Close() }()
		claimer, ttl = dd.Ports().Claimer, dd.TTL()
	}

	targets, err := resolveTargets(ctx, client, *fRepo, *fUser, *fForks)
	if err != nil {
		l.Fatal().Err(err).Msg("no repositories to analyze")
	}

	var results []analyze.Verdict
	for _, ref := range targets {
		if ctx.Err() != nil {
			break
		}
		if claimer != nil {
			ok, err := claimer.TryClaim(ctx, dedup.NamespaceRepo, ref.Key(), ttl)
			if err == nil && !ok {
				l.Info().Str("repo", ref.String()).Msg("analyzed recently, skipped")
				continue
			}
		}
		v, err := am.Ports().Analyzer.Analyze(ctx, ref)
		if err != nil {
			l.Warn().Err(err).Str("repo", ref.String()).Msg("analysis inconclusive")
		}
		vm.Ports().Sink.Emit(v)
		results = append(results, v)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = vm.Close(flushCtx)

	printSummary(os.Stdout, results)
}

func resolveTargets(ctx context.Context, c *gh.Client, repoArg, user string, forks bool) ([]repo.Ref, error) {
	if repoArg != "" {
		ref, err := repo.Parse(repoArg)
		if err != nil {
			return nil, err
		}
		return []repo.Ref{ref}, nil
	}
	repos, err := c.ReposOf(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]repo.Ref, 0, len(repos))
	for _, r := range repos {
		if r.Fork && !forks {
			continue
		}
		out = append(out, repo.Ref{Owner: r.Owner.Login, Name: r.Name})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("user %s owns no repositories", user)
	}
	return out, nil
}

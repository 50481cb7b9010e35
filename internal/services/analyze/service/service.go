// Package service runs repository analyses: gate, burst window, join-date
// cohorts and collusion, in that order
package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/burst"
	"github.com/masteryoda101/fake-star-check/internal/core/cohort"
	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/core/timeline"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"
	"github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"

	"github.com/google/uuid"
)

// Config carries the analysis tunables
type Config struct {
	// GateMinStars: repositories with at most this many stars are not analyzed
	GateMinStars int
	// CohortAlwaysBelow: cohorts are scored for repositories under this many
	// stars even when the burst check is clean
	CohortAlwaysBelow int
	// ProfileConcurrency bounds profile fetches within one analysis
	ProfileConcurrency int
	// FlagBurstAlone makes a suspicious burst enough for a suspicious verdict
	FlagBurstAlone bool
	// Timeline attaches star history evidence
	Timeline bool
	// MaxProfileFailureShare: a verdict that is not suspicious is
	// inconclusive once failed profile fetches reach this share of the
	// stargazers. Zero or less takes DefaultMaxProfileFailureShare
	MaxProfileFailureShare float64

	Burst  burst.Config
	Cohort cohort.Config
}

// DefaultMaxProfileFailureShare marks half the profiles missing as too little
// evidence for a clean verdict
const DefaultMaxProfileFailureShare = 0.5

// Svc implements domain.AnalyzerPort
type Svc struct {
	host domain.CodeHost
	viz  domain.Visualizer
	cfg  Config
	log  logger.Logger
	now  func() time.Time
}

// New builds an analyzer over host; viz may be nil
func New(host domain.CodeHost, viz domain.Visualizer, cfg Config) *Svc {
	if cfg.ProfileConcurrency <= 0 {
		cfg.ProfileConcurrency = 1
	}
	if cfg.MaxProfileFailureShare <= 0 {
		cfg.MaxProfileFailureShare = DefaultMaxProfileFailureShare
	}
	return &Svc{host: host, viz: viz, cfg: cfg, log: *logger.Named("analyze"), now: time.Now}
}

var _ domain.AnalyzerPort = (*Svc)(nil)

// Analyze implements domain.AnalyzerPort
func (s *Svc) Analyze(ctx context.Context, ref repo.Ref) (v domain.Verdict, err error) {
	start := s.now()
	v = domain.Verdict{RunID: uuid.New(), Repository: ref, AnalyzedAt: start.UTC()}
	log := s.log.With().Str("repo", ref.String()).Str("run_id", v.RunID.String()).Logger()

	defer func() {
		metrics.AnalysisDuration.WithLabelValues(string(v.Status)).Observe(s.now().Sub(start).Seconds())
		metrics.Verdicts.WithLabelValues(string(v.Status), strconv.FormatBool(v.IsSuspicious)).Inc()
	}()

	info, err := s.host.Repository(ctx, ref)
	if err != nil {
		return inconclusive(v, "repository", err), err
	}
	v.TotalStargazers = info.Stargazers

	if info.Stargazers <= s.cfg.GateMinStars {
		v.Status = domain.StatusNotAnalyzed
		v.Reason = fmt.Sprintf("%d stargazers, gate is above %d", info.Stargazers, s.cfg.GateMinStars)
		log.Debug().Int("stars", info.Stargazers).Msg("below gate")
		return v, nil
	}
	if err := ctx.Err(); err != nil {
		return inconclusive(v, "cancelled", err), err
	}

	stars, err := s.host.Stargazers(ctx, ref)
	if err != nil {
		return inconclusive(v, "stargazers", err), err
	}
	v.TotalStargazers = len(stars)

	times := make([]time.Time, len(stars))
	for i, st := range stars {
		times[i] = st.StarredAt
	}
	b := burst.Detect(times, s.cfg.Burst)
	v.MaxBurstCount = b.MaxCount
	v.BurstWindowHours = b.WindowHours
	v.BurstRatio = b.Ratio
	v.BurstSuspicious = b.Suspicious
	v.BurstWindowStart = b.WindowStart

	if s.cfg.Timeline {
		v.Timeline = s.visualize(log, times)
	}

	if b.Suspicious || info.Stargazers < s.cfg.CohortAlwaysBelow {
		if err := ctx.Err(); err != nil {
			return inconclusive(v, "cancelled", err), err
		}
		res, failures := s.scoreCohort(ctx, log, stars)
		v.CohortSuspects = res.Suspects
		v.CohortSuspectPercentage = res.Percentage
		v.CohortSuspicious = res.Suspicious
		v.Cohorts = res.Cohorts
		v.SuspectLogins = res.SuspectLogins
		v.ProfileFailures = failures

		if res.Suspicious {
			v.CommonlyStarredRepos = s.correlate(ctx, log, ref, res.SuspectLogins)
		}
	} else {
		v.CohortSkipped = true
	}

	v.IsSuspicious = v.CohortSuspicious || (v.BurstSuspicious && s.cfg.FlagBurstAlone)
	v.Status = domain.StatusAnalyzed

	if !v.IsSuspicious && s.degraded(v.ProfileFailures, len(stars)) {
		v.Status = domain.StatusInconclusive
		v.Reason = fmt.Sprintf("profiles: %d of %d fetches failed", v.ProfileFailures, len(stars))
		log.Warn().
			Int("profile_failures", v.ProfileFailures).
			Int("stars", len(stars)).
			Msg("too many profiles missing for a clean verdict")
		return v, nil
	}

	log.Info().
		Int("stars", v.TotalStargazers).
		Float64("burst_ratio", v.BurstRatio).
		Float64("cohort_pct", v.CohortSuspectPercentage).
		Bool("suspicious", v.IsSuspicious).
		Msg("analysis complete")
	return v, nil
}

func (s *Svc) degraded(failures, total int) bool {
	if failures == 0 || total == 0 {
		return false
	}
	return float64(failures)/float64(total) >= s.cfg.MaxProfileFailureShare
}

func inconclusive(v domain.Verdict, step string, err error) domain.Verdict {
	v.Status = domain.StatusInconclusive
	v.Reason = step + ": " + err.Error()
	if perr.Transient(err) {
		v.Reason += " (transient)"
	}
	return v
}

// visualize never fails the analysis; panics included
func (s *Svc) visualize(log logger.Logger, times []time.Time) (out *timeline.Summary) {
	if s.viz == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("timeline panicked")
			out = nil
		}
	}()
	sum, err := s.viz.Visualize(times)
	if err != nil {
		log.Warn().Err(err).Msg("timeline failed")
		return nil
	}
	return &sum
}

// Timeline is the default Visualizer
type Timeline struct{}

// Visualize implements domain.Visualizer
func (Timeline) Visualize(times []time.Time) (timeline.Summary, error) {
	return timeline.Summarize(times), nil
}

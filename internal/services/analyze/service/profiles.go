package service

import (
	"context"

	"github.com/masteryoda101/fake-star-check/internal/core/cohort"
	"github.com/masteryoda101/fake-star-check/internal/core/collusion"
	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"

	gh "github.com/masteryoda101/fake-star-check/internal/adapters/codehost/github"

	"golang.org/x/sync/errgroup"
)

// scoreCohort fetches every stargazer profile with bounded concurrency. A
// failed fetch or a profile without a join date scores as all signals false
func (s *Svc) scoreCohort(ctx context.Context, log logger.Logger, stars []gh.Star) (cohort.Result, int) {
	profiles := make([]cohort.Profile, len(stars))
	failed := make([]bool, len(stars))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ProfileConcurrency)
	for i, st := range stars {
		g.Go(func() error {
			u, err := s.host.UserProfile(gctx, st.Login)
			if err != nil {
				log.Debug().Err(err).Str("login", st.Login).Msg("profile fetch failed")
				profiles[i] = cohort.Profile{Login: st.Login}
				failed[i] = true
				return nil
			}
			p := cohort.NewProfile(u.Fields())
			if p.JoinDate == "" {
				p = cohort.Profile{Login: st.Login}
				failed[i] = true
			}
			profiles[i] = p
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	for _, f := range failed {
		if f {
			failures++
		}
	}
	if failures > 0 {
		log.Warn().Int("failures", failures).Int("profiles", len(stars)).Msg("profiles scored as non-suspect")
	}
	return cohort.Score(profiles, len(stars), s.cfg.Cohort), failures
}

// correlate collects what the suspects starred. A failed fetch leaves that
// suspect out of the counts but not out of the denominator
func (s *Svc) correlate(ctx context.Context, log logger.Logger, ref repo.Ref, suspects []string) map[string]domain.Common {
	starred := make([][]string, len(suspects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ProfileConcurrency)
	for i, login := range suspects {
		g.Go(func() error {
			names, err := s.host.StarredRepos(gctx, login)
			if err != nil {
				log.Debug().Err(err).Str("login", login).Msg("starred repos fetch failed")
				return nil
			}
			starred[i] = names
			return nil
		})
	}
	_ = g.Wait()

	byLogin := make(map[string][]string, len(suspects))
	for i, login := range suspects {
		if starred[i] != nil {
			byLogin[login] = starred[i]
		}
	}

	out := map[string]domain.Common{}
	for _, r := range collusion.Correlate(byLogin, ref.String(), len(suspects)) {
		out[r.FullName] = domain.Common{Count: r.Count, Percentage: r.Percentage}
	}
	return out
}

package domain

import (
	"context"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/core/timeline"

	gh "github.com/masteryoda101/fake-star-check/internal/adapters/codehost/github"
)

// CodeHost is the read surface the analyzer needs from GitHub
type CodeHost interface {
	Repository(ctx context.Context, ref repo.Ref) (gh.Repository, error)
	Stargazers(ctx context.Context, ref repo.Ref) ([]gh.Star, error)
	UserProfile(ctx context.Context, login string) (gh.User, error)
	StarredRepos(ctx context.Context, login string) ([]string, error)
}

// Visualizer renders star history evidence. Failures never affect a verdict
type Visualizer interface {
	Visualize(times []time.Time) (timeline.Summary, error)
}

// AnalyzerPort runs one repository analysis. A returned error always comes
// with an inconclusive verdict describing it
type AnalyzerPort interface {
	Analyze(ctx context.Context, ref repo.Ref) (Verdict, error)
}

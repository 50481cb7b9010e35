// Package registry polls package registries for new releases and resolves a
// package to the GitHub repository it points at
package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/core/version"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"

	json "github.com/goccy/go-json"
)

// Ecosystems
const (
	PyPI = "pypi"
	NPM  = "npm"
)

// Release is one observed package publication. Version is empty for feeds
// that only announce a change (npm)
type Release struct {
	Name        string    `json:"name" validate:"required,max=214"`
	Version     string    `json:"version" validate:"max=128"`
	Ecosystem   string    `json:"ecosystem" validate:"required,oneof=pypi npm"`
	PublishedAt time.Time `json:"published_at" validate:"required"`
}

// Identifier is the dedup identity ecosystem-name
func (r Release) Identifier() string { return r.Ecosystem + "-" + r.Name }

// Source is a restartable release stream. Poll returns releases published
// after since plus the cursor to pass next time
type Source interface {
	Name() string
	Poll(ctx context.Context, since time.Time) ([]Release, time.Time, error)
}

// Resolver maps a package to its repository; failures to find one are
// perr.ErrorCodeUnresolvable
type Resolver interface {
	Resolve(ctx context.Context, ecosystem, name string) (repo.Ref, error)
}

// Multi dispatches by ecosystem
type Multi map[string]Resolver

// Resolve implements Resolver
func (m Multi) Resolve(ctx context.Context, ecosystem, name string) (repo.Ref, error) {
	r, ok := m[strings.ToLower(ecosystem)]
	if !ok {
		return repo.Ref{}, perr.Unresolvablef("no resolver for ecosystem %q", ecosystem)
	}
	return r.Resolve(ctx, ecosystem, name)
}

// fetcher is the shared GET helper for registry endpoints
type fetcher struct {
	http *http.Client
	ua   string
}

func newFetcher(hc *http.Client) fetcher {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return fetcher{http: hc, ua: version.UserAgent()}
}

// get returns the body of a 200 response. 404 is ErrorCodeNotFound, other
// failures are ErrorCodeUnavailable
func (f fetcher) get(ctx context.Context, source, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "%s: new request", source)
	}
	req.Header.Set("User-Agent", f.ua)
	resp, err := f.http.Do(req)
	if err != nil {
		metrics.RegistryPollErrors.WithLabelValues(source).Inc()
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: request failed", source)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, perr.NotFoundf("%s: %s not found", source, url)
	case resp.StatusCode != http.StatusOK:
		metrics.RegistryPollErrors.WithLabelValues(source).Inc()
		return nil, perr.Unavailablef("%s: unexpected status %d", source, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: read body", source)
	}
	return b, nil
}

func (f fetcher) getJSON(ctx context.Context, source, url string, dst any) error {
	b, err := f.get(ctx, source, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeMalformedUpstream, "%s: undecodable body", source)
	}
	return nil
}

// firstRepo returns the first candidate that parses as a GitHub repository
func firstRepo(candidates ...string) (repo.Ref, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if ref, err := ParseRepoURL(c); err == nil {
			return ref, true
		}
	}
	return repo.Ref{}, false
}

func unresolvable(ecosystem, name string, err error) error {
	if err == nil || perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.Unresolvablef("%s package %q has no GitHub repository", ecosystem, name)
	}
	return fmt.Errorf("resolve %s/%s: %w", ecosystem, name, err)
}

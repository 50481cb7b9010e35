package registry

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"
)

const (
	pypiFeedDefault = "https://pypi.org/rss/updates.xml"
	pypiAPIDefault  = "https://pypi.org/pypi"
)

// PyPISource reads the PyPI updates RSS feed
type PyPISource struct {
	FeedURL string
	f       fetcher
	log     logger.Logger
}

// NewPyPISource uses the public feed when feedURL is empty
func NewPyPISource(feedURL string, hc *http.Client) *PyPISource {
	if feedURL == "" {
		feedURL = pypiFeedDefault
	}
	return &PyPISource{FeedURL: feedURL, f: newFetcher(hc), log: *logger.Named("registry.pypi")}
}

// Name implements Source
func (s *PyPISource) Name() string { return PyPI }

type rssFeed struct {
	Items []struct {
		Title   string `xml:"title"`
		Link    string `xml:"link"`
		PubDate string `xml:"pubDate"`
	} `xml:"channel>item"`
}

// Poll implements Source. The feed holds the latest ~100 updates, so a long
// gap between polls loses releases. Items before since are skipped; items in
// since's own second are returned again and left to the package claim
func (s *PyPISource) Poll(ctx context.Context, since time.Time) ([]Release, time.Time, error) {
	body, err := s.f.get(ctx, PyPI, s.FeedURL)
	if err != nil {
		return nil, since, err
	}
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		metrics.RegistryPollErrors.WithLabelValues(PyPI).Inc()
		return nil, since, perr.Wrapf(err, perr.ErrorCodeMalformedUpstream, "pypi: undecodable rss")
	}

	next := since
	var out []Release
	for _, it := range feed.Items {
		at, err := parseRSSTime(it.PubDate)
		if err != nil {
			s.log.Debug().Str("title", it.Title).Str("pub_date", it.PubDate).Msg("pypi item without a usable date")
			continue
		}
		if at.Before(since) {
			continue
		}
		name, ver, _ := strings.Cut(strings.TrimSpace(it.Title), " ")
		out = append(out, Release{Name: name, Version: ver, Ecosystem: PyPI, PublishedAt: at})
		if at.After(next) {
			next = at
		}
	}
	// oldest first so a restart replays in publication order
	slices.SortStableFunc(out, func(a, b Release) int { return a.PublishedAt.Compare(b.PublishedAt) })
	metrics.RegistryReleases.WithLabelValues(PyPI).Add(float64(len(out)))
	return out, next, nil
}

func parseRSSTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z, time.RFC822Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, perr.Malformedf("bad rss date %q", s)
}

// PyPIResolver reads project metadata from the PyPI JSON API
type PyPIResolver struct {
	BaseURL string
	f       fetcher
}

// NewPyPIResolver uses the public API when baseURL is empty
func NewPyPIResolver(baseURL string, hc *http.Client) *PyPIResolver {
	if baseURL == "" {
		baseURL = pypiAPIDefault
	}
	return &PyPIResolver{BaseURL: strings.TrimRight(baseURL, "/"), f: newFetcher(hc)}
}

// preferred project_urls labels, checked before the rest
var pypiLabels = []string{"source", "source code", "repository", "code", "github", "homepage", "home"}

// Resolve implements Resolver
func (r *PyPIResolver) Resolve(ctx context.Context, _ string, name string) (repo.Ref, error) {
	var doc struct {
		Info struct {
			HomePage    string            `json:"home_page"`
			ProjectURLs map[string]string `json:"project_urls"`
		} `json:"info"`
	}
	if err := r.f.getJSON(ctx, PyPI, r.BaseURL+"/"+url.PathEscape(name)+"/json", &doc); err != nil {
		return repo.Ref{}, unresolvable(PyPI, name, err)
	}

	var candidates []string
	byLabel := map[string]string{}
	var labels []string
	for k, v := range doc.Info.ProjectURLs {
		lk := strings.ToLower(strings.TrimSpace(k))
		byLabel[lk] = v
		labels = append(labels, lk)
	}
	for _, l := range pypiLabels {
		if v, ok := byLabel[l]; ok {
			candidates = append(candidates, v)
		}
	}
	slices.Sort(labels)
	for _, l := range labels {
		if !slices.Contains(pypiLabels, l) {
			candidates = append(candidates, byLabel[l])
		}
	}
	candidates = append(candidates, doc.Info.HomePage)

	if ref, ok := firstRepo(candidates...); ok {
		return ref, nil
	}
	return repo.Ref{}, unresolvable(PyPI, name, nil)
}

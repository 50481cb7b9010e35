package registry

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"

	json "github.com/goccy/go-json"
)

const (
	npmChangesDefault  = "https://replicate.npmjs.com/registry/_changes"
	npmRegistryDefault = "https://registry.npmjs.org"
)

// NPMSource follows the CouchDB _changes feed of the npm replica. The feed is
// sequence based; the source keeps the last sequence and stamps releases with
// the poll time
type NPMSource struct {
	ChangesURL string
	Limit      int
	f          fetcher
	log        logger.Logger
	now        func() time.Time

	mu  sync.Mutex
	seq string
}

// NewNPMSource starts from the current end of the feed
func NewNPMSource(changesURL string, hc *http.Client) *NPMSource {
	if changesURL == "" {
		changesURL = npmChangesDefault
	}
	return &NPMSource{
		ChangesURL: changesURL,
		Limit:      500,
		f:          newFetcher(hc),
		log:        *logger.Named("registry.npm"),
		now:        time.Now,
		seq:        "now",
	}
}

// Name implements Source
func (s *NPMSource) Name() string { return NPM }

// Poll implements Source. since only advances the returned cursor; the feed
// position is the stored sequence
func (s *NPMSource) Poll(ctx context.Context, since time.Time) ([]Release, time.Time, error) {
	s.mu.Lock()
	seq := s.seq
	s.mu.Unlock()

	q := url.Values{}
	q.Set("since", seq)
	q.Set("limit", strconv.Itoa(max(s.Limit, 1)))
	var page struct {
		Results []struct {
			ID      string `json:"id"`
			Deleted bool   `json:"deleted"`
		} `json:"results"`
		LastSeq json.RawMessage `json:"last_seq"`
	}
	if err := s.f.getJSON(ctx, NPM, s.ChangesURL+"?"+q.Encode(), &page); err != nil {
		return nil, since, err
	}

	at := s.now().UTC()
	var out []Release
	for _, r := range page.Results {
		if r.Deleted || r.ID == "" || strings.HasPrefix(r.ID, "_design/") {
			continue
		}
		out = append(out, Release{Name: r.ID, Ecosystem: NPM, PublishedAt: at})
	}

	if next := rawSeq(page.LastSeq); next != "" {
		s.mu.Lock()
		s.seq = next
		s.mu.Unlock()
	}
	metrics.RegistryReleases.WithLabelValues(NPM).Add(float64(len(out)))
	if len(out) == 0 {
		return nil, since, nil
	}
	return out, at, nil
}

// rawSeq accepts numeric and string sequences
func rawSeq(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

// NPMResolver reads package documents from the npm registry
type NPMResolver struct {
	BaseURL string
	f       fetcher
}

// NewNPMResolver uses the public registry when baseURL is empty
func NewNPMResolver(baseURL string, hc *http.Client) *NPMResolver {
	if baseURL == "" {
		baseURL = npmRegistryDefault
	}
	return &NPMResolver{BaseURL: strings.TrimRight(baseURL, "/"), f: newFetcher(hc)}
}

// Resolve implements Resolver. repository may be a string or {type,url}
func (r *NPMResolver) Resolve(ctx context.Context, _ string, name string) (repo.Ref, error) {
	var doc struct {
		Repository json.RawMessage `json:"repository"`
		Homepage   string          `json:"homepage"`
		Bugs       struct {
			URL string `json:"url"`
		} `json:"bugs"`
	}
	// scoped names (@scope/pkg) keep the @ and escape the slash
	if err := r.f.getJSON(ctx, NPM, r.BaseURL+"/"+url.PathEscape(name), &doc); err != nil {
		return repo.Ref{}, unresolvable(NPM, name, err)
	}

	var repoURL string
	if len(doc.Repository) > 0 {
		var obj struct {
			URL string `json:"url"`
		}
		if json.Unmarshal(doc.Repository, &obj) == nil && obj.URL != "" {
			repoURL = obj.URL
		} else {
			_ = json.Unmarshal(doc.Repository, &repoURL)
		}
	}
	if ref, ok := firstRepo(repoURL, doc.Homepage, doc.Bugs.URL); ok {
		return ref, nil
	}
	return repo.Ref{}, unresolvable(NPM, name, nil)
}

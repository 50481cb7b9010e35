// Package http serves health, metrics, verdict reads and on-demand analysis
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/core/version"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"
	phttp "github.com/masteryoda101/fake-star-check/internal/platform/net/http"

	ingest "github.com/masteryoda101/fake-star-check/internal/services/ingest/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
)

// Deps are the handler dependencies; Trigger may be nil to disable analysis
// on demand
type Deps struct {
	Service   string
	StartedAt time.Time
	Reader    domain.ReaderPort
	Trigger   ingest.TriggerPort
	Ready     func(ctx context.Context) error
}

type handlers struct{ deps Deps }

// Register mounts every route on r
func Register(r phttp.Router, d Deps) {
	h := &handlers{deps: d}

	phttp.GetJSON(r, "/healthz", h.health)
	r.Get("/readyz", phttp.Handle(h.ready))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(v phttp.Router) {
		phttp.GetJSON(v, "/verdicts", h.list)
		phttp.GetJSON(v, "/verdicts/{owner}/{name}", h.get)
		phttp.PostJSON[AnalyzeRequest](v, "/analyze", h.analyze)
	})
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Service string            `json:"service"`
	Uptime  int64             `json:"uptime_seconds"`
	Build   version.BuildInfo `json:"build"`
}

// AnalyzeRequest asks for one analysis
type AnalyzeRequest struct {
	Repository string `json:"repository" validate:"required,repo_ref"`
	Force      bool   `json:"force"`
}

func (h *handlers) health(*stdhttp.Request) (any, error) {
	build := version.Info(h.deps.Service)
	return HealthResponse{
		Status:  "ok",
		Version: build.Version,
		Service: h.deps.Service,
		Uptime:  int64(time.Since(h.deps.StartedAt).Seconds()),
		Build:   build,
	}, nil
}

func (h *handlers) ready(r *stdhttp.Request) phttp.Response {
	if h.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := h.deps.Ready(ctx); err != nil {
			return phttp.Error(perr.Wrap(err, perr.ErrorCodeUnavailable, "not ready"))
		}
	}
	return phttp.OK(map[string]string{"status": "ready"})
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	ref := repo.Ref{Owner: phttp.Param(r, "owner"), Name: phttp.Param(r, "name")}
	if _, err := repo.Parse(ref.String()); err != nil {
		return nil, err
	}
	return h.deps.Reader.Get(r.Context(), ref)
}

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	f := domain.Filter{}
	if s := q.Get("suspicious"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, perr.WithField(perr.InvalidArgf("suspicious must be a boolean"), "suspicious")
		}
		f.SuspiciousOnly = b
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, perr.WithField(perr.InvalidArgf("limit must be a positive integer"), "limit")
		}
		f.Limit = n
	}
	return h.deps.Reader.List(r.Context(), f)
}

func (h *handlers) analyze(r *stdhttp.Request, in AnalyzeRequest) (any, error) {
	if h.deps.Trigger == nil {
		return nil, perr.Unavailablef("analysis on demand is disabled")
	}
	ref, err := repo.Parse(in.Repository)
	if err != nil {
		return nil, err
	}
	return h.deps.Trigger.AnalyzeNow(r.Context(), ref, in.Force)
}

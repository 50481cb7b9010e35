package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	phttp "github.com/masteryoda101/fake-star-check/internal/platform/net/http"
	kit "github.com/masteryoda101/fake-star-check/internal/platform/testkit"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	vhttp "github.com/masteryoda101/fake-star-check/internal/services/verdicts/http"
	vrepo "github.com/masteryoda101/fake-star-check/internal/services/verdicts/repo"

	json "github.com/goccy/go-json"
)

type fakeTrigger struct {
	got   repo.Ref
	force bool
}

func (f *fakeTrigger) AnalyzeNow(_ context.Context, ref repo.Ref, force bool) (analyze.Verdict, error) {
	f.got, f.force = ref, force
	if ref.Name == "busy" && !force {
		return analyze.Verdict{}, perr.Newf(perr.ErrorCodeConflict, "analyzed recently")
	}
	return analyze.Verdict{Repository: ref, Status: analyze.StatusAnalyzed}, nil
}

func setup(t *testing.T, ready func(context.Context) error) (http.Handler, *fakeTrigger) {
	t.Helper()
	mem := vrepo.NewMemory(10)
	ctx := context.Background()
	_ = mem.Upsert(ctx, analyze.Verdict{
		Repository: repo.Ref{Owner: "acme", Name: "widgets"}, Status: analyze.StatusAnalyzed,
		IsSuspicious: true, AnalyzedAt: time.Now(),
	})
	_ = mem.Upsert(ctx, analyze.Verdict{
		Repository: repo.Ref{Owner: "acme", Name: "tools"}, Status: analyze.StatusAnalyzed,
		AnalyzedAt: time.Now().Add(-time.Hour),
	})

	trig := &fakeTrigger{}
	srv := phttp.NewServer(config.New())
	vhttp.Register(srv.Router(), vhttp.Deps{
		Service: "starcheck-test", StartedAt: time.Now(), Reader: mem, Trigger: trig, Ready: ready,
	})
	return srv.Router().Mux(), trig
}

func do(h http.Handler, method, path, body string) (*httptest.ResponseRecorder, phttp.Envelope) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env phttp.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHealthAndReady(t *testing.T) {
	h, _ := setup(t, nil)
	rec, _ := do(h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	kit.MustContain(t, rec.Body.String(), `"status":"ok"`)

	rec, _ = do(h, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	down, _ := setup(t, func(context.Context) error { return errors.New("pg down") })
	rec, env := do(down, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable || env.Code != perr.ErrorCodeUnavailable {
		t.Fatalf("readyz down = %d %+v", rec.Code, env)
	}
}

func TestMetricsExposed(t *testing.T) {
	h, _ := setup(t, nil)
	rec, _ := do(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	kit.MustContain(t, rec.Body.String(), "go_goroutines")
}

func TestGetVerdict(t *testing.T) {
	h, _ := setup(t, nil)
	rec, env := do(h, http.MethodGet, "/v1/verdicts/Acme/Widgets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	data, _ := env.Data.(map[string]any)
	if data["is_suspicious"] != true {
		t.Fatalf("data = %v", env.Data)
	}

	rec, env = do(h, http.MethodGet, "/v1/verdicts/acme/missing", "")
	if rec.Code != http.StatusNotFound || env.Code != perr.ErrorCodeNotFound {
		t.Fatalf("missing = %d %+v", rec.Code, env)
	}
}

func TestListVerdicts(t *testing.T) {
	h, _ := setup(t, nil)
	_, env := do(h, http.MethodGet, "/v1/verdicts?suspicious=true", "")
	if list, _ := env.Data.([]any); len(list) != 1 {
		t.Fatalf("suspicious list = %v", env.Data)
	}
	_, env = do(h, http.MethodGet, "/v1/verdicts?limit=5", "")
	if list, _ := env.Data.([]any); len(list) != 2 {
		t.Fatalf("list = %v", env.Data)
	}
	rec, _ := do(h, http.MethodGet, "/v1/verdicts?limit=zero", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad limit = %d", rec.Code)
	}
}

func TestAnalyzeOnDemand(t *testing.T) {
	h, trig := setup(t, nil)

	rec, _ := do(h, http.MethodPost, "/v1/analyze", `{"repository":"acme/new","force":true}`)
	if rec.Code != http.StatusOK || trig.got.String() != "acme/new" || !trig.force {
		t.Fatalf("analyze = %d got %v force %v", rec.Code, trig.got, trig.force)
	}

	rec, env := do(h, http.MethodPost, "/v1/analyze", `{"repository":"acme/busy"}`)
	if rec.Code != http.StatusConflict || env.Code != perr.ErrorCodeConflict {
		t.Fatalf("busy = %d %+v", rec.Code, env)
	}

	rec, env = do(h, http.MethodPost, "/v1/analyze", `{"repository":"not a repo"}`)
	if rec.Code != http.StatusBadRequest || env.Code != perr.ErrorCodeValidation {
		t.Fatalf("invalid = %d %+v", rec.Code, env)
	}
}

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
)

func newTestClient(t *testing.T, h http.Handler, o Options) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	o.BaseURL = srv.URL
	o.RetryBase = time.Millisecond
	c := NewClient(o)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c, srv
}

func TestStargazersFollowsNextAndSkipsMalformed(t *testing.T) {
	var accepts []string
	var mu sync.Mutex
	var srvURL string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		accepts = append(accepts, r.Header.Get("Accept"))
		mu.Unlock()
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repositories/1/stargazers?per_page=100&page=2>; rel="next", <%s/x?page=9>; rel="last"`, srvURL, srvURL))
			fmt.Fprint(w, `[{"starred_at":"2024-01-01T10:00:00Z","user":{"login":"a"}},{"user":{"login":"no-time"}}]`)
		case "2":
			fmt.Fprint(w, `[{"starred_at":"2024-01-02T10:00:00Z","user":{"login":"b"}},{"starred_at":"2024-01-02T11:00:00Z","user":null}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.RawQuery)
		}
	})
	c, srv := newTestClient(t, h, Options{})
	srvURL = srv.URL

	stars, err := c.Stargazers(context.Background(), repo.Ref{Owner: "o", Name: "n"})
	if err != nil {
		t.Fatalf("Stargazers: %v", err)
	}
	if len(stars) != 2 || stars[0].Login != "a" || stars[1].Login != "b" {
		t.Fatalf("stars = %+v", stars)
	}
	for _, a := range accepts {
		if a != acceptStar {
			t.Fatalf("accept = %q", a)
		}
	}
}

func TestHeadersAreFreshPerRequest(t *testing.T) {
	var auths [][]string
	var mu sync.Mutex
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auths = append(auths, r.Header.Values("Authorization"))
		mu.Unlock()
		fmt.Fprint(w, `{"login":"x"}`)
	})
	c, _ := newTestClient(t, h, Options{TokensCSV: "tok-a, tok-b"})

	for range 4 {
		if _, err := c.UserProfile(context.Background(), "x"); err != nil {
			t.Fatalf("UserProfile: %v", err)
		}
	}
	seen := map[string]int{}
	for _, a := range auths {
		if len(a) != 1 {
			t.Fatalf("authorization values leaked across requests: %v", a)
		}
		seen[a[0]]++
	}
	if seen["Bearer tok-a"] != 2 || seen["Bearer tok-b"] != 2 {
		t.Fatalf("rotation = %v", seen)
	}
}

func TestNotFoundIsCoded(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler(), Options{})
	_, err := c.Repository(context.Background(), repo.Ref{Owner: "gone", Name: "away"})
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"full_name":"o/n","stargazers_count":77}`)
	})
	c, _ := newTestClient(t, h, Options{MaxRetries: 4})
	r, err := c.Repository(context.Background(), repo.Ref{Owner: "o", Name: "n"})
	if err != nil || r.Stargazers != 77 {
		t.Fatalf("repo=%+v err=%v", r, err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestRateLimitWaitsThenRetries(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprint(time.Now().Add(time.Minute).Unix()))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"login":"x"}`)
	})
	c, _ := newTestClient(t, h, Options{})
	var slept time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error { slept = d; return nil }

	if _, err := c.UserProfile(context.Background(), "x"); err != nil {
		t.Fatalf("UserProfile: %v", err)
	}
	if slept < 30*time.Second {
		t.Fatalf("expected to wait for reset, slept %v", slept)
	}
}

func TestPlainForbiddenIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})
	c, _ := newTestClient(t, h, Options{})
	if _, err := c.UserProfile(context.Background(), "x"); err == nil || perr.Transient(err) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c, _ := newTestClient(t, h, Options{MaxRetries: -1, BreakerFailures: 2, BreakerTimeout: time.Hour})

	for range 2 {
		_, err := c.UserProfile(context.Background(), "x")
		if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
			t.Fatalf("err = %v", err)
		}
	}
	_, err := c.UserProfile(context.Background(), "x")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || !strings.Contains(err.Error(), "circuit open") {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("open breaker still reached the server: %d calls", calls.Load())
	}
}

func TestUserNullableFields(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"ghost","email":null,"hireable":null,"bio":null,"twitter_username":null,"blog":"",
			"followers":0,"following":0,"public_repos":1,"public_gists":0,"created_at":"2023-01-01T05:00:00Z"}`)
	})
	c, _ := newTestClient(t, h, Options{})
	u, err := c.UserProfile(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("UserProfile: %v", err)
	}
	f := u.Fields()
	if f.Email != "" || f.Hireable || f.CreatedAt.IsZero() {
		t.Fatalf("fields = %+v", f)
	}
}

func TestMalformedBody(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{"login":`) })
	c, _ := newTestClient(t, h, Options{})
	if _, err := c.UserProfile(context.Background(), "x"); !perr.IsCode(err, perr.ErrorCodeMalformedUpstream) {
		t.Fatalf("err = %v", err)
	}
}

func TestContinuationOffHostRejected(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<https://evil.example/steal?page=2>; rel="next"`)
		fmt.Fprint(w, `[]`)
	})
	c, _ := newTestClient(t, h, Options{})
	if _, err := c.StarredRepos(context.Background(), "x"); !perr.IsCode(err, perr.ErrorCodeMalformedUpstream) {
		t.Fatalf("err = %v", err)
	}
}

func TestNextLink(t *testing.T) {
	h := http.Header{}
	if nextLink(h) != "" {
		t.Fatalf("empty header")
	}
	h.Set("Link", `<https://api.github.com/x?page=1>; rel="prev", <https://api.github.com/x?page=3>; rel="next"`)
	if got := nextLink(h); got != "https://api.github.com/x?page=3" {
		t.Fatalf("next = %q", got)
	}
}

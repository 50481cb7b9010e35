package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
)

func TestParseRepoURL(t *testing.T) {
	want := repo.Ref{Owner: "octo", Name: "hello-world"}
	good := []string{
		"https://github.com/octo/hello-world",
		"https://github.com/octo/hello-world.git",
		"http://www.github.com/octo/hello-world/",
		"git+https://github.com/octo/hello-world.git",
		"git://github.com/octo/hello-world.git",
		"ssh://git@github.com/octo/hello-world.git",
		"git+ssh://git@github.com/octo/hello-world.git",
		"git@github.com:octo/hello-world.git",
		"github:octo/hello-world",
		"octo/hello-world",
		"github.com/octo/hello-world",
		"https://github.com/octo/hello-world/tree/main/packages/core",
		"https://github.com/octo/hello-world#readme",
		"https://github.com/octo/hello-world/issues",
		"  https://GitHub.com/octo/hello-world  ",
	}
	for _, in := range good {
		got, err := ParseRepoURL(in)
		if err != nil || got != want {
			t.Fatalf("ParseRepoURL(%q) = %+v, %v", in, got, err)
		}
	}

	bad := []string{
		"",
		"https://gitlab.com/octo/hello-world",
		"https://github.com/octo",
		"https://github.com/sponsors/octo",
		"https://example.org",
		"octo/hello/world",
		"file:../local",
		"bitbucket:octo/x",
		"https://github.com/-bad-/x",
	}
	for _, in := range bad {
		if _, err := ParseRepoURL(in); !perr.IsCode(err, perr.ErrorCodeUnresolvable) {
			t.Fatalf("ParseRepoURL(%q) err = %v", in, err)
		}
	}
}

const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>PyPI recent updates</title>
<item><title>newer 2.0.1</title><link>https://pypi.org/project/newer/2.0.1/</link><pubDate>Tue, 02 Jan 2024 10:05:00 GMT</pubDate></item>
<item><title>older 1.0</title><link>https://pypi.org/project/older/1.0/</link><pubDate>Tue, 02 Jan 2024 10:00:00 GMT</pubDate></item>
<item><title>stale 0.1</title><link>https://pypi.org/project/stale/0.1/</link><pubDate>Mon, 01 Jan 2024 09:00:00 GMT</pubDate></item>
<item><title>undated 0.2</title><pubDate>yesterday</pubDate></item>
</channel></rss>`

func TestPyPISourcePollsSinceCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, rss) }))
	defer srv.Close()

	src := NewPyPISource(srv.URL, srv.Client())
	since := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rels, next, err := src.Poll(context.Background(), since)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(rels) != 2 || rels[0].Name != "older" || rels[1].Name != "newer" || rels[1].Version != "2.0.1" {
		t.Fatalf("releases = %+v", rels)
	}
	if !next.Equal(time.Date(2024, 1, 2, 10, 5, 0, 0, time.UTC)) {
		t.Fatalf("next = %v", next)
	}
	if rels[0].Identifier() != "pypi-older" {
		t.Fatalf("identifier = %q", rels[0].Identifier())
	}

	rels, again, err := src.Poll(context.Background(), next)
	if err != nil || len(rels) != 1 || rels[0].Name != "newer" || !again.Equal(next) {
		t.Fatalf("second poll = %+v %v %v", rels, again, err)
	}
}

func TestPyPISourceKeepsItemsInTheCursorSecond(t *testing.T) {
	feed := `<rss version="2.0"><channel>
<item><title>late 1.0</title><pubDate>Tue, 02 Jan 2024 10:05:00 GMT</pubDate></item>
<item><title>newer 2.0.1</title><pubDate>Tue, 02 Jan 2024 10:05:00 GMT</pubDate></item>
<item><title>older 1.0</title><pubDate>Tue, 02 Jan 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, feed) }))
	defer srv.Close()

	cursor := time.Date(2024, 1, 2, 10, 5, 0, 0, time.UTC)
	rels, next, err := NewPyPISource(srv.URL, srv.Client()).Poll(context.Background(), cursor)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(rels) != 2 || rels[0].Name != "late" || rels[1].Name != "newer" {
		t.Fatalf("releases = %+v", rels)
	}
	if !next.Equal(cursor) {
		t.Fatalf("next = %v", next)
	}
}

func TestPyPISourceBadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "<rss><channel>") }))
	defer srv.Close()
	if _, _, err := NewPyPISource(srv.URL, nil).Poll(context.Background(), time.Time{}); !perr.IsCode(err, perr.ErrorCodeMalformedUpstream) {
		t.Fatalf("err = %v", err)
	}
}

func TestPyPIResolver(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pypi/labelled/json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"info":{"home_page":"https://example.org","project_urls":{"Documentation":"https://docs.example.org","Source":"https://github.com/acme/labelled"}}}`)
	})
	mux.HandleFunc("/pypi/homepage/json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"info":{"home_page":"https://github.com/acme/homepage","project_urls":null}}`)
	})
	mux.HandleFunc("/pypi/nowhere/json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"info":{"home_page":"https://example.org"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewPyPIResolver(srv.URL+"/pypi", nil)
	ctx := context.Background()
	if ref, err := r.Resolve(ctx, PyPI, "labelled"); err != nil || ref.String() != "acme/labelled" {
		t.Fatalf("labelled = %v %v", ref, err)
	}
	if ref, err := r.Resolve(ctx, PyPI, "homepage"); err != nil || ref.String() != "acme/homepage" {
		t.Fatalf("homepage = %v %v", ref, err)
	}
	for _, name := range []string{"nowhere", "missing"} {
		if _, err := r.Resolve(ctx, PyPI, name); !perr.IsCode(err, perr.ErrorCodeUnresolvable) {
			t.Fatalf("%s err = %v", name, err)
		}
	}
}

func TestNPMSourceTracksSequence(t *testing.T) {
	var sinces []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sinces = append(sinces, r.URL.Query().Get("since"))
		if len(sinces) == 1 {
			fmt.Fprint(w, `{"results":[{"seq":41,"id":"left-pad"},{"seq":42,"id":"gone","deleted":true},{"seq":43,"id":"_design/app"}],"last_seq":43}`)
			return
		}
		fmt.Fprint(w, `{"results":[],"last_seq":"43"}`)
	}))
	defer srv.Close()

	src := NewNPMSource(srv.URL, nil)
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return fixed }

	rels, next, err := src.Poll(context.Background(), time.Time{})
	if err != nil || len(rels) != 1 || rels[0].Name != "left-pad" || !next.Equal(fixed) {
		t.Fatalf("first poll = %+v %v %v", rels, next, err)
	}
	if _, again, err := src.Poll(context.Background(), next); err != nil || !again.Equal(next) {
		t.Fatalf("second poll cursor = %v %v", again, err)
	}
	if sinces[0] != "now" || sinces[1] != "43" {
		t.Fatalf("since params = %v", sinces)
	}
}

func TestNPMResolverShapes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/object", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"repository":{"type":"git","url":"git+https://github.com/acme/object.git"}}`)
	})
	mux.HandleFunc("/shorthand", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"repository":"acme/shorthand"}`)
	})
	mux.HandleFunc("/bugs-only", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"bugs":{"url":"https://github.com/acme/bugs/issues"}}`)
	})
	mux.HandleFunc("/gitlab", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"repository":{"url":"https://gitlab.com/acme/x"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := Multi{NPM: NewNPMResolver(srv.URL, nil)}
	ctx := context.Background()
	for name, want := range map[string]string{"object": "acme/object", "shorthand": "acme/shorthand", "bugs-only": "acme/bugs"} {
		ref, err := res.Resolve(ctx, NPM, name)
		if err != nil || ref.String() != want {
			t.Fatalf("%s = %v %v", name, ref, err)
		}
	}
	if _, err := res.Resolve(ctx, NPM, "gitlab"); !perr.IsCode(err, perr.ErrorCodeUnresolvable) {
		t.Fatalf("gitlab err = %v", err)
	}
	if _, err := res.Resolve(ctx, "cargo", "serde"); !perr.IsCode(err, perr.ErrorCodeUnresolvable) {
		t.Fatalf("unknown ecosystem err = %v", err)
	}
}

func TestResolverTransportErrorIsNotUnresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := NewNPMResolver(srv.URL, nil).Resolve(context.Background(), NPM, "x")
	if perr.IsCode(err, perr.ErrorCodeUnresolvable) || !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

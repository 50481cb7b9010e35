package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	kit "github.com/masteryoda101/fake-star-check/internal/platform/testkit"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/verdicts/domain"
	vrepo "github.com/masteryoda101/fake-star-check/internal/services/verdicts/repo"

	"github.com/rs/zerolog"
)

type gatedWriter struct {
	gate    chan struct{}
	mu      sync.Mutex
	started int
	got     []string
	health  int
	fail    bool
}

func (w *gatedWriter) Name() string { return "gated" }

func (w *gatedWriter) WriteVerdict(_ context.Context, v analyze.Verdict) error {
	w.mu.Lock()
	w.started++
	w.mu.Unlock()
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.got = append(w.got, v.Repository.Name)
	if w.fail {
		return errors.New("write failed")
	}
	return nil
}

func (w *gatedWriter) WriteHealth(context.Context, domain.Health) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.health++
	return nil
}

func (w *gatedWriter) snapshot() (int, []string, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started, append([]string(nil), w.got...), w.health
}

func verdict(name string) analyze.Verdict {
	return analyze.Verdict{Repository: repo.Ref{Owner: "acme", Name: name}, Status: analyze.StatusAnalyzed}
}

func TestFanOutDropsWhenFullAndFlushesOnClose(t *testing.T) {
	w := &gatedWriter{gate: make(chan struct{})}
	f := NewFanOut(1, time.Second, w)

	f.Emit(verdict("one"))
	kit.Eventually(t, time.Second, func() bool { s, _, _ := w.snapshot(); return s == 1 }, "first write started")

	done := make(chan struct{})
	go func() {
		f.Emit(verdict("two"))
		f.Emit(verdict("three"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Emit blocked on a full buffer")
	}

	close(w.gate)
	if err := f.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, got, _ := w.snapshot()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("written = %v, want [one two]", got)
	}

	f.Emit(verdict("late"))
	f.Health(domain.Health{})
}

func TestFanOutWritesToEveryWriterAndSurvivesErrors(t *testing.T) {
	bad := &gatedWriter{fail: true}
	good := &gatedWriter{}
	f := NewFanOut(8, time.Second, bad, good)

	f.Emit(verdict("a"))
	f.Health(domain.Health{QueueDepth: 1})
	f.Emit(verdict("b"))
	if err := f.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	for name, w := range map[string]*gatedWriter{"bad": bad, "good": good} {
		_, got, health := w.snapshot()
		if len(got) != 2 || health != 1 {
			t.Fatalf("%s writer got %v health %d", name, got, health)
		}
	}
}

func TestConsoleOutcomes(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(zerolog.New(&buf))
	ctx := context.Background()

	sus := verdict("bad")
	sus.IsSuspicious = true
	sus.CohortSuspicious = true
	_ = c.WriteVerdict(ctx, sus)

	inc := verdict("flaky")
	inc.Status = analyze.StatusInconclusive
	inc.Reason = "stargazers: github 502"
	_ = c.WriteVerdict(ctx, inc)

	degraded := verdict("blind")
	degraded.Status = analyze.StatusInconclusive
	degraded.ProfileFailures = 100
	degraded.Reason = "profiles: 100 of 100 fetches failed"
	_ = c.WriteVerdict(ctx, degraded)

	_ = c.WriteVerdict(ctx, verdict("fine"))

	out := buf.String()
	kit.MustContain(t, out, `"level":"warn"`)
	kit.MustContain(t, out, `"outcome":"suspicious"`)
	kit.MustContain(t, out, `"outcome":"inconclusive"`)
	kit.MustContain(t, out, `"reason":"stargazers: github 502"`)
	kit.MustContain(t, out, `"profile_failures":100`)
	kit.MustContain(t, out, `"reason":"profiles: 100 of 100 fetches failed"`)
	kit.MustContain(t, out, `"outcome":"clean"`)
}

func TestStoreWriterUpserts(t *testing.T) {
	mem := vrepo.NewMemory(10)
	w := NewStoreWriter("memory", mem)
	if err := w.WriteVerdict(context.Background(), verdict("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := mem.Get(context.Background(), repo.Ref{Owner: "ACME", Name: "X"}); err != nil {
		t.Fatalf("get: %v", err)
	}
	if w.Name() != "memory" {
		t.Fatalf("name = %q", w.Name())
	}
}

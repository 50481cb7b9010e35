package repokit

import (
	"context"
	"errors"
	"testing"

	kit "github.com/masteryoda101/fake-star-check/internal/platform/testkit"
)

type guardFunc func(context.Context) error

func (g guardFunc) Guard(ctx context.Context) error { return g(ctx) }

func TestMustBind(t *testing.T) {
	b := BindFunc[string](func(Queryer) string { return "bound" })
	kit.MustPanic(t, func() { _ = MustBind[string](b, nil) })
	if got := b.Bind(nil); got != "bound" {
		t.Fatalf("Bind = %q", got)
	}
}

func TestMustGuard(t *testing.T) {
	var hadDeadline bool
	MustGuard(context.Background(), guardFunc(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}))
	if !hadDeadline {
		t.Fatalf("MustGuard should add a deadline")
	}
	kit.MustPanic(t, func() {
		MustGuard(context.Background(), guardFunc(func(context.Context) error { return errors.New("down") }))
	})
}

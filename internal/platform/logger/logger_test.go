package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	kit "github.com/masteryoda101/fake-star-check/internal/platform/testkit"

	"github.com/rs/zerolog"
)

// root is initialized once per process; every test in this file shares buf
var buf bytes.Buffer

func init() {
	Init(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "starcheck-test",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "test"},
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warn ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"nonsense": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNamedAndRequestScoped(t *testing.T) {
	kit.Serial(t)
	buf.Reset()

	Named("ingest").Info().Msg("named-msg")
	ctx := WithRequest(context.Background(), "req-123")
	C(ctx).Info().Msg("ctx-msg")
	C(context.Background()).Info().Msg("ctx-empty")

	out := buf.String()
	kit.MustContain(t, out, `"component":"ingest"`)
	kit.MustContain(t, out, `"request_id":"req-123"`)
	kit.MustContain(t, out, `"service":"starcheck-test"`)
	kit.MustContain(t, out, `"build":"test"`)
	kit.MustContain(t, out, "ctx-empty")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "svc-b")
	t.Setenv("LOG_CALLER", "yes")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Service != "svc-b" {
		t.Fatalf("FromEnv fields mismatch: %+v", opt)
	}
	if !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("FromEnv caller/sample mismatch: %+v", opt)
	}
}

func TestSlogBridge(t *testing.T) {
	kit.Serial(t)
	buf.Reset()

	sl := Slog("supervisor").With("tree", "starcheck").WithGroup("svc")
	sl.Warn("service restarted", "name", "pipeline", "attempt", 2)

	out := buf.String()
	kit.MustContain(t, out, `"level":"warn"`)
	kit.MustContain(t, out, `"component":"supervisor"`)
	kit.MustContain(t, out, `"tree":"starcheck"`)
	kit.MustContain(t, out, `"svc.name":"pipeline"`)
	kit.MustContain(t, out, `"svc.attempt":2`)

	h := NewSlogHandler(zerolog.New(&buf).Level(zerolog.ErrorLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be disabled on an error logger")
	}
}

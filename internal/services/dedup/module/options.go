package module

import (
	"time"

	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
)

// Backends
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendPG     = "pg"
)

// Options selects and tunes the claim store
type Options struct {
	Backend   string
	BadgerDir string
	TTL       time.Duration
}

// FromConfig reads options using the DEDUP_ prefix
func FromConfig(cfg config.Conf, defaultBackend string) Options {
	d := cfg.Prefix("DEDUP_")
	return Options{
		Backend:   d.MayEnum("BACKEND", defaultBackend, BackendMemory, BackendBadger, BackendPG),
		BadgerDir: d.MayString("BADGER_DIR", "./data/dedup"),
		TTL:       d.MayDuration("TTL", domain.DefaultTTL),
	}
}

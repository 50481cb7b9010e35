package module

import (
	"time"

	"github.com/masteryoda101/fake-star-check/internal/adapters/registry"
	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
)

// Options holds pipeline and registry settings
type Options struct {
	Workers      int
	QueueSize    int
	PollInterval time.Duration
	HealthEvery  time.Duration
	ClaimTTL     time.Duration
	Sources      []string

	PyPIFeedURL    string
	PyPIBaseURL    string
	NPMChangesURL  string
	NPMRegistryURL string
	HTTPTimeout    time.Duration
}

// FromConfig reads INGEST_* and REGISTRY_* keys
func FromConfig(cfg config.Conf) Options {
	in := cfg.Prefix("INGEST_")
	reg := cfg.Prefix("REGISTRY_")
	return Options{
		Workers:      in.MayInt("WORKERS", 10),
		QueueSize:    in.MayInt("QUEUE_SIZE", 100),
		PollInterval: in.MayDuration("POLL_INTERVAL", time.Minute),
		HealthEvery:  in.MayDuration("HEALTH_EVERY", 15*time.Second),
		ClaimTTL:     cfg.Prefix("DEDUP_").MayDuration("TTL", domain.DefaultTTL),
		Sources:      in.MayCSV("SOURCES", []string{registry.PyPI, registry.NPM}),

		PyPIFeedURL:    reg.MayString("PYPI_FEED_URL", ""),
		PyPIBaseURL:    reg.MayString("PYPI_BASE_URL", ""),
		NPMChangesURL:  reg.MayString("NPM_CHANGES_URL", ""),
		NPMRegistryURL: reg.MayString("NPM_REGISTRY_URL", ""),
		HTTPTimeout:    reg.MayDuration("HTTP_TIMEOUT", 20*time.Second),
	}
}

package module

import (
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/burst"
	"github.com/masteryoda101/fake-star-check/internal/core/cohort"
	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	"github.com/masteryoda101/fake-star-check/internal/services/analyze/service"
)

// Options holds the analyzer tunables
type Options struct {
	GateMinStars       int
	CohortAlwaysBelow  int
	ProfileConcurrency int
	FlagBurstAlone     bool
	Timeline           bool

	MaxProfileFailureShare float64

	BurstWindow     time.Duration
	BurstThreshold  float64
	BurstMinEvents  int
	CohortThreshold float64
	CohortReportMin int
	CohortSignals   int
}

// FromConfig reads ANALYZE_* keys. gate is the binary's default stargazer gate
func FromConfig(cfg config.Conf, gate, reportMin int) Options {
	a := cfg.Prefix("ANALYZE_")
	return Options{
		GateMinStars:       a.MayInt("GATE_MIN_STARS", gate),
		CohortAlwaysBelow:  a.MayInt("COHORT_ALWAYS_BELOW", 1000),
		ProfileConcurrency: a.MayInt("PROFILE_CONCURRENCY", 4),
		FlagBurstAlone:     a.MayBool("FLAG_BURST_ALONE", false),
		Timeline:           a.MayBool("TIMELINE", true),

		MaxProfileFailureShare: a.MayFloat64("MAX_PROFILE_FAILURE_SHARE", service.DefaultMaxProfileFailureShare),

		BurstWindow:     a.MayDuration("BURST_WINDOW", burst.DefaultWindow),
		BurstThreshold:  a.MayFloat64("BURST_THRESHOLD", burst.DefaultThreshold),
		BurstMinEvents:  a.MayInt("BURST_MIN_EVENTS", burst.DefaultMinEvents),
		CohortThreshold: a.MayFloat64("COHORT_THRESHOLD", cohort.DefaultThreshold),
		CohortReportMin: a.MayInt("COHORT_REPORT_MIN", reportMin),
		CohortSignals:   a.MayInt("COHORT_MIN_SIGNALS", cohort.SignalCount),
	}
}

// Package domain defines the analysis verdict and the analyzer ports
package domain

import (
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/cohort"
	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	"github.com/masteryoda101/fake-star-check/internal/core/timeline"

	"github.com/google/uuid"
)

// Status says how far an analysis got
type Status string

// Statuses
const (
	// StatusAnalyzed: every applicable check ran
	StatusAnalyzed Status = "analyzed"
	// StatusNotAnalyzed: below the stargazer gate, nothing was fetched past
	// the repository document
	StatusNotAnalyzed Status = "not_analyzed"
	// StatusInconclusive: the repository or its stargazers could not be read
	StatusInconclusive Status = "inconclusive"
)

// Outcomes as reported to operators
const (
	OutcomeSuspicious   = "suspicious"
	OutcomeClean        = "clean"
	OutcomeInconclusive = "inconclusive"
	OutcomeNotAnalyzed  = "not_analyzed"
)

// Common is one commonly starred repository
type Common struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Verdict is the immutable result of one analysis
type Verdict struct {
	RunID      uuid.UUID `json:"run_id"`
	Repository repo.Ref  `json:"repository"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	// TotalStargazers is the repository count until stargazers are fetched,
	// then the number of star events analyzed
	TotalStargazers int `json:"total_stargazers"`

	MaxBurstCount    int       `json:"max_burst_count"`
	BurstWindowHours float64   `json:"burst_window_hours"`
	BurstRatio       float64   `json:"burst_ratio"`
	BurstSuspicious  bool      `json:"burst_suspicious"`
	BurstWindowStart time.Time `json:"burst_window_start"`

	CohortSkipped           bool            `json:"cohort_skipped"`
	CohortSuspects          int             `json:"cohort_suspects"`
	CohortSuspectPercentage float64         `json:"cohort_suspect_percentage"`
	CohortSuspicious        bool            `json:"cohort_suspicious"`
	Cohorts                 []cohort.Cohort `json:"cohorts,omitempty"`
	SuspectLogins           []string        `json:"suspect_logins,omitempty"`
	ProfileFailures         int             `json:"profile_failures"`

	CommonlyStarredRepos map[string]Common `json:"commonly_starred_repos,omitempty"`

	IsSuspicious bool              `json:"is_suspicious"`
	Timeline     *timeline.Summary `json:"timeline,omitempty"`
}

// Outcome collapses status and suspicion into one label
func (v Verdict) Outcome() string {
	switch v.Status {
	case StatusNotAnalyzed:
		return OutcomeNotAnalyzed
	case StatusInconclusive:
		return OutcomeInconclusive
	}
	if v.IsSuspicious {
		return OutcomeSuspicious
	}
	return OutcomeClean
}

// Package cohort scores stargazer accounts by join date and low-trust signals
package cohort

import (
	"slices"
	"time"
)

// DayLayout is the civil-date key cohorts are grouped by
const DayLayout = "2006-01-02"

// UserFields is the subset of a public profile the signals read
type UserFields struct {
	Login       string
	CreatedAt   time.Time
	PublicRepos int
	Followers   int
	Following   int
	PublicGists int
	Email       string
	Hireable    bool
	Bio         string
	Blog        string
	Twitter     string
}

// Signals are the nine low-trust indicators
type Signals struct {
	FewerThanTwoPublicRepos bool
	FewerThanTwoFollowers   bool
	FewerThanTwoFollowing   bool
	ZeroPublicGists         bool
	NoEmail                 bool
	NotHireable             bool
	NoBio                   bool
	NoBlogURL               bool
	NoSocialHandle          bool
}

// SignalCount is the number of fields on Signals
const SignalCount = 9

// SignalsOf derives signals from profile fields
func SignalsOf(u UserFields) Signals {
	return Signals{
		FewerThanTwoPublicRepos: u.PublicRepos < 2,
		FewerThanTwoFollowers:   u.Followers < 2,
		FewerThanTwoFollowing:   u.Following < 2,
		ZeroPublicGists:         u.PublicGists == 0,
		NoEmail:                 u.Email == "",
		NotHireable:             !u.Hireable,
		NoBio:                   u.Bio == "",
		NoBlogURL:               u.Blog == "",
		NoSocialHandle:          u.Twitter == "",
	}
}

// Count returns how many signals are set
func (s Signals) Count() int {
	n := 0
	for _, b := range [...]bool{
		s.FewerThanTwoPublicRepos, s.FewerThanTwoFollowers, s.FewerThanTwoFollowing,
		s.ZeroPublicGists, s.NoEmail, s.NotHireable,
		s.NoBio, s.NoBlogURL, s.NoSocialHandle,
	} {
		if b {
			n++
		}
	}
	return n
}

// IsSuspect is the strict conjunction of all nine signals
func (s Signals) IsSuspect() bool { return s.Count() == SignalCount }

// Policy decides suspicion from signals; MinSignals 0 means all nine
type Policy struct {
	MinSignals int
}

// Suspect applies the policy
func (p Policy) Suspect(s Signals) bool {
	if p.MinSignals <= 0 || p.MinSignals >= SignalCount {
		return s.IsSuspect()
	}
	return s.Count() >= p.MinSignals
}

// Profile is one scored account. JoinDate is empty when the profile could
// not be fetched; such accounts never count as suspects
type Profile struct {
	Login    string
	JoinDate string
	Signals  Signals
}

// NewProfile builds a Profile from fetched fields
func NewProfile(u UserFields) Profile {
	p := Profile{Login: u.Login, Signals: SignalsOf(u)}
	if !u.CreatedAt.IsZero() {
		p.JoinDate = u.CreatedAt.UTC().Format(DayLayout)
	}
	return p
}

// Config for Score. Negative Threshold or ReportMinSize take the defaults;
// zero is honoured (any suspect is suspicious, every cohort is listed)
type Config struct {
	// Threshold in percent; strictly above it is suspicious
	Threshold float64
	// ReportMinSize: cohorts are listed only when larger than this
	ReportMinSize int
	Policy        Policy
}

// Defaults
const (
	DefaultThreshold     = 15.0
	DefaultReportMinSize = 5
)

// DefaultConfig returns the default threshold and reporting minimum
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold, ReportMinSize: DefaultReportMinSize}
}

func (c Config) withDefaults() Config {
	if c.Threshold < 0 {
		c.Threshold = DefaultThreshold
	}
	if c.ReportMinSize < 0 {
		c.ReportMinSize = DefaultReportMinSize
	}
	return c
}

// Cohort is one reported join-date group
type Cohort struct {
	Date     string `json:"date"`
	Users    int    `json:"users"`
	Suspects int    `json:"suspects"`
}

// Result of Score
type Result struct {
	Total         int
	Suspects      int
	Percentage    float64
	Suspicious    bool
	Cohorts       []Cohort
	SuspectLogins []string
}

// Score groups profiles by join date. Suspects are counted across every
// cohort; only the reported breakdown is filtered by ReportMinSize
func Score(profiles []Profile, totalStargazers int, cfg Config) Result {
	cfg = cfg.withDefaults()
	res := Result{Total: totalStargazers}

	groups := map[string]*Cohort{}
	for _, p := range profiles {
		if p.JoinDate == "" {
			continue
		}
		c, ok := groups[p.JoinDate]
		if !ok {
			c = &Cohort{Date: p.JoinDate}
			groups[p.JoinDate] = c
		}
		c.Users++
		if cfg.Policy.Suspect(p.Signals) {
			c.Suspects++
			res.Suspects++
			res.SuspectLogins = append(res.SuspectLogins, p.Login)
		}
	}

	for _, c := range groups {
		if c.Users > cfg.ReportMinSize && c.Suspects > 0 {
			res.Cohorts = append(res.Cohorts, *c)
		}
	}
	slices.SortFunc(res.Cohorts, func(a, b Cohort) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	slices.Sort(res.SuspectLogins)

	if totalStargazers > 0 {
		res.Percentage = float64(res.Suspects) * 100 / float64(totalStargazers)
	}
	res.Suspicious = res.Percentage > cfg.Threshold
	return res
}

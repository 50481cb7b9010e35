// Package collusion finds repositories that many suspect accounts star together
package collusion

import (
	"slices"
	"strings"
)

// Repo is one commonly starred repository
type Repo struct {
	FullName   string  `json:"full_name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Correlate counts, per repository, how many suspects starred it. Each
// suspect counts once per repository. Repositories starred by a single
// suspect and the excluded repository (compared case-insensitively) are
// omitted. Percentages are over totalSuspects, which includes suspects whose
// starred list could not be fetched
func Correlate(starred map[string][]string, exclude string, totalSuspects int) []Repo {
	counts := map[string]int{}
	for _, repos := range starred {
		seen := make(map[string]struct{}, len(repos))
		for _, name := range repos {
			if name == "" || strings.EqualFold(name, exclude) {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			counts[name]++
		}
	}

	var out []Repo
	for name, n := range counts {
		if n < 2 {
			continue
		}
		r := Repo{FullName: name, Count: n}
		if totalSuspects > 0 {
			r.Percentage = float64(n) * 100 / float64(totalSuspects)
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Repo) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.FullName, b.FullName)
	})
	return out
}

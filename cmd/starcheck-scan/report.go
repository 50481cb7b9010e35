package main

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	analyze "github.com/masteryoda101/fake-star-check/internal/services/analyze/domain"
)

// printSummary writes the per-repository table, the reported join-date
// cohorts, commonly starred repositories and the suspicious list
func printSummary(w io.Writer, vs []analyze.Verdict) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REPOSITORY\tOUTCOME\tSTARS\tMAX BURST\tBURST %\tSUSPECT %")
	for _, v := range vs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%.1f\n",
			v.Repository, v.Outcome(), v.TotalStargazers, v.MaxBurstCount,
			v.BurstRatio*100, v.CohortSuspectPercentage)
	}
	_ = tw.Flush()

	for _, v := range vs {
		if len(v.Cohorts) > 0 {
			fmt.Fprintf(w, "\n%s join-date cohorts:\n", v.Repository)
			for _, c := range v.Cohorts {
				fmt.Fprintf(w, "  %s  users %d  suspects %d\n", c.Date, c.Users, c.Suspects)
			}
		}
		if len(v.CommonlyStarredRepos) > 0 {
			fmt.Fprintf(w, "\n%s repositories commonly starred by suspects:\n", v.Repository)
			names := make([]string, 0, len(v.CommonlyStarredRepos))
			for n := range v.CommonlyStarredRepos {
				names = append(names, n)
			}
			slices.SortFunc(names, func(a, b string) int {
				ca, cb := v.CommonlyStarredRepos[a].Count, v.CommonlyStarredRepos[b].Count
				if ca != cb {
					return cb - ca
				}
				if a < b {
					return -1
				}
				return 1
			})
			for _, n := range names {
				c := v.CommonlyStarredRepos[n]
				fmt.Fprintf(w, "  %s  %d (%.1f%%)\n", n, c.Count, c.Percentage)
			}
		}
		if v.Timeline != nil && v.Timeline.Densest != nil {
			d := v.Timeline.Densest
			fmt.Fprintf(w, "\n%s: %.2f%% (%d stars) in %d days, %s to %s\n",
				v.Repository, d.Percentage, d.Stars, d.Days, d.Start, d.End)
		}
	}

	var suspicious []string
	for _, v := range vs {
		if v.IsSuspicious {
			suspicious = append(suspicious, v.Repository.String())
		}
	}
	fmt.Fprintln(w)
	if len(suspicious) == 0 {
		fmt.Fprintln(w, "No suspicious repositories found.")
		return
	}
	fmt.Fprintln(w, "Suspicious repositories:")
	for _, s := range suspicious {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

// Package timeline turns star timestamps into per-day evidence: daily counts,
// peak days and the densest span holding most of the stars
package timeline

import (
	"slices"
	"time"
)

const dayLayout = "2006-01-02"

// Day is one UTC calendar day with at least one star
type Day struct {
	Date  string `json:"date"`
	Stars int    `json:"stars"`
}

// Peak is a day whose count is among the top distinct counts
type Peak struct {
	Day
	Percentage float64 `json:"percentage"`
}

// Span is a run of consecutive calendar days
type Span struct {
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Days       int     `json:"days"`
	Stars      int     `json:"stars"`
	Percentage float64 `json:"percentage"`
}

// Timeline is the daily series; Days is ascending and skips empty days
type Timeline struct {
	Total int   `json:"total"`
	Days  []Day `json:"days"`
}

// Summary bundles the evidence attached to a verdict
type Summary struct {
	Timeline
	Peaks   []Peak `json:"peaks"`
	Densest *Span  `json:"densest,omitempty"`
}

// Build buckets times by UTC day
func Build(times []time.Time) Timeline {
	counts := map[string]int{}
	for _, t := range times {
		counts[t.UTC().Format(dayLayout)]++
	}
	tl := Timeline{Total: len(times), Days: make([]Day, 0, len(counts))}
	for d, n := range counts {
		tl.Days = append(tl.Days, Day{Date: d, Stars: n})
	}
	slices.SortFunc(tl.Days, func(a, b Day) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return tl
}

// Summarize builds the timeline with the top 2 peaks and the 70% span
func Summarize(times []time.Time) Summary {
	tl := Build(times)
	s := Summary{Timeline: tl, Peaks: tl.Peaks(2)}
	if sp, ok := tl.DensestSpan(0.7); ok {
		s.Densest = &sp
	}
	return s
}

// Peaks returns every day whose count is one of the n highest distinct
// counts, in date order
func (tl Timeline) Peaks(n int) []Peak {
	if n <= 0 || len(tl.Days) == 0 {
		return nil
	}
	var distinct []int
	for _, d := range tl.Days {
		if !slices.Contains(distinct, d.Stars) {
			distinct = append(distinct, d.Stars)
		}
	}
	slices.Sort(distinct)
	slices.Reverse(distinct)
	if len(distinct) > n {
		distinct = distinct[:n]
	}
	floor := distinct[len(distinct)-1]

	var out []Peak
	for _, d := range tl.Days {
		if d.Stars >= floor {
			out = append(out, Peak{Day: d, Percentage: pct(d.Stars, tl.Total)})
		}
	}
	return out
}

// DensestSpan finds the shortest run of consecutive calendar days holding at
// least fraction of all stars; ties go to the earliest run. Both ends of the
// run count. ok is false for an empty timeline
func (tl Timeline) DensestSpan(fraction float64) (Span, bool) {
	if tl.Total == 0 || len(tl.Days) == 0 {
		return Span{}, false
	}
	need := fraction * float64(tl.Total)

	// dense series over the calendar so day distance is index distance
	first, _ := time.Parse(dayLayout, tl.Days[0].Date)
	last, _ := time.Parse(dayLayout, tl.Days[len(tl.Days)-1].Date)
	n := int(last.Sub(first).Hours()/24) + 1
	series := make([]int, n)
	for _, d := range tl.Days {
		at, _ := time.Parse(dayLayout, d.Date)
		series[int(at.Sub(first).Hours()/24)] = d.Stars
	}

	bestLen, bestAt, bestStars := n+1, 0, 0
	sum, i := 0, 0
	for j := 0; j < n; j++ {
		sum += series[j]
		for i <= j && float64(sum-series[i]) >= need {
			sum -= series[i]
			i++
		}
		if float64(sum) >= need && j-i+1 < bestLen {
			bestLen, bestAt, bestStars = j-i+1, i, sum
		}
	}
	if bestLen > n {
		return Span{}, false
	}
	return Span{
		Start:      first.AddDate(0, 0, bestAt).Format(dayLayout),
		End:        first.AddDate(0, 0, bestAt+bestLen-1).Format(dayLayout),
		Days:       bestLen,
		Stars:      bestStars,
		Percentage: pct(bestStars, tl.Total),
	}, true
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

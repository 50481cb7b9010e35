package timeline

import (
	"testing"
	"time"
)

func day(d, hour int) time.Time { return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC) }

func repeat(t time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t.Add(time.Duration(i) * time.Minute)
	}
	return out
}

func TestBuildBucketsByUTCDay(t *testing.T) {
	east := time.FixedZone("UTC+10", 10*3600)
	tl := Build([]time.Time{
		day(3, 1),
		time.Date(2024, 1, 3, 5, 0, 0, 0, east), // 2024-01-02 19:00 UTC
		day(1, 0),
		day(3, 23),
	})
	want := []Day{{"2024-01-01", 1}, {"2024-01-02", 1}, {"2024-01-03", 2}}
	if tl.Total != 4 || len(tl.Days) != len(want) {
		t.Fatalf("timeline = %+v", tl)
	}
	for i := range want {
		if tl.Days[i] != want[i] {
			t.Fatalf("day %d = %+v, want %+v", i, tl.Days[i], want[i])
		}
	}
}

func TestPeaksTopTwoDistinctCounts(t *testing.T) {
	var ts []time.Time
	ts = append(ts, repeat(day(1, 0), 5)...)
	ts = append(ts, repeat(day(2, 0), 3)...)
	ts = append(ts, repeat(day(3, 0), 5)...)
	ts = append(ts, repeat(day(4, 0), 1)...)
	ts = append(ts, repeat(day(5, 0), 3)...)
	ts = append(ts, repeat(day(6, 0), 3)...)

	peaks := Build(ts).Peaks(2)
	if len(peaks) != 5 {
		t.Fatalf("peaks = %+v", peaks)
	}
	if peaks[0].Date != "2024-01-01" || peaks[0].Percentage != 25 {
		t.Fatalf("first peak = %+v", peaks[0])
	}
	for _, p := range peaks {
		if p.Date == "2024-01-04" {
			t.Fatalf("single-star day is not a peak")
		}
	}
}

func TestDensestSpanShortestRun(t *testing.T) {
	var ts []time.Time
	ts = append(ts, day(1, 0))
	ts = append(ts, repeat(day(10, 0), 4)...)
	ts = append(ts, repeat(day(11, 0), 4)...)
	ts = append(ts, day(20, 0))

	sp, ok := Build(ts).DensestSpan(0.7)
	if !ok {
		t.Fatalf("expected a span")
	}
	if sp.Start != "2024-01-10" || sp.End != "2024-01-11" || sp.Days != 2 || sp.Stars != 8 || sp.Percentage != 80 {
		t.Fatalf("span = %+v", sp)
	}
}

func TestDensestSpanCountsGaps(t *testing.T) {
	// 2 + 0 + 0 + 2 over a 4 day calendar run
	ts := append(repeat(day(1, 0), 2), repeat(day(4, 0), 2)...)
	sp, ok := Build(ts).DensestSpan(0.7)
	if !ok || sp.Days != 4 || sp.Stars != 4 {
		t.Fatalf("span = %+v ok=%v", sp, ok)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Peaks != nil || s.Densest != nil {
		t.Fatalf("summary = %+v", s)
	}
}

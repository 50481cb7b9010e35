package domain

import "testing"

func TestStateNames(t *testing.T) {
	cases := map[State]string{
		StateObserved:   "observed",
		StateClaimed:    "claimed",
		StateQueued:     "queued",
		StateInProgress: "in_progress",
		StateCompleted:  "completed",
		StateFailed:     "failed",
		StateDropped:    "dropped",
		State(42):       "unknown",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Fatalf("State(%d) = %q, want %q", int(s), s.String(), want)
		}
	}
	if StateQueued.Terminal() || !StateDropped.Terminal() || !StateCompleted.Terminal() {
		t.Fatalf("terminal classification wrong")
	}
}

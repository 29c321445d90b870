package promptvault

import "testing"

func TestLoadEstimator_EmptyTextZero(t *testing.T) {
	e := NewLoadEstimator(newTestStore(t))

	for _, text := range []string{"", "   ", "...", "!!!"} {
		if load := e.Estimate(text); load != 0 {
			t.Fatalf("Estimate(%q) = %v, want 0", text, load)
		}
	}
}

func TestLoadEstimator_RangeInvariant(t *testing.T) {
	e := NewLoadEstimator(newTestStore(t))

	texts := []string{
		"Hi.",
		"Short one. Short two.",
		"The architecture of the algorithm demands an architecture review because the algorithm architecture is an algorithm.",
		"One enormously long sentence that keeps going and going with many distinct tokens covering architecture algorithm heuristics and more until the reference sentence length is far exceeded by this very construction indeed",
	}
	for _, text := range texts {
		load := e.Estimate(text)
		if load < 0 || load > 1 {
			t.Fatalf("Estimate(%q) = %v, out of [0,1]", text, load)
		}
	}
}

func TestLoadEstimator_ComplexityOrdering(t *testing.T) {
	e := NewLoadEstimator(newTestStore(t))

	low := e.Estimate("Do it. Do it. Do it. Do it.")
	high := e.Estimate(
		"The distributed architecture requires careful algorithm selection across heterogeneous subsystems " +
			"because every architecture decision constrains the algorithm design space significantly")
	if high <= low {
		t.Fatalf("complex text must score higher: simple=%v complex=%v", low, high)
	}
}

func TestLoadEstimator_MarkersRaiseLoad(t *testing.T) {
	e := NewLoadEstimator(newTestStore(t))

	without := e.Estimate("We should review the plan for the new system today.")
	with := e.Estimate("We should review the architecture algorithm for the new system today.")
	if with <= without {
		t.Fatalf("markers must raise load: with=%v without=%v", with, without)
	}
}

func TestLoadEstimator_Deterministic(t *testing.T) {
	e := NewLoadEstimator(newTestStore(t))

	text := "The architecture of this algorithm is explained. It has two parts. Each part is simple."
	if e.Estimate(text) != e.Estimate(text) {
		t.Fatal("estimation must be deterministic")
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One two. Three four! Five six? Trailing fragment")
	want := []string{"One two", "Three four", "Five six", "Trailing fragment"}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

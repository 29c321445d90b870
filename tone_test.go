package promptvault

import "testing"

func TestToneClassifier_DominantTone(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	tone, engagement, _ := c.Classify("Do it now immediately", nil)
	if tone != "urgency" {
		t.Fatalf("expected urgency, got %q", tone)
	}
	if engagement <= 0 || engagement > 1 {
		t.Fatalf("engagement out of range: %v", engagement)
	}
}

func TestToneClassifier_EmptyTextNeutral(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	for _, text := range []string{"", "   ", "\n\t"} {
		tone, engagement, _ := c.Classify(text, nil)
		if tone != "neutral" || engagement != 0 {
			t.Fatalf("Classify(%q) = (%q, %v), want (neutral, 0)", text, tone, engagement)
		}
	}
}

func TestToneClassifier_NoLexiconMatchNeutral(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	tone, engagement, _ := c.Classify("completely unrelated words here", nil)
	if tone != "neutral" || engagement != 0 {
		t.Fatalf("got (%q, %v), want (neutral, 0)", tone, engagement)
	}
}

func TestToneClassifier_TieBreakByDeclaredOrder(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	// "urgent" (urgency, 2) vs "gently" (calm, 2) — urgency is listed
	// first in tone_order and must win the tie.
	tone, _, scores := c.Classify("urgent but gently", nil)
	if scores["urgency"] != scores["calm"] {
		t.Fatalf("test premise broken: scores %v", scores)
	}
	if tone != "urgency" {
		t.Fatalf("tie must break to first declared tone, got %q", tone)
	}
}

func TestToneClassifier_WholeWordMode(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	// "known" contains "now" as a substring; whole-word mode must not count it.
	tone, _, _ := c.Classify("He is known here", nil)
	if tone != "neutral" {
		t.Fatalf("substring leak in whole-word mode: got %q", tone)
	}
}

func TestToneClassifier_SubstringMode(t *testing.T) {
	store, _ := NewConfigStore(BytesSource{
		Config: []byte(`{
			"lexicons": {"urgency": {"now": 2}},
			"classifier": {"match_mode": "substring", "saturation": 6}
		}`),
		Techniques: []byte(`{"techniques": []}`),
	}, nil)
	c := NewToneClassifier(store)

	tone, _, _ := c.Classify("He is known here", nil)
	if tone != "urgency" {
		t.Fatalf("substring mode should match inside words, got %q", tone)
	}
}

func TestToneClassifier_EngagementClamped(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	// 10 hits of "immediately" = weight 30, far beyond saturation 6.
	text := ""
	for i := 0; i < 10; i++ {
		text += "immediately "
	}
	_, engagement, _ := c.Classify(text, nil)
	if engagement != 1 {
		t.Fatalf("engagement must clamp to 1, got %v", engagement)
	}
}

func TestToneClassifier_ProfileOverrides(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	overrides := map[string]Lexicon{
		"calm": {"breeze": 10},
	}
	tone, _, _ := c.Classify("a light breeze", overrides)
	if tone != "calm" {
		t.Fatalf("override word must count for calm, got %q", tone)
	}

	// Overrides never leak into the shared bundle.
	tone, _, _ = c.Classify("a light breeze", nil)
	if tone != "neutral" {
		t.Fatalf("shared lexicon mutated by override: got %q", tone)
	}
}

func TestToneClassifier_Deterministic(t *testing.T) {
	c := NewToneClassifier(newTestStore(t))

	text := "Do it now, explore gently, immediately"
	tone1, eng1, _ := c.Classify(text, nil)
	tone2, eng2, _ := c.Classify(text, nil)
	if tone1 != tone2 || eng1 != eng2 {
		t.Fatalf("classification not deterministic: (%q,%v) vs (%q,%v)", tone1, eng1, tone2, eng2)
	}
}

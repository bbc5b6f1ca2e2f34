package util

import "testing"

func TestNormalizeText_CurlyQuotes(t *testing.T) {
	in := "  ‘quoted’ and “double”  "
	want := `'quoted' and "double"`
	if got := NormalizeText(in); got != want {
		t.Errorf("NormalizeText(%q) = %q, want %q", in, got, want)
	}
}

func TestNormalizeText_TrimOnly(t *testing.T) {
	if got := NormalizeText("  plain text \n"); got != "plain text" {
		t.Errorf("expected 'plain text', got %q", got)
	}
	if got := NormalizeText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSeedIndex_Deterministic(t *testing.T) {
	a := SeedIndex(7, "stressed", "late night")
	b := SeedIndex(7, "stressed", "late night")
	if a != b {
		t.Errorf("SeedIndex not deterministic: %d vs %d", a, b)
	}
}

func TestSeedIndex_WithinRange(t *testing.T) {
	inputs := [][]string{
		{"", ""},
		{"a"},
		{"stressed", "late"},
		{"okay", "evening", "extra"},
	}
	for n := 1; n <= 5; n++ {
		for _, parts := range inputs {
			idx := SeedIndex(n, parts...)
			if idx < 0 || idx >= n {
				t.Errorf("SeedIndex(%d, %v) = %d out of range", n, parts, idx)
			}
		}
	}
}

func TestSeedIndex_NonPositiveN(t *testing.T) {
	if got := SeedIndex(0, "a"); got != 0 {
		t.Errorf("expected 0 for n=0, got %d", got)
	}
	if got := SeedIndex(-3, "a"); got != 0 {
		t.Errorf("expected 0 for negative n, got %d", got)
	}
}

func TestGenerateReflectionID_Format(t *testing.T) {
	id := GenerateReflectionID()
	if len(id) != len("ref_")+32 {
		t.Errorf("unexpected id length: %q", id)
	}
	if id[:4] != "ref_" {
		t.Errorf("expected ref_ prefix, got %q", id)
	}
	if id == GenerateReflectionID() {
		t.Error("consecutive ids should differ")
	}
}

package textutil

import (
	"regexp"
	"testing"
)

func TestSanitizeSlug(t *testing.T) {
	cases := map[string]string{
		"Kids playing at the beach":    "kids-playing-at-the-beach",
		`"birthday-party-cake"`:        "birthday-party-cake",
		"  --Crème   Brûlée  Night-- ": "creme-brulee-night",
		"grandma's 80th birthday!":     "grandma-s-80th-birthday",
		"dog_park__fetch":              "dog-park-fetch",
		"***":                          "",
		"Straße im Schnee":             "stra-e-im-schnee",
		"snow-day\nsledding":           "snow-day-sledding",
	}
	for input, want := range cases {
		if got := SanitizeSlug(input); got != want {
			t.Fatalf("SanitizeSlug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSanitizeSlugIsIdempotent(t *testing.T) {
	inputs := []string{
		"Kids playing at the beach",
		"--a--b--",
		"Ünïcödé Wörds ёлка",
		"already-clean-slug",
		"",
		"123 !!! 456",
	}
	for _, input := range inputs {
		once := SanitizeSlug(input)
		twice := SanitizeSlug(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: once=%q twice=%q", input, once, twice)
		}
	}
}

func TestLimitWords(t *testing.T) {
	if got := LimitWords("a-b-c-d-e-f-g", 5); got != "a-b-c-d-e" {
		t.Fatalf("unexpected %q", got)
	}
	if got := LimitWords("a-b", 5); got != "a-b" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestRandomSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{4}$`)
	seen := map[string]bool{}
	for range 20 {
		suffix := RandomSuffix()
		if !pattern.MatchString(suffix) {
			t.Fatalf("unexpected suffix %q", suffix)
		}
		seen[suffix] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected suffixes to vary")
	}
}

package utils

import "testing"

func TestUrlQuery(t *testing.T) {
	if got := UrlQuery(" asthma cough & fever "); got != "asthma+cough+%26+fever" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestStr(t *testing.T) {
	if Str(nil) != "" || Str("x") != "x" || Str(3) != "3" {
		t.Fatalf("unexpected Str output")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncate %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("zero limit should keep input, got %q", got)
	}
}

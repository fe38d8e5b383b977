package logging

import "testing"

func TestAnonymizeIP(t *testing.T) {
	a := AnonymizeIP("203.0.113.9", "pepper")
	b := AnonymizeIP("203.0.113.9", "pepper")
	if a != b {
		t.Errorf("digest not stable: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("len = %d, want 16", len(a))
	}
	if a == "203.0.113.9" {
		t.Error("address returned verbatim")
	}
	if AnonymizeIP("203.0.113.9", "other") == a {
		t.Error("salt does not change the digest")
	}
	if AnonymizeIP("203.0.113.10", "pepper") == a {
		t.Error("different addresses share a digest")
	}
	if AnonymizeIP("", "pepper") != "" {
		t.Error("empty address should stay empty")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "debug",
		"warn":  "warn",
		"error": "error",
		"":      "info",
		"loud":  "info",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

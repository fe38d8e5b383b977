package core

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mikey/contact-guard/internal/domainlist"
)

func newTestAnalyzer(t *testing.T) *ContentAnalyzer {
	t.Helper()
	disposable := domainlist.NewChecker("disposable", DefaultDisposableDomains, nil)
	analyzer, err := NewContentAnalyzer(DefaultContentRules(), disposable, nil)
	if err != nil {
		t.Fatalf("NewContentAnalyzer: %v", err)
	}
	return analyzer
}

const cleanMessage = "Hello, I would like to ask about your availability next month."

func TestAnalyzeCleanSubmission(t *testing.T) {
	a := newTestAnalyzer(t)

	got, err := a.Analyze("Taro Yamada", "taro@example.com", cleanMessage)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Score != 0 || len(got.Reasons) != 0 {
		t.Errorf("clean submission scored %d with reasons %v", got.Score, got.Reasons)
	}
	if !got.Details.ValidEmail {
		t.Error("expected ValidEmail detail to be true")
	}
}

func TestAnalyzeRules(t *testing.T) {
	tests := []struct {
		name    string
		input   [3]string
		score   int
		reasons []string
	}{
		{
			name:    "too many urls",
			input:   [3]string{"Taro", "taro@example.com", "see http://a.example https://b.example http://c.example now"},
			score:   3,
			reasons: []string{"Too many URLs (3)"},
		},
		{
			name:    "message too short",
			input:   [3]string{"Taro", "taro@example.com", "  hi  "},
			score:   3,
			reasons: []string{"Message too short"},
		},
		{
			name:    "message too long",
			input:   [3]string{"Taro", "taro@example.com", strings.Repeat("ab ", 700)},
			score:   2,
			reasons: []string{"Message too long"},
		},
		{
			name:    "repetition",
			input:   [3]string{"Taro", "taro@example.com", strings.Repeat("a", 20) + " hello"},
			score:   3,
			reasons: []string{"Excessive character repetition"},
		},
		{
			name:    "line terminators do not count as repetition",
			input:   [3]string{"Taro", "taro@example.com", "Hello there" + strings.Repeat("\r", 16) + strings.Repeat("\n", 16) + strings.Repeat("\u2028", 16) + strings.Repeat("\u2029", 16) + "bye"},
			score:   0,
			reasons: nil,
		},
		{
			name:    "uppercase",
			input:   [3]string{"Taro", "taro@example.com", "HELLO THIS IS ALL CAPS AND LONG ENOUGH TO COUNT"},
			score:   2,
			reasons: []string{"Excessive uppercase text"},
		},
		{
			name:    "keywords case-insensitive",
			input:   [3]string{"Taro", "taro@example.com", "Click Here to visit our casino floor"},
			score:   4,
			reasons: []string{"Spam keywords: click here, casino"},
		},
		{
			name:    "japanese keyword",
			input:   [3]string{"Taro", "taro@example.com", "今すぐご連絡ください。よろしくお願いします。"},
			score:   2,
			reasons: []string{"Spam keywords: 今すぐ"},
		},
		{
			name:    "numeric short name",
			input:   [3]string{"7", "taro@example.com", cleanMessage},
			score:   4,
			reasons: []string{"Name too short", "Name is only numbers"},
		},
		{
			name:    "name too long",
			input:   [3]string{strings.Repeat("名", 51), "taro@example.com", cleanMessage},
			score:   1,
			reasons: []string{"Name too long"},
		},
		{
			name:    "invalid email",
			input:   [3]string{"Taro", "not-an-email", cleanMessage},
			score:   3,
			reasons: []string{"Invalid email format"},
		},
		{
			name:    "disposable domain",
			input:   [3]string{"Taro", "bot@Mailinator.com", cleanMessage},
			score:   2,
			reasons: []string{"Disposable email domain"},
		},
		{
			name:    "disposable domain with bad format",
			input:   [3]string{"Taro", "a b@mailinator.com", cleanMessage},
			score:   5,
			reasons: []string{"Invalid email format", "Disposable email domain"},
		},
	}

	a := newTestAnalyzer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Analyze(tt.input[0], tt.input[1], tt.input[2])
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if got.Score != tt.score {
				t.Errorf("Score = %d, want %d", got.Score, tt.score)
			}
			if !reflect.DeepEqual(got.Reasons, tt.reasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.reasons)
			}
		})
	}
}

func TestAnalyzeCombinedCrossesThreshold(t *testing.T) {
	a := newTestAnalyzer(t)
	message := strings.Repeat("A", 20) + " HELLO THIS IS ALL CAPS AND LONG ENOUGH TO COUNT HTTP://A.EXAMPLE HTTP://B.EXAMPLE HTTP://C.EXAMPLE"

	got, err := a.Analyze("Taro", "taro@example.com", message)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []string{"Too many URLs (3)", "Excessive character repetition", "Excessive uppercase text"}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", got.Reasons, want)
	}
	if got.Score != 8 {
		t.Errorf("Score = %d, want 8", got.Score)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	first, _ := a.Analyze("1", "bad", "FREE MONEY http://x.example")
	second, _ := a.Analyze("1", "bad", "FREE MONEY http://x.example")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeCustomKeywords(t *testing.T) {
	rules := DefaultContentRules()
	rules.Keywords = []string{"  crypto  ", ""}
	a, err := NewContentAnalyzer(rules, nil, nil)
	if err != nil {
		t.Fatalf("NewContentAnalyzer: %v", err)
	}

	got, _ := a.Analyze("Taro", "bot@mailinator.com", "Buy CRYPTO with us, it is a great deal")
	want := []string{"Spam keywords: crypto"}
	if !reflect.DeepEqual(got.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", got.Reasons, want)
	}
}

func TestValidEmail(t *testing.T) {
	tests := map[string]bool{
		"taro@example.com":   true,
		"taro@sub.example.jp": true,
		"not-an-email":       false,
		"a@b":                false,
		"a@@b.com":           false,
		"a b@example.com":    false,
		"a@exam\u3000ple.com": false,
	}
	for email, want := range tests {
		if got := ValidEmail(email); got != want {
			t.Errorf("ValidEmail(%q) = %v, want %v", email, got, want)
		}
	}
}

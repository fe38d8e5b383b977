package utils

import "testing"

func TestTruncateRunes(t *testing.T) {
	tp := NewTextProcessor(nil)

	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"ascii", "hello world", 5, "hello"},
		{"multibyte", "お問い合わせ", 3, "お問い"},
		{"no limit", "お問い合わせ", 0, "お問い合わせ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tp.TruncateRunes(tt.text, tt.max); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(nil)

	if got := tp.ProcessText("  ok\xff text  ", 100); got != "ok text" {
		t.Errorf("ProcessText = %q, want %q", got, "ok text")
	}
	if got := tp.ProcessText("  あいうえお  ", 2); got != "あい" {
		t.Errorf("ProcessText = %q, want %q", got, "あい")
	}
}

func TestFold(t *testing.T) {
	tp := NewTextProcessor(nil)
	if tp.Fold("CLICK Here") != tp.Fold("click here") {
		t.Error("Fold should be case-insensitive")
	}
	if got := tp.Fold("今すぐ"); got != "今すぐ" {
		t.Errorf("Fold changed Japanese text: %q", got)
	}
}

func TestPreview(t *testing.T) {
	tp := NewTextProcessor(nil)
	if got := tp.Preview("abcdef", 3); got != "abc..." {
		t.Errorf("Preview = %q", got)
	}
	if got := tp.Preview("abc", 3); got != "abc" {
		t.Errorf("Preview = %q", got)
	}
}

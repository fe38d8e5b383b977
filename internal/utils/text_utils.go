package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateRunes cuts text to at most maxRunes characters.
// A non-positive limit leaves the text unchanged.
func (tp *TextProcessor) TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	truncated := string(runes[:maxRunes])

	tp.logger.Debug("Text truncated",
		zap.Int("original_runes", len(runes)),
		zap.Int("max_runes", maxRunes))

	return truncated
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// Fold returns a case-folded copy of text for case-insensitive comparison.
// A Caser is stateful, so every call builds its own.
func (tp *TextProcessor) Fold(text string) string {
	return cases.Fold().String(text)
}

// ProcessText trims, sanitizes and truncates text in one operation
func (tp *TextProcessor) ProcessText(text string, maxRunes int) string {
	sanitized := tp.SanitizeUTF8(strings.TrimSpace(text))
	return tp.TruncateRunes(sanitized, maxRunes)
}

// Preview returns a short, log-safe prefix of text
func (tp *TextProcessor) Preview(text string, maxRunes int) string {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes]) + "..."
}

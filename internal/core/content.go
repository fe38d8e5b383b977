package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/mikey/contact-guard/internal/domainlist"
	"github.com/mikey/contact-guard/internal/utils"
)

// Whitespace as the browser sees it: ASCII space classes plus Unicode separators and BOM.
const nonSpace = `[^\s\p{Z}\x{FEFF}`

var (
	urlPattern        = regexp.MustCompile(`(?i)https?://` + nonSpace + `]+`)
	emailPattern      = regexp.MustCompile(`^` + nonSpace + `@]+@` + nonSpace + `@]+\.` + nonSpace + `@]+$`)
	digitsOnlyPattern = regexp.MustCompile(`^\d+$`)
	upperCasePattern  = regexp.MustCompile(`[A-Z]`)
)

// DefaultSpamKeywords is the built-in bilingual keyword list
var DefaultSpamKeywords = []string{
	"click here", "make money", "free money", "viagra", "casino", "lottery",
	"winner", "congratulations", "urgent", "limited time",
	"お金を稼ぐ", "簡単に稼げる", "無料で", "今すぐ", "限定", "緊急", "当選",
}

// DefaultDisposableDomains is the built-in throwaway mailbox list
var DefaultDisposableDomains = []string{
	"10minutemail.com", "tempmail.org", "guerrillamail.com",
	"mailinator.com", "trashmail.com",
}

// ContentRules holds the tunable thresholds of the content analyzer
type ContentRules struct {
	MaxURLs           int
	MinMessageLength  int
	MaxMessageLength  int
	MaxRepeatedChars  int
	UpperCaseRatio    float64
	UpperCaseMinChars int
	MinNameLength     int
	MaxNameLength     int
	Keywords          []string
	MatchTimeout      time.Duration
}

// DefaultContentRules returns the stock rule thresholds
func DefaultContentRules() ContentRules {
	return ContentRules{
		MaxURLs:           2,
		MinMessageLength:  10,
		MaxMessageLength:  2000,
		MaxRepeatedChars:  15,
		UpperCaseRatio:    0.7,
		UpperCaseMinChars: 20,
		MinNameLength:     2,
		MaxNameLength:     50,
		Keywords:          DefaultSpamKeywords,
		MatchTimeout:      100 * time.Millisecond,
	}
}

// ContentAnalyzer scores the free-text fields of a submission
type ContentAnalyzer struct {
	rules      ContentRules
	repetition *regexp2.Regexp
	keywords   []string
	folded     []string
	disposable *domainlist.Checker
	text       *utils.TextProcessor
}

// NewContentAnalyzer creates a new content analyzer
func NewContentAnalyzer(rules ContentRules, disposable *domainlist.Checker, text *utils.TextProcessor) (*ContentAnalyzer, error) {
	if text == nil {
		text = utils.NewTextProcessor(nil)
	}

	// Line terminators never form a repetition run
	repetition, err := regexp2.Compile(fmt.Sprintf(`([^\n\r\u2028\u2029])\1{%d,}`, rules.MaxRepeatedChars), regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile repetition pattern: %w", err)
	}
	if rules.MatchTimeout > 0 {
		repetition.MatchTimeout = rules.MatchTimeout
	}

	keywords := make([]string, 0, len(rules.Keywords))
	folded := make([]string, 0, len(rules.Keywords))
	for _, keyword := range rules.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		keywords = append(keywords, keyword)
		folded = append(folded, text.Fold(keyword))
	}

	return &ContentAnalyzer{
		rules:      rules,
		repetition: repetition,
		keywords:   keywords,
		folded:     folded,
		disposable: disposable,
		text:       text,
	}, nil
}

// Analyze runs every content rule and sums their weights.
// An error is only returned when a pattern match gives up.
func (a *ContentAnalyzer) Analyze(name, email, message string) (*ContentAnalysis, error) {
	result := &ContentAnalysis{}

	// URLs
	urls := urlPattern.FindAllStringIndex(message, -1)
	result.Details.URLCount = len(urls)
	if len(urls) > a.rules.MaxURLs {
		result.add(len(urls), fmt.Sprintf("Too many URLs (%d)", len(urls)))
	}

	// Message length
	messageLength := utf8.RuneCountInString(strings.TrimSpace(message))
	result.Details.MessageLength = messageLength
	if messageLength < a.rules.MinMessageLength {
		result.add(3, "Message too short")
	} else if messageLength > a.rules.MaxMessageLength {
		result.add(2, "Message too long")
	}

	// Repeated characters
	repeated, err := a.repetition.MatchString(message)
	if err != nil {
		return nil, fmt.Errorf("repetition check failed: %w", err)
	}
	if repeated {
		result.add(3, "Excessive character repetition")
	}

	// Uppercase
	totalChars := utf8.RuneCountInString(message)
	if totalChars > 0 {
		upper := len(upperCasePattern.FindAllStringIndex(message, -1))
		result.Details.UpperCaseRatio = float64(upper) / float64(totalChars)
	}
	if result.Details.UpperCaseRatio > a.rules.UpperCaseRatio && totalChars > a.rules.UpperCaseMinChars {
		result.add(2, "Excessive uppercase text")
	}

	// Keywords
	foldedMessage := a.text.Fold(message)
	var found []string
	for i, keyword := range a.folded {
		if strings.Contains(foldedMessage, keyword) {
			found = append(found, a.keywords[i])
		}
	}
	result.Details.SpamKeywords = found
	if len(found) > 0 {
		result.add(2*len(found), "Spam keywords: "+strings.Join(found, ", "))
	}

	// Name
	trimmedName := strings.TrimSpace(name)
	nameLength := utf8.RuneCountInString(trimmedName)
	result.Details.NameLength = nameLength
	if nameLength < a.rules.MinNameLength {
		result.add(2, "Name too short")
	} else if nameLength > a.rules.MaxNameLength {
		result.add(1, "Name too long")
	}
	if digitsOnlyPattern.MatchString(trimmedName) {
		result.add(2, "Name is only numbers")
	}

	// Email
	result.Details.ValidEmail = ValidEmail(email)
	if !result.Details.ValidEmail {
		result.add(3, "Invalid email format")
	}
	if a.disposable.Contains(email) {
		result.add(2, "Disposable email domain")
	}

	return result, nil
}

// ValidEmail reports whether email has the simple local@domain.tld shape
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func (r *ContentAnalysis) add(weight int, reason string) {
	r.Score += weight
	r.Reasons = append(r.Reasons, reason)
}

package factory

import (
	"fmt"

	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/domainlist"
	"github.com/mikey/contact-guard/internal/logging"
	"github.com/mikey/contact-guard/internal/utils"
	"go.uber.org/zap"
)

// GuardFactory creates the spam guard from the scoring configuration
type GuardFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	text   *utils.TextProcessor
}

// NewGuardFactory creates a new guard factory
func NewGuardFactory(cfg *config.Config, logger *zap.Logger, text *utils.TextProcessor) *GuardFactory {
	return &GuardFactory{
		cfg:    cfg,
		logger: logger,
		text:   text,
	}
}

// Rules returns the content rules, overriding each default the configuration sets.
// Values are taken as configured, so an explicit zero is honoured.
func (f *GuardFactory) Rules(sc config.SpamConfig) core.ContentRules {
	rules := core.DefaultContentRules()
	set := func(key string) bool { return f.cfg.IsSet(key) }

	if set("spam.rules.max_urls") {
		rules.MaxURLs = sc.MaxURLs
	}
	if set("spam.rules.min_message_length") {
		rules.MinMessageLength = sc.MinMessageLength
	}
	if set("spam.rules.max_message_length") {
		rules.MaxMessageLength = sc.MaxMessageLength
	}
	if set("spam.rules.max_repeated_chars") {
		rules.MaxRepeatedChars = sc.MaxRepeatedChars
	}
	if set("spam.rules.uppercase_ratio") {
		rules.UpperCaseRatio = sc.UpperCaseRatio
	}
	if set("spam.rules.uppercase_min_chars") {
		rules.UpperCaseMinChars = sc.UpperCaseMinChars
	}
	if set("spam.rules.min_name_length") {
		rules.MinNameLength = sc.MinNameLength
	}
	if set("spam.rules.max_name_length") {
		rules.MaxNameLength = sc.MaxNameLength
	}
	if set("spam.keywords") && len(sc.Keywords) > 0 {
		rules.Keywords = sc.Keywords
	}
	if set("spam.rules.match_timeout") {
		rules.MatchTimeout = sc.MatchTimeout
	}
	return rules
}

// CreateSpamGuard wires the analyzer and the given store into a spam guard
func (f *GuardFactory) CreateSpamGuard(store core.RateLimitStore) (*core.SpamGuard, error) {
	sc, err := f.cfg.GetSpam()
	if err != nil {
		return nil, fmt.Errorf("invalid spam configuration: %w", err)
	}

	domains := sc.DisposableDomains
	if len(domains) == 0 {
		domains = core.DefaultDisposableDomains
	}
	disposable := domainlist.NewChecker("disposable", domains, f.logger)

	rules := f.Rules(sc)
	analyzer, err := core.NewContentAnalyzer(rules, disposable, f.text)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Spam guard configured",
		zap.Int("threshold", sc.Threshold),
		zap.Int("keywords", len(rules.Keywords)),
		zap.Int("disposable_domains", disposable.Len()))

	anon := logging.NewIPAnonymizer(f.cfg.GetLogging().IPSalt)
	return core.NewSpamGuard(store, analyzer, f.logger.Named("guard"), sc.Threshold).
		WithIdentityMask(anon.Anonymize), nil
}

package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/utils"
	"go.uber.org/zap"
)

const (
	notionRichTextLimit = 2000
	notionStatusNew     = "未対応"
	notionDefaultURL    = "https://api.notion.com"
)

var (
	// ErrNotionAPIKeyMissing is returned when no integration token is configured
	ErrNotionAPIKeyMissing = errors.New("NOTION_API_KEY is not configured")
	// ErrNotionDatabaseMissing is returned when no target database is configured
	ErrNotionDatabaseMissing = errors.New("NOTION_DATABASE_ID is not configured")
)

// NotionSink stores submissions as pages of a Notion database
type NotionSink struct {
	cfg    config.NotionConfig
	client *notionapi.Client
	text   *utils.TextProcessor
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewNotionSink creates a new Notion sink. A non-default cfg.BaseURL redirects
// every API call to that host, e.g. a proxy or a local test server.
func NewNotionSink(cfg config.NotionConfig, httpClient *http.Client, text *utils.TextProcessor, logger *zap.Logger) *NotionSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if text == nil {
		text = utils.NewTextProcessor(logger)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if cfg.BaseURL != "" && strings.TrimRight(cfg.BaseURL, "/") != notionDefaultURL {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil || base.Host == "" {
			logger.Warn("Ignoring invalid notion.base_url", zap.String("base_url", cfg.BaseURL))
		} else {
			redirected := *httpClient
			next := redirected.Transport
			if next == nil {
				next = http.DefaultTransport
			}
			redirected.Transport = &baseURLTransport{base: base, next: next}
			httpClient = &redirected
		}
	}

	opts := []notionapi.ClientOption{notionapi.WithHTTPClient(httpClient)}
	if cfg.Version != "" {
		opts = append(opts, notionapi.WithVersion(cfg.Version))
	}

	return &NotionSink{
		cfg:    cfg,
		client: notionapi.NewClient(notionapi.Token(cfg.APIKey), opts...),
		text:   text,
		logger: logger,
		nowFn:  time.Now,
	}
}

// Name returns the sink name
func (s *NotionSink) Name() string {
	return "notion"
}

// Validate checks that the sink is configured
func (s *NotionSink) Validate() error {
	if s.cfg.APIKey == "" {
		return ErrNotionAPIKeyMissing
	}
	if s.cfg.DatabaseID == "" {
		return ErrNotionDatabaseMissing
	}
	return nil
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}

// Save creates a database page for the submission
func (s *NotionSink) Save(ctx context.Context, submission *core.Submission, spamScore int) (*core.SaveResult, error) {
	if err := s.Validate(); err != nil {
		s.logger.Error("Notion configuration invalid", zap.Error(err))
		return nil, err
	}

	message := s.text.ProcessText(submission.Message, notionRichTextLimit)

	s.logger.Info("Saving submission to Notion",
		zap.String("database_id", s.text.Preview(s.cfg.DatabaseID, 8)),
		zap.Int("spam_score", spamScore),
		zap.Int("message_length", len([]rune(message))))

	submittedAt := notionapi.Date(s.nowFn().UTC())
	page, err := s.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.cfg.DatabaseID),
		},
		Properties: notionapi.Properties{
			"名前":      notionapi.TitleProperty{Title: richText(strings.TrimSpace(submission.Name))},
			"メールアドレス": notionapi.EmailProperty{Email: strings.TrimSpace(submission.Email)},
			"メッセージ":   notionapi.RichTextProperty{RichText: richText(message)},
			"スパムスコア":  notionapi.NumberProperty{Number: float64(spamScore)},
			"ステータス":   notionapi.SelectProperty{Select: notionapi.Option{Name: notionStatusNew}},
			"送信日時":    notionapi.DateProperty{Date: &notionapi.DateObject{Start: &submittedAt}},
		},
	})
	if err != nil {
		s.logger.Error("Failed to save to Notion",
			zap.Error(err),
			zap.String("code", errorCode(err)),
			zap.Int("spam_score", spamScore))
		return nil, fmt.Errorf("notion save failed: %w", err)
	}

	s.logger.Info("Saved submission to Notion",
		zap.String("notion_id", string(page.ID)),
		zap.Int("spam_score", spamScore))

	return &core.SaveResult{ID: string(page.ID)}, nil
}

// Ping retrieves the configured database to verify access
func (s *NotionSink) Ping(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if _, err := s.client.Database.Get(ctx, notionapi.DatabaseID(s.cfg.DatabaseID)); err != nil {
		s.logger.Error("Notion connection test failed", zap.Error(err), zap.String("code", errorCode(err)))
		return fmt.Errorf("notion ping failed: %w", err)
	}

	s.logger.Info("Notion connection test successful",
		zap.String("database_id", s.text.Preview(s.cfg.DatabaseID, 8)))
	return nil
}

func errorCode(err error) string {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return string(apiErr.Code)
	}
	return ""
}

// baseURLTransport sends requests to base instead of the host the client chose
type baseURLTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *baseURLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.base.Scheme
	req.URL.Host = t.base.Host
	req.URL.Path = strings.TrimRight(t.base.Path, "/") + req.URL.Path
	req.Host = t.base.Host
	return t.next.RoundTrip(req)
}

package factory

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mikey/contact-guard/internal/adapters/notify"
	"github.com/mikey/contact-guard/internal/adapters/ratelimit"
	"github.com/mikey/contact-guard/internal/adapters/sink"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	v := config.NewEmptyViper()
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestStoreFactory(t *testing.T) {
	f := NewStoreFactory(newConfig(t, nil), zap.NewNop())
	store, err := f.CreateRateLimitStore()
	if err != nil {
		t.Fatalf("CreateRateLimitStore: %v", err)
	}
	mem, ok := store.(*ratelimit.MemoryStore)
	if !ok {
		t.Fatalf("store = %T, want *ratelimit.MemoryStore", store)
	}
	mem.Stop()

	policy, err := f.RatePolicy()
	if err != nil {
		t.Fatal(err)
	}
	if policy != core.DefaultRatePolicy() {
		t.Errorf("policy = %+v, want defaults", policy)
	}

	f = NewStoreFactory(newConfig(t, map[string]any{"ratelimit.store": "etcd"}), zap.NewNop())
	if _, err := f.CreateRateLimitStore(); err == nil {
		t.Error("expected unsupported store error")
	}

	f = NewStoreFactory(newConfig(t, map[string]any{"ratelimit.stale_after": "10m"}), zap.NewNop())
	if _, err := f.CreateRateLimitStore(); err == nil {
		t.Error("expected stale_after validation error")
	}
}

func TestSinkFactory(t *testing.T) {
	text := utils.NewTextProcessor(nil)

	tests := []struct {
		name      string
		overrides map[string]any
		wantName  string
		wantErr   bool
	}{
		{name: "notion default", overrides: nil, wantName: "notion"},
		{name: "log", overrides: map[string]any{"sink.type": "log"}, wantName: "log"},
		{name: "mysql without dsn", overrides: map[string]any{"sink.type": "mysql"}, wantErr: true},
		{name: "postgres without dsn", overrides: map[string]any{"sink.type": "postgres"}, wantErr: true},
		{name: "unsupported", overrides: map[string]any{"sink.type": "s3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides := map[string]any{"sink.mysql_dsn": "", "sink.postgres_dsn": ""}
			for k, v := range tt.overrides {
				overrides[k] = v
			}
			s, err := NewSinkFactory(newConfig(t, overrides), zap.NewNop(), text).CreateSink()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %T", s)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSink: %v", err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}

func TestSinkFactorySQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "contact.db")
	f := NewSinkFactory(newConfig(t, map[string]any{
		"sink.type":        "sqlite",
		"sink.sqlite_path": path,
	}), zap.NewNop(), nil)

	s, err := f.CreateSink()
	if err != nil {
		t.Fatalf("CreateSink: %v", err)
	}
	sqlSink, ok := s.(*sink.SQLSink)
	if !ok {
		t.Fatalf("sink = %T, want *sink.SQLSink", s)
	}
	defer sqlSink.Stop()

	res, err := sqlSink.Save(context.Background(), &core.Submission{
		Name:    "山田太郎",
		Email:   "taro@example.jp",
		Message: "お問い合わせ内容です。",
	}, 0)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.ID == "" {
		t.Error("expected generated id")
	}
}

func TestNotifierFactory(t *testing.T) {
	n, err := NewNotifierFactory(newConfig(t, nil), zap.NewNop()).CreateNotifier()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(notify.Noop); !ok {
		t.Errorf("notifier = %T, want notify.Noop", n)
	}

	_, err = NewNotifierFactory(newConfig(t, map[string]any{
		"smtp.enabled": true,
		"smtp.to":      []string{},
	}), zap.NewNop()).CreateNotifier()
	if err == nil {
		t.Error("expected error for enabled SMTP without recipients")
	}

	n, err = NewNotifierFactory(newConfig(t, map[string]any{
		"smtp.enabled": true,
		"smtp.address": "localhost:2525",
		"smtp.from":    "guard@example.com",
		"smtp.to":      []string{"owner@example.com"},
	}), zap.NewNop()).CreateNotifier()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(*notify.SMTPNotifier); !ok {
		t.Errorf("notifier = %T, want *notify.SMTPNotifier", n)
	}
}

func TestGuardFactoryRules(t *testing.T) {
	cfg := newConfig(t, map[string]any{
		"spam.rules.max_urls":      0,
		"spam.keywords":            []string{"seo"},
		"spam.rules.match_timeout": "1s",
	})
	sc, err := cfg.GetSpam()
	if err != nil {
		t.Fatal(err)
	}

	rules := NewGuardFactory(cfg, zap.NewNop(), nil).Rules(sc)
	if rules.MaxURLs != 0 {
		t.Errorf("MaxURLs = %d, want the configured 0", rules.MaxURLs)
	}
	if len(rules.Keywords) != 1 || rules.Keywords[0] != "seo" {
		t.Errorf("Keywords = %v", rules.Keywords)
	}
	if rules.MatchTimeout != time.Second {
		t.Errorf("MatchTimeout = %s, want 1s", rules.MatchTimeout)
	}
	if rules.MaxNameLength != core.DefaultContentRules().MaxNameLength {
		t.Errorf("MaxNameLength = %d, want default", rules.MaxNameLength)
	}

	analyzer, err := core.NewContentAnalyzer(rules, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	analysis, err := analyzer.Analyze("Taro", "taro@example.com", "Portfolio link: https://example.com/works")
	if err != nil {
		t.Fatal(err)
	}
	if analysis.Score != 1 {
		t.Errorf("Score = %d, want 1 for a single URL with max_urls 0 (reasons %v)", analysis.Score, analysis.Reasons)
	}
}

func TestGuardFactoryRulesUnsetKeepDefaults(t *testing.T) {
	f := NewGuardFactory(config.NewFromViper(viper.New()), zap.NewNop(), nil)
	if got := f.Rules(config.SpamConfig{}); !reflect.DeepEqual(got, core.DefaultContentRules()) {
		t.Errorf("Rules = %+v, want defaults", got)
	}
}

func TestGuardFactoryCreateSpamGuard(t *testing.T) {
	store := ratelimit.NewMemoryStore(core.DefaultRatePolicy(), nil, 0)

	guard, err := NewGuardFactory(newConfig(t, map[string]any{
		"spam.disposable_domains": []string{"throwaway.test"},
	}), zap.NewNop(), utils.NewTextProcessor(nil)).CreateSpamGuard(store)
	if err != nil {
		t.Fatalf("CreateSpamGuard: %v", err)
	}

	verdict := guard.Check(context.Background(), &core.Submission{
		Name:           "Taro",
		Email:          "taro@throwaway.test",
		Message:        "Hello, I would like to ask about your services.",
		ClientIdentity: "203.0.113.7",
	})
	if verdict.Score != 2 {
		t.Errorf("Score = %d, want 2 for the configured disposable domain (reasons %v)", verdict.Score, verdict.Reasons)
	}

	_, err = NewGuardFactory(newConfig(t, map[string]any{"spam.threshold": 0}), zap.NewNop(), nil).CreateSpamGuard(store)
	if err == nil {
		t.Error("expected threshold validation error")
	}
}

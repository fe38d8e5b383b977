package sink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jomei/notionapi"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
)

func newTestNotion(t *testing.T, handler http.HandlerFunc) *NotionSink {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewNotionSink(config.NotionConfig{
		APIKey:     "secret_test",
		DatabaseID: "db0123456789",
		BaseURL:    srv.URL,
		Version:    "2022-06-28",
	}, srv.Client(), nil, nil)
}

func TestNotionSave(t *testing.T) {
	var got map[string]any
	s := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/pages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret_test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Notion-Version") != "2022-06-28" {
			t.Errorf("Notion-Version = %q", r.Header.Get("Notion-Version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"page","id":"page-42"}`))
	})

	res, err := s.Save(context.Background(), &core.Submission{
		Name:    " 山田太郎 ",
		Email:   "taro@example.com",
		Message: strings.Repeat("あ", 2100),
	}, 3)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.ID != "page-42" {
		t.Errorf("ID = %q, want page-42", res.ID)
	}

	parent := got["parent"].(map[string]any)
	if parent["database_id"] != "db0123456789" {
		t.Errorf("parent = %v", parent)
	}
	props := got["properties"].(map[string]any)
	for _, key := range []string{"名前", "メールアドレス", "メッセージ", "スパムスコア", "ステータス", "送信日時"} {
		if _, ok := props[key]; !ok {
			t.Errorf("missing property %s", key)
		}
	}

	title := props["名前"].(map[string]any)["title"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	if title != "山田太郎" {
		t.Errorf("title = %v", title)
	}
	msg := props["メッセージ"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"].(string)
	if n := utf8.RuneCountInString(msg); n != 2000 {
		t.Errorf("message runes = %d, want 2000", n)
	}
	if score := props["スパムスコア"].(map[string]any)["number"]; score != float64(3) {
		t.Errorf("score = %v", score)
	}
	status := props["ステータス"].(map[string]any)["select"].(map[string]any)["name"]
	if status != "未対応" {
		t.Errorf("status = %v", status)
	}
}

func TestNotionSaveAPIError(t *testing.T) {
	s := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"bad property"}`))
	})

	_, err := s.Save(context.Background(), &core.Submission{Name: "a", Email: "b@c.d", Message: "hello"}, 0)
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want a notion API error", err)
	}
	if apiErr.Code != "validation_error" || apiErr.Message != "bad property" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if errorCode(err) != "validation_error" {
		t.Errorf("errorCode = %q", errorCode(err))
	}
}

func TestNotionBaseURLWithPathPrefix(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"object":"database","id":"db0123456789"}`))
	}))
	t.Cleanup(srv.Close)

	s := NewNotionSink(config.NotionConfig{
		APIKey:     "secret_test",
		DatabaseID: "db0123456789",
		BaseURL:    srv.URL + "/notion/",
	}, nil, nil, nil)

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if path != "/notion/v1/databases/db0123456789" {
		t.Errorf("path = %q", path)
	}
}

func TestNotionValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.NotionConfig
		want error
	}{
		{"missing key", config.NotionConfig{DatabaseID: "db"}, ErrNotionAPIKeyMissing},
		{"missing database", config.NotionConfig{APIKey: "k"}, ErrNotionDatabaseMissing},
		{"ok", config.NotionConfig{APIKey: "k", DatabaseID: "db"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewNotionSink(tt.cfg, nil, nil, nil)
			if err := s.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNotionPing(t *testing.T) {
	s := newTestNotion(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/databases/db0123456789" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"object":"database"}`))
	})

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestLogSink(t *testing.T) {
	s := NewLogSink(nil)
	res, err := s.Save(context.Background(), &core.Submission{Name: "a"}, 1)
	if err != nil || res.ID == "" {
		t.Errorf("Save = %+v, %v", res, err)
	}
	if s.Name() != "log" {
		t.Errorf("Name = %q", s.Name())
	}
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mikey/contact-guard/internal/adapters/ratelimit"
	"github.com/mikey/contact-guard/internal/content"
	"github.com/mikey/contact-guard/internal/core"
)

type pingSink struct{ err error }

func (s pingSink) Save(context.Context, *core.Submission, int) (*core.SaveResult, error) {
	return &core.SaveResult{}, nil
}
func (s pingSink) Ping(context.Context) error { return s.err }
func (s pingSink) Name() string               { return "stub" }

func newChecker(t *testing.T, sink core.SubmissionSink, loader *content.Loader) (*Checker, *bytes.Buffer) {
	t.Helper()
	analyzer, err := core.NewContentAnalyzer(core.DefaultContentRules(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	guard := core.NewSpamGuard(ratelimit.NewMemoryStore(core.DefaultRatePolicy(), nil, 0), analyzer, nil, 5)
	var out bytes.Buffer
	return NewChecker(guard, sink, loader, nil, &out, true), &out
}

func TestCheck(t *testing.T) {
	c, out := newChecker(t, nil, nil)

	input := `{"name":"Bot","email":"not-an-email","message":"CLICK HERE to win at the casino http://a.example"}`
	verdict, err := c.Check(context.Background(), strings.NewReader(input), "cli")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !verdict.IsSpam {
		t.Errorf("verdict = %+v, want spam", verdict)
	}
	for _, want := range []string{"Is spam: true", "Invalid email format", "Keywords: click here, casino"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckInvalidJSON(t *testing.T) {
	c, _ := newChecker(t, nil, nil)
	if _, err := c.Check(context.Background(), strings.NewReader("{"), "cli"); err == nil {
		t.Error("expected parse error")
	}
}

func TestPingSink(t *testing.T) {
	c, out := newChecker(t, pingSink{}, nil)
	if err := c.PingSink(context.Background()); err != nil {
		t.Errorf("PingSink: %v", err)
	}
	if !strings.Contains(out.String(), "Sink stub: OK") {
		t.Errorf("output = %s", out)
	}

	c, _ = newChecker(t, pingSink{err: errors.New("unauthorized")}, nil)
	if err := c.PingSink(context.Background()); err == nil {
		t.Error("expected ping failure")
	}
}

func TestValidateContent(t *testing.T) {
	c, out := newChecker(t, nil, content.NewLoader(t.TempDir(), t.TempDir(), nil))
	if c.ValidateContent() {
		t.Error("expected missing content")
	}
	if !strings.Contains(out.String(), "about.md") {
		t.Errorf("output = %s", out)
	}
}

func TestCheckVerbosePreviewTruncates(t *testing.T) {
	c, out := newChecker(t, nil, nil)

	input := `{"name":"山田太郎","email":"taro@example.jp","message":"` + strings.Repeat("あ", 600) + `"}`
	if _, err := c.Check(context.Background(), strings.NewReader(input), "cli"); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !strings.Contains(out.String(), strings.Repeat("あ", 500)+"...") {
		t.Error("expected a 500 character preview")
	}
	if strings.Contains(out.String(), strings.Repeat("あ", 501)) {
		t.Error("preview was not truncated")
	}
}

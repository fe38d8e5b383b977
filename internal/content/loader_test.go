package content

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader(t *testing.T) {
	contentDir, dataDir := t.TempDir(), t.TempDir()
	writeFile(t, contentDir, AboutFile, "# About\n\nHello *world*.\n")
	writeFile(t, dataDir, ResumeFile, `{"name":"Taro"}`)
	writeFile(t, dataDir, SkillsFile, `not json`)

	l := NewLoader(contentDir, dataDir, nil)

	html, err := l.About()
	if err != nil {
		t.Fatalf("About: %v", err)
	}
	if !strings.Contains(html, "<h1>About</h1>") || !strings.Contains(html, "<em>world</em>") {
		t.Errorf("unexpected html: %s", html)
	}

	resume, err := l.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if string(resume) != `{"name":"Taro"}` {
		t.Errorf("resume = %s", resume)
	}

	if _, err := l.Skills(); err == nil {
		t.Error("expected error for invalid JSON")
	}

	if missing := l.ValidateSetup(); len(missing) != 0 {
		t.Errorf("missing = %v", missing)
	}
}

func TestLoaderMissingFiles(t *testing.T) {
	l := NewLoader(t.TempDir(), t.TempDir(), nil)

	if _, err := l.About(); !errors.Is(err, ErrNotFound) {
		t.Errorf("About err = %v, want ErrNotFound", err)
	}
	if missing := l.ValidateSetup(); len(missing) != 3 {
		t.Errorf("missing = %v, want 3 entries", missing)
	}
}

func TestLoaderRejectsTraversal(t *testing.T) {
	l := NewLoader(t.TempDir(), t.TempDir(), nil)

	if _, err := l.JSON("../secrets.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

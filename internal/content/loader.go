package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

// Required site content files
const (
	AboutFile  = "about.md"
	ResumeFile = "resume.json"
	SkillsFile = "skills.json"
)

// ErrNotFound is returned when a content file does not exist
var ErrNotFound = errors.New("content not found")

// Loader reads the markdown and JSON content that backs the static pages
type Loader struct {
	contentPath string
	dataPath    string
	md          goldmark.Markdown
	logger      *zap.Logger
}

// NewLoader creates a new content loader
func NewLoader(contentPath, dataPath string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		contentPath: contentPath,
		dataPath:    dataPath,
		md:          goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger:      logger,
	}
}

// Markdown renders a markdown file from the content directory to HTML
func (l *Loader) Markdown(name string) (string, error) {
	path, err := within(l.contentPath, name)
	if err != nil {
		return "", err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return "", l.readError(path, name, err)
	}

	var buf bytes.Buffer
	if err := l.md.Convert(source, &buf); err != nil {
		l.logger.Error("Failed to render markdown", zap.String("file", path), zap.Error(err))
		return "", fmt.Errorf("could not render %s: %w", name, err)
	}
	return buf.String(), nil
}

// JSON returns the raw, validated contents of a data file
func (l *Loader) JSON(name string) (json.RawMessage, error) {
	path, err := within(l.dataPath, name)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, l.readError(path, name, err)
	}
	if !json.Valid(raw) {
		l.logger.Error("Invalid JSON content", zap.String("file", path))
		return nil, fmt.Errorf("could not load %s: invalid JSON", name)
	}
	return json.RawMessage(raw), nil
}

// About renders about.md
func (l *Loader) About() (string, error) {
	return l.Markdown(AboutFile)
}

// Resume loads resume.json
func (l *Loader) Resume() (json.RawMessage, error) {
	return l.JSON(ResumeFile)
}

// Skills loads skills.json
func (l *Loader) Skills() (json.RawMessage, error) {
	return l.JSON(SkillsFile)
}

// ValidateSetup returns the required files that are missing
func (l *Loader) ValidateSetup() []string {
	required := []string{
		filepath.Join(l.contentPath, AboutFile),
		filepath.Join(l.dataPath, ResumeFile),
		filepath.Join(l.dataPath, SkillsFile),
	}

	var missing []string
	for _, file := range required {
		if _, err := os.Stat(file); err != nil {
			missing = append(missing, file)
		}
	}

	if len(missing) > 0 {
		l.logger.Warn("Missing content files",
			zap.Strings("files", missing),
			zap.String("hint", "copy the .example files and add your content"))
	}
	return missing
}

func (l *Loader) readError(path, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	l.logger.Error("Failed to read content file", zap.String("file", path), zap.Error(err))
	return fmt.Errorf("could not load %s: %w", name, err)
}

// within joins name onto base, refusing paths that escape it
func within(base, name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return filepath.Join(base, name), nil
}

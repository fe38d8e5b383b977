package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/contact-guard/internal/adapters/sink"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/utils"
	"go.uber.org/zap"
)

// SinkFactory creates submission sinks based on configuration
type SinkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	text   *utils.TextProcessor
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config, logger *zap.Logger, text *utils.TextProcessor) *SinkFactory {
	return &SinkFactory{
		cfg:    cfg,
		logger: logger,
		text:   text,
	}
}

// CreateSink creates a submission sink based on the configuration
func (f *SinkFactory) CreateSink() (core.SubmissionSink, error) {
	sc := f.cfg.GetSink()
	logger := f.logger.Named("sink")

	switch sc.Type {
	case "notion", "":
		nc, err := f.cfg.GetNotion()
		if err != nil {
			return nil, fmt.Errorf("invalid notion configuration: %w", err)
		}
		s := sink.NewNotionSink(nc, nil, f.text, logger)
		// Missing credentials surface per request as a save failure
		if err := s.Validate(); err != nil {
			logger.Warn("Notion sink is not fully configured", zap.Error(err))
		}
		return s, nil
	case "sqlite", "sqlite3":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return f.openSQL(sink.SQLite, sc.SQLitePath, logger)
	case "mysql":
		return f.openSQL(sink.MySQL, sc.MySQLDSN, logger)
	case "postgres", "postgresql":
		return f.openSQL(sink.Postgres, sc.PostgresDSN, logger)
	case "log":
		return sink.NewLogSink(logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", sc.Type)
	}
}

func (f *SinkFactory) openSQL(dialect sink.Dialect, dsn string, logger *zap.Logger) (core.SubmissionSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("no DSN configured for %s sink", dialect.Name)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return sink.NewSQLSink(ctx, dialect, dsn, logger)
}

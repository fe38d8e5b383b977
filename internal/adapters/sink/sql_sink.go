package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/utils"
	"go.uber.org/zap"
)

// Dialect describes the SQL flavour of a database
type Dialect struct {
	Name   string
	Driver string
	Schema string
	// Placeholder returns the bind marker for the n-th (1-based) argument
	Placeholder func(n int) string
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite3",
		Schema: `
			CREATE TABLE IF NOT EXISTS contact_submissions (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				message TEXT NOT NULL,
				spam_score INTEGER NOT NULL,
				status TEXT NOT NULL,
				submitted_at TIMESTAMP NOT NULL
			)`,
		Placeholder: func(int) string { return "?" },
	}

	MySQL = Dialect{
		Name:   "mysql",
		Driver: "mysql",
		Schema: `
			CREATE TABLE IF NOT EXISTS contact_submissions (
				id CHAR(36) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL,
				message TEXT NOT NULL,
				spam_score INT NOT NULL,
				status VARCHAR(32) NOT NULL,
				submitted_at TIMESTAMP NOT NULL,
				INDEX idx_submitted_at (submitted_at)
			) DEFAULT CHARSET=utf8mb4`,
		Placeholder: func(int) string { return "?" },
	}

	Postgres = Dialect{
		Name:   "postgres",
		Driver: "pgx",
		Schema: `
			CREATE TABLE IF NOT EXISTS contact_submissions (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				message TEXT NOT NULL,
				spam_score INTEGER NOT NULL,
				status TEXT NOT NULL,
				submitted_at TIMESTAMPTZ NOT NULL
			)`,
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

// DialectByName returns the dialect registered under name
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported SQL dialect: %s", name)
	}
}

// SQLSink is a database/sql implementation of the SubmissionSink interface
type SQLSink struct {
	db      *sql.DB
	dialect Dialect
	text    *utils.TextProcessor
	logger  *zap.Logger
	nowFn   func() time.Time
	newID   func() string
}

// NewSQLSink opens the database, verifies the connection and creates the table
func NewSQLSink(ctx context.Context, dialect Dialect, dsn string, logger *zap.Logger) (*SQLSink, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect.Name, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect.Name, err)
	}

	s := NewSQLSinkFromDB(db, dialect, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewSQLSinkFromDB wraps an already opened database
func NewSQLSinkFromDB(db *sql.DB, dialect Dialect, logger *zap.Logger) *SQLSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLSink{
		db:      db,
		dialect: dialect,
		text:    utils.NewTextProcessor(logger),
		logger:  logger,
		nowFn:   time.Now,
		newID:   uuid.NewString,
	}
}

// Migrate creates the submissions table if it doesn't exist
func (s *SQLSink) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Name returns the sink name
func (s *SQLSink) Name() string {
	return s.dialect.Name
}

// Save inserts the submission
func (s *SQLSink) Save(ctx context.Context, submission *core.Submission, spamScore int) (*core.SaveResult, error) {
	id := s.newID()
	query := fmt.Sprintf(`
		INSERT INTO contact_submissions (id, name, email, message, spam_score, status, submitted_at)
		VALUES (%s)
	`, s.placeholders(7))

	_, err := s.db.ExecContext(ctx, query,
		id,
		strings.TrimSpace(submission.Name),
		strings.TrimSpace(submission.Email),
		s.text.ProcessText(submission.Message, notionRichTextLimit),
		spamScore,
		notionStatusNew,
		s.nowFn().UTC(),
	)
	if err != nil {
		s.logger.Error("Failed to insert submission", zap.Error(err), zap.String("sink", s.dialect.Name))
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}

	s.logger.Info("Saved submission",
		zap.String("sink", s.dialect.Name),
		zap.String("id", id),
		zap.Int("spam_score", spamScore))

	return &core.SaveResult{ID: id}, nil
}

// Ping verifies the database connection
func (s *SQLSink) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", s.dialect.Name, err)
	}
	return nil
}

// Stop closes the database connection
func (s *SQLSink) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err), zap.String("sink", s.dialect.Name))
	}
}

func (s *SQLSink) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = s.dialect.Placeholder(i + 1)
	}
	return strings.Join(marks, ", ")
}

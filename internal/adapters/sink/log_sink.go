package sink

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mikey/contact-guard/internal/core"
	"go.uber.org/zap"
)

// LogSink writes submissions to the log. Intended for local development.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log sink
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Name returns the sink name
func (s *LogSink) Name() string {
	return "log"
}

// Save logs the submission without its contact details
func (s *LogSink) Save(ctx context.Context, submission *core.Submission, spamScore int) (*core.SaveResult, error) {
	id := uuid.NewString()
	s.logger.Info("Submission received",
		zap.String("id", id),
		zap.Int("spam_score", spamScore),
		zap.Int("name_length", utf8.RuneCountInString(submission.Name)),
		zap.Int("message_length", utf8.RuneCountInString(submission.Message)))
	return &core.SaveResult{ID: id}, nil
}

// Ping always succeeds
func (s *LogSink) Ping(ctx context.Context) error {
	return nil
}

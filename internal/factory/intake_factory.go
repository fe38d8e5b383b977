package factory

import (
	"fmt"

	"github.com/mikey/contact-guard/internal/adapters/httpapi"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/content"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/logging"
	"github.com/mikey/contact-guard/internal/metrics"
	"github.com/mikey/contact-guard/internal/ports"
	"go.uber.org/zap"
)

// IntakeFactory creates the submission intake based on configuration
type IntakeFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(cfg *config.Config, logger *zap.Logger) *IntakeFactory {
	return &IntakeFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateIntake creates the HTTP intake serving the contact API
func (f *IntakeFactory) CreateIntake(
	guard *core.SpamGuard,
	sink core.SubmissionSink,
	notifier core.Notifier,
	loader *content.Loader,
	m *metrics.Metrics,
	anon *logging.IPAnonymizer,
) (ports.Intake, error) {
	sc, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	return httpapi.NewServer(sc, f.cfg.GetMetrics(), httpapi.Deps{
		Guard:      guard,
		Sink:       sink,
		Notifier:   notifier,
		Content:    loader,
		Metrics:    m,
		Anonymizer: anon,
		Logger:     f.logger.Named("http"),
	}), nil
}

package factory

import (
	"github.com/mikey/contact-guard/internal/adapters/notify"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates owner notifiers based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier returns the SMTP notifier when enabled, otherwise a no-op
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	sc := f.cfg.GetSMTP()
	if !sc.Enabled {
		return notify.Noop{}, nil
	}
	return notify.NewSMTPNotifier(sc, f.logger.Named("notify"))
}

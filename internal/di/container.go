package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/content"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/factory"
	"github.com/mikey/contact-guard/internal/logging"
	"github.com/mikey/contact-guard/internal/metrics"
	"github.com/mikey/contact-guard/internal/ports"
	"github.com/mikey/contact-guard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register metrics, exporting the store size
	if err := container.Provide(func(store core.RateLimitStore) *metrics.Metrics {
		m := metrics.NewMetrics()
		m.TrackRateLimitEntries(store)
		return m
	}); err != nil {
		return nil, err
	}

	// Register IP anonymizer
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *logging.IPAnonymizer {
		salt := cfg.GetLogging().IPSalt
		if salt == "" {
			logger.Warn("logging.ip_salt is empty; client hashes are not secret")
		}
		return logging.NewIPAnonymizer(salt)
	}); err != nil {
		return nil, err
	}

	// Register content loader
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *content.Loader {
		cc := cfg.GetContent()
		loader := content.NewLoader(cc.ContentPath, cc.DataPath, logger.Named("content"))
		if missing := loader.ValidateSetup(); len(missing) > 0 {
			logger.Warn("Content files missing", zap.Strings("missing", missing))
		}
		return loader
	}); err != nil {
		return nil, err
	}

	// Register intake
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		f *factory.IntakeFactory,
		guard *core.SpamGuard,
		sink core.SubmissionSink,
		notifier core.Notifier,
		loader *content.Loader,
		m *metrics.Metrics,
		anon *logging.IPAnonymizer,
	) (ports.Intake, error) {
		return f.CreateIntake(guard, sink, notifier, loader, m, anon)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers the factories and services shared by the server and the CLI.
// A *config.Config and *zap.Logger must already be provided.
func provideCommon(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewSinkFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewGuardFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register rate limit store
	if err := container.Provide(func(f *factory.StoreFactory) (core.RateLimitStore, error) {
		return f.CreateRateLimitStore()
	}); err != nil {
		return err
	}

	// Register submission sink
	if err := container.Provide(func(f *factory.SinkFactory) (core.SubmissionSink, error) {
		return f.CreateSink()
	}); err != nil {
		return err
	}

	// Register spam guard
	if err := container.Provide(func(f *factory.GuardFactory, store core.RateLimitStore) (*core.SpamGuard, error) {
		return f.CreateSpamGuard(store)
	}); err != nil {
		return err
	}

	return nil
}

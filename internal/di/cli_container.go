package di

import (
	"flag"
	"io"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/contact-guard/internal/adapters/cli"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/content"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Spam detection flags
	SpamThreshold int
	Client        string

	// Sink flags
	Sink     string
	PingSink bool

	// Content flags
	ValidateContent bool

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags, _ := parseFlags(flag.CommandLine, os.Args[1:])
	return flags
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}

	// Spam detection flags
	fs.IntVar(&flags.SpamThreshold, "threshold", 5, "Score at or above which a submission is spam")
	fs.StringVar(&flags.Client, "client", "cli", "Client identity used for rate limiting when the input has none")

	// Sink flags
	fs.StringVar(&flags.Sink, "sink", "log", "Sink to test with -ping-sink (notion, sqlite, mysql, postgres, log)")
	fs.BoolVar(&flags.PingSink, "ping-sink", false, "Test the sink connection and exit")

	// Content flags
	fs.BoolVar(&flags.ValidateContent, "validate-content", false, "Check that all content files exist and exit")

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Input submission JSON file (use stdin if not specified)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register content loader
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *content.Loader {
		cc := cfg.GetContent()
		return content.NewLoader(cc.ContentPath, cc.DataPath, logger.Named("content"))
	}); err != nil {
		return nil, err
	}

	// Register checker
	if err := container.Provide(func(
		flags *CLIFlags,
		guard *core.SpamGuard,
		sink core.SubmissionSink,
		loader *content.Loader,
		logger *zap.Logger,
	) *cli.Checker {
		return cli.NewChecker(guard, sink, loader, logger, out, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// One-shot checks never share state
	v.Set("ratelimit.store", "memory")
	v.Set("ratelimit.sweep_interval", "0s")

	v.Set("sink.type", flags.Sink)
	v.Set("spam.threshold", flags.SpamThreshold)

	return config.NewFromViper(v)
}

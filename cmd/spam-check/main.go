package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/contact-guard/internal/adapters/cli"
	"github.com/mikey/contact-guard/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags, os.Stdout)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	var code int
	if err := container.Invoke(func(checker *cli.Checker, logger *zap.Logger) {
		defer logger.Sync()
		code = run(flags, checker, logger)
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// run executes the requested check and returns the process exit code.
// A spam or rate limited verdict exits with 2 so scripts can branch on it.
func run(flags *di.CLIFlags, checker *cli.Checker, logger *zap.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if flags.ValidateContent {
		if !checker.ValidateContent() {
			return 1
		}
		return 0
	}

	if flags.PingSink {
		if err := checker.PingSink(ctx); err != nil {
			logger.Error("Sink connection test failed", zap.Error(err))
			return 1
		}
		return 0
	}

	// Read submission from file or stdin
	var input io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Error("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
			return 1
		}
		defer file.Close()
		input = file
		logger.Info("Reading submission from file", zap.String("file", flags.InputFile))
	} else {
		input = os.Stdin
		logger.Info("Reading submission from stdin")
	}

	verdict, err := checker.Check(ctx, input, flags.Client)
	if err != nil {
		logger.Error("Failed to check submission", zap.Error(err))
		return 1
	}
	if !verdict.Allow {
		return 2
	}
	return 0
}

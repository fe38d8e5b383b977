package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/contact-guard/internal/core"
	"github.com/mikey/contact-guard/internal/di"
	"github.com/mikey/contact-guard/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	intake ports.Intake,
	store core.RateLimitStore,
	sink core.SubmissionSink,
) error {
	defer logger.Sync()

	logger.Info("Starting contact guard", zap.String("sink", sink.Name()))

	// Start the intake
	if err := intake.Start(); err != nil {
		logger.Error("Failed to start intake", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the intake, waiting for in-flight requests and notifications
	if err := intake.Stop(); err != nil {
		logger.Error("Failed to stop intake", zap.Error(err))
	}

	// Stop the store and sink if needed
	if stopper, ok := store.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if stopper, ok := sink.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	"go.uber.org/fx"

	usecase "github.com/tigerroll/surfin-flow/pkg/ingest/core/application/usecase"
	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/logger"
)

// embeddedConfig holds resources/application.yaml.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// startCompile runs one compile when the application starts and shuts the
// application down afterwards. A failed run exits with code 1.
func startCompile(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	runner *usecase.PlanRunner,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				exitCode := 0
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in compile run: %v", r)
						exitCode = 1
					}
					logger.Infof("Requesting application shutdown after compile.")
					if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				result, err := runner.Run(appCtx)
				if err != nil {
					logger.Errorf("Compile failed: %v", err)
					exitCode = 1
					return
				}
				logger.Infof("Compile run %s produced %d workflows.", result.RunID, len(result.Workflows))
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Cancelling compile...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, embeddedConfig)...)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
}

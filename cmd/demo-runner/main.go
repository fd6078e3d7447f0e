package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"

	writer "github.com/tigerroll/demorunner/pkg/batch/component/step/writer"
	usecase "github.com/tigerroll/demorunner/pkg/batch/core/application/usecase"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"

	"go.uber.org/fx"

	appjob "github.com/tigerroll/demorunner/internal/app/job"
)

// embeddedConfig holds the application's YAML configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// startJobExecution registers the hooks that run the demo job once and then stop the application.
func startJobExecution(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	jobLauncher *usecase.SimpleJobLauncher,
	jobExplorer usecase.JobExplorer,
	sink *writer.LineSink,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: onStartJobExecution(jobLauncher, jobExplorer, shutdowner, appCtx),
		OnStop:  onStopApplication(sink),
	})
}

// onStartJobExecution launches the job in the background. Shutdown is requested
// when the job returns, whatever its outcome.
func onStartJobExecution(
	jobLauncher *usecase.SimpleJobLauncher,
	jobExplorer usecase.JobExplorer,
	shutdowner fx.Shutdowner,
	appCtx context.Context,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic recovered in job execution: %v", r)
				}
				logger.Debugf("Requesting application shutdown after job completion.")

				if err := shutdowner.Shutdown(); err != nil {
					logger.Errorf("Failed to shutdown application: %v", err)
				}
			}()

			jobName := appjob.JobName
			logger.Infof("Starting job execution for job '%s'...", jobName)

			jobExecution, err := jobLauncher.Launch(appCtx, jobName, model.NewJobParameters())
			if err != nil {
				logger.Errorf("Failed to launch job '%s': %v", jobName, err)
				return
			}

			latest, err := jobExplorer.GetJobExecution(context.WithoutCancel(appCtx), jobExecution.ID)
			if err != nil {
				logger.Warnf("Failed to fetch final state of JobExecution (ID: %s): %v", jobExecution.ID, err)
				return
			}
			if latest.Status != model.BatchStatusCompleted {
				logger.Warnf("Job '%s' (Execution ID: %s) finished with status: %s, RunState: %s, Failures: %v",
					jobName, latest.ID, latest.Status, latest.RunState, latest.Failures)
				return
			}
			logger.Infof("Job '%s' (Execution ID: %s) finished with status: %s, RunState: %s",
				jobName, latest.ID, latest.Status, latest.RunState)
		}()
		return nil
	}
}

// onStopApplication flushes anything still buffered for stdout.
func onStopApplication(sink *writer.LineSink) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Debugf("Application is shutting down.")
		if err := sink.Flush(); err != nil {
			logger.Warnf("Failed to flush output: %v", err)
		}
		return nil
	}
}

// main is the entry point of the application. The exit status is always 0 once
// the application has been assembled; job outcomes are reported on stderr only.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the job...", sig)
		cancel()
	}()

	// A .env file is read only when ENV_FILE_PATH names one explicitly.
	envFilePath := os.Getenv("ENV_FILE_PATH")

	fxApp := fx.New(GetApplicationOptions(ctx, envFilePath, embeddedConfig, os.Stdout)...)
	fxApp.Run()
	if fxApp.Err() != nil {
		logger.Fatalf("Application run failed: %v", fxApp.Err())
	}
	os.Exit(0)
}

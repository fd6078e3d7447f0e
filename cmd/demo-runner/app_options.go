package main

import (
	"context"
	"io"

	local "github.com/tigerroll/demorunner/pkg/batch/adapter/storage/local"
	writer "github.com/tigerroll/demorunner/pkg/batch/component/step/writer"
	usecase "github.com/tigerroll/demorunner/pkg/batch/core/application/usecase"
	config "github.com/tigerroll/demorunner/pkg/batch/core/config"
	infraMetrics "github.com/tigerroll/demorunner/pkg/batch/infrastructure/metrics"
	inmemoryRepo "github.com/tigerroll/demorunner/pkg/batch/infrastructure/repository/inmemory"
	sqlRepo "github.com/tigerroll/demorunner/pkg/batch/infrastructure/repository/sql"
	batchlistener "github.com/tigerroll/demorunner/pkg/batch/listener"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"

	"go.uber.org/fx"

	appjob "github.com/tigerroll/demorunner/internal/app/job"
	apprunner "github.com/tigerroll/demorunner/internal/app/runner"
	appstep "github.com/tigerroll/demorunner/internal/step"
)

// GetApplicationOptions loads the configuration and builds the fx options of the application.
// stdout receives the run's output lines and nothing else. A configuration that fails to
// load or validate is replaced by the defaults, so the run itself never depends on it.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, stdout io.Writer) []fx.Option {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Warnf("Failed to load configuration, falling back to defaults: %v", err)
		cfg = config.NewConfig()
	}
	logger.SetLogLevel(cfg.Runner.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Runner.System.Logging.Level)

	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		cfg,
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
		fx.Annotate(stdout, fx.As(new(io.Writer)), fx.ResultTags(`name:"stdout"`)),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, infraMetrics.Module)
	options = append(options, repositoryModule(cfg))
	options = append(options, local.Module)
	options = append(options, writer.Module)
	options = append(options, usecase.Module)
	options = append(options, batchlistener.Module)
	options = append(options, apprunner.Module)
	options = append(options, appstep.Module)
	options = append(options, appjob.Module)
	options = append(options, fx.Invoke(fx.Annotate(startJobExecution, fx.ParamTags("", "", "", "", "", `name:"appCtx"`))))

	return options
}

// repositoryModule selects the JobRepository implementation.
func repositoryModule(cfg *config.Config) fx.Option {
	if cfg.Runner.Infrastructure.JobRepository == config.RepositorySQLite {
		return sqlRepo.Module
	}
	return inmemoryRepo.Module
}

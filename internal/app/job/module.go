package job

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/demorunner/pkg/batch/adapter/storage"
	writer "github.com/tigerroll/demorunner/pkg/batch/component/step/writer"
	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	config "github.com/tigerroll/demorunner/pkg/batch/core/config"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"

	appStep "github.com/tigerroll/demorunner/internal/step"
)

// DemoJobParams defines the dependencies of DemoJob.
type DemoJobParams struct {
	fx.In
	Config          *config.Config
	JobRepository   repository.JobRepository
	JobRunner       port.JobRunner
	Sink            *writer.LineSink
	Storage         storageAdapter.StorageConnection
	GreetingTasklet appStep.GreetingTaskletFactory
	StepListeners   []port.StepExecutionListener `group:"stepListeners"`
	MetricRecorder  metrics.MetricRecorder
	Tracer          metrics.Tracer
}

// provideDemoJob builds the job from the graph.
func provideDemoJob(p DemoJobParams) (port.Job, error) {
	return NewDemoJob(p.Config, p.JobRepository, p.JobRunner, p.Sink, p.Storage, p.GreetingTasklet, p.StepListeners, p.MetricRecorder, p.Tracer)
}

// Module registers demoJob in the "jobs" group read by the JobLauncher.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		provideDemoJob,
		fx.ResultTags(`group:"jobs"`),
	)),
)

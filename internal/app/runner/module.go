package runner

import (
	"go.uber.org/fx"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"
)

// DemoJobRunnerParams defines dependencies for DemoJobRunner.
type DemoJobRunnerParams struct {
	fx.In
	JobRepository repository.JobRepository
	Tracer        metrics.Tracer
	Listeners     []port.JobExecutionListener `group:"jobListeners"`
}

// NewJobRunner provides the concrete JobRunner implementation (DemoJobRunner).
func NewJobRunner(p DemoJobRunnerParams) *DemoJobRunner {
	return NewDemoJobRunner(p.JobRepository, p.Tracer, p.Listeners)
}

// Module provides the JobRunner implementation.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewJobRunner,
		fx.As(new(port.JobRunner)),
	)),
)

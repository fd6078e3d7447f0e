package usecase

import (
	"context"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

// JobLauncher is an interface for launching a Job with JobParameters.
type JobLauncher interface {
	// Launch runs the named Job with JobParameters and returns its finished JobExecution.
	// The error returned here indicates an error in the launch process itself, not an error in the job's execution.
	Launch(ctx context.Context, jobName string, params model.JobParameters) (*model.JobExecution, error)
}

// JobExplorer is an interface for querying batch metadata.
type JobExplorer interface {
	// GetJobExecution retrieves a JobExecution by its ID.
	GetJobExecution(ctx context.Context, executionID string) (*model.JobExecution, error)

	// GetStepExecution retrieves a StepExecution by its ID.
	GetStepExecution(ctx context.Context, stepExecutionID string) (*model.StepExecution, error)
}

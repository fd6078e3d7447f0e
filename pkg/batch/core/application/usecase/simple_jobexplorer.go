package usecase

import (
	"context"
	"fmt"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	exception "github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// SimpleJobExplorer is a simple implementation of the JobExplorer interface.
// It queries batch metadata using a JobRepository.
type SimpleJobExplorer struct {
	jobRepository repository.JobRepository
}

// Verify that SimpleJobExplorer implements the JobExplorer interface.
var _ JobExplorer = (*SimpleJobExplorer)(nil)

// NewSimpleJobExplorer creates a new instance of SimpleJobExplorer.
func NewSimpleJobExplorer(jobRepository repository.JobRepository) *SimpleJobExplorer {
	return &SimpleJobExplorer{
		jobRepository: jobRepository,
	}
}

// GetJobExecution retrieves a JobExecution by its ID.
func (e *SimpleJobExplorer) GetJobExecution(ctx context.Context, executionID string) (*model.JobExecution, error) {
	logger.Debugf("JobExplorer: GetJobExecution method called. Execution ID: %s", executionID)
	jobExecution, err := e.jobRepository.FindJobExecutionByID(ctx, executionID)
	if err != nil {
		return nil, exception.NewBatchError("job_explorer", fmt.Sprintf("Failed to retrieve JobExecution (ID: %s)", executionID), err, false, false)
	}
	return jobExecution, nil
}

// GetStepExecution retrieves a StepExecution by its ID.
func (e *SimpleJobExplorer) GetStepExecution(ctx context.Context, stepExecutionID string) (*model.StepExecution, error) {
	logger.Debugf("JobExplorer: GetStepExecution method called. StepExecution ID: %s", stepExecutionID)
	stepExecution, err := e.jobRepository.FindStepExecutionByID(ctx, stepExecutionID)
	if err != nil {
		return nil, exception.NewBatchError("job_explorer", fmt.Sprintf("Failed to retrieve StepExecution (ID: %s)", stepExecutionID), err, false, false)
	}
	return stepExecution, nil
}

// Package tasklet provides the Step implementation that runs a single Tasklet.
package tasklet

import (
	"context"
	"errors"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"
	exception "github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// TaskletStep is an implementation of port.Step for Tasklet-oriented processing.
type TaskletStep struct {
	id                     string
	tasklet                port.Tasklet
	jobRepository          repository.JobRepository
	stepExecutionListeners []port.StepExecutionListener
	metricRecorder         metrics.MetricRecorder
	tracer                 metrics.Tracer
}

// NewTaskletStep creates a new TaskletStep instance.
func NewTaskletStep(
	id string,
	tasklet port.Tasklet,
	jobRepository repository.JobRepository,
	stepExecutionListeners []port.StepExecutionListener,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *TaskletStep {
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &TaskletStep{
		id:                     id,
		tasklet:                tasklet,
		jobRepository:          jobRepository,
		stepExecutionListeners: stepExecutionListeners,
		metricRecorder:         metricRecorder,
		tracer:                 tracer,
	}
}

// ID returns the step ID.
func (s *TaskletStep) ID() string {
	return s.id
}

// StepName returns the step name.
func (s *TaskletStep) StepName() string {
	return s.id
}

func (s *TaskletStep) notifyBeforeStep(ctx context.Context, stepExecution *model.StepExecution) {
	for _, l := range s.stepExecutionListeners {
		l.BeforeStep(ctx, stepExecution)
	}
}

func (s *TaskletStep) notifyAfterStep(ctx context.Context, stepExecution *model.StepExecution) {
	for _, l := range s.stepExecutionListeners {
		l.AfterStep(ctx, stepExecution)
	}
}

// Execute runs the Tasklet and records the outcome on stepExecution.
func (s *TaskletStep) Execute(ctx context.Context, jobExecution *model.JobExecution, stepExecution *model.StepExecution) (err error) {
	logger.Infof("TaskletStep '%s' executing.", s.id)

	// 1. Update StepExecution status to STARTED
	stepExecution.MarkAsStarted()
	if err := s.jobRepository.UpdateStepExecution(ctx, stepExecution); err != nil {
		return exception.NewBatchError(s.id, "Failed to update StepExecution status to STARTED", err, false, false)
	}

	stepCtx, endSpan := s.tracer.StartStepSpan(ctx, stepExecution)
	defer endSpan()
	stepCtx = port.GetContextWithStepExecution(stepCtx, stepExecution)
	s.metricRecorder.RecordStepStart(stepCtx, stepExecution)

	// 2. Set Tasklet Execution Context
	if err := s.tasklet.SetExecutionContext(stepCtx, stepExecution.ExecutionContext); err != nil {
		err = exception.NewBatchError(s.id, "Failed to set Tasklet ExecutionContext", err, false, false)
		stepExecution.MarkAsFailed(err)
		s.finish(stepCtx, stepExecution)
		return err
	}

	// 3. Listener notification (BeforeStep)
	s.notifyBeforeStep(stepCtx, stepExecution)

	// 4. Execute Tasklet
	exitStatus, err := s.tasklet.Execute(stepCtx, stepExecution)

	// 5. Reflect the Tasklet's ExecutionContext in the StepExecution
	if taskletEC, getErr := s.tasklet.GetExecutionContext(stepCtx); getErr == nil {
		stepExecution.ExecutionContext = taskletEC
	} else {
		logger.Warnf("TaskletStep '%s': Failed to retrieve ExecutionContext from Tasklet: %v", s.id, getErr)
	}

	// 6. Close Tasklet
	if closeErr := s.tasklet.Close(stepCtx); closeErr != nil {
		logger.Errorf("TaskletStep '%s': Failed to close Tasklet: %v", s.id, closeErr)
		if err == nil {
			err = closeErr
		}
	}

	// 7. Update StepExecution status
	switch {
	case err == nil:
		stepExecution.MarkAsCompleted(exitStatus)
	case errors.Is(err, context.Canceled):
		stepExecution.MarkAsStopped()
	default:
		s.tracer.RecordError(stepCtx, s.id, err)
		stepExecution.MarkAsFailed(err)
	}

	// 8. Listener notification (AfterStep)
	s.notifyAfterStep(stepCtx, stepExecution)

	// 9. Persist
	if updateErr := s.finish(stepCtx, stepExecution); updateErr != nil && err == nil {
		err = updateErr
	}

	logger.Infof("TaskletStep '%s' finished. ExitStatus: %s", s.id, stepExecution.ExitStatus)
	return err
}

// finish records metrics and persists the final state, even when ctx is cancelled.
func (s *TaskletStep) finish(ctx context.Context, stepExecution *model.StepExecution) error {
	s.metricRecorder.RecordStepEnd(ctx, stepExecution)
	if err := s.jobRepository.UpdateStepExecution(context.WithoutCancel(ctx), stepExecution); err != nil {
		logger.Errorf("TaskletStep '%s': Failed to update final StepExecution state: %v", s.id, err)
		return exception.NewBatchError(s.id, "Failed to update final StepExecution state", err, false, false)
	}
	return nil
}

// Verify that TaskletStep implements the port.Step interface.
var _ port.Step = (*TaskletStep)(nil)

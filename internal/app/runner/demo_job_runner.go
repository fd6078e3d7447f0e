// Package runner provides the JobRunner of the demo application.
// It runs a job's steps in order and advances the run state after each one.
package runner

import (
	"context"
	"errors"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"
	exception "github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"

	appJob "github.com/tigerroll/demorunner/internal/app/job"
)

// runStateAfterStep maps a completed step to the run state it establishes.
var runStateAfterStep = map[string]model.RunState{
	appJob.GreetingStepName:  model.RunStateGreetingEmitted,
	appJob.SequenceStepName:  model.RunStateSequenceEmitted,
	appJob.InputFileStepName: model.RunStateDone,
}

// DemoJobRunner is an implementation of JobRunner that executes a job's steps sequentially.
// The first step that fails or is cancelled ends the job.
type DemoJobRunner struct {
	jobRepository repository.JobRepository
	tracer        metrics.Tracer
	listeners     []port.JobExecutionListener
}

// NewDemoJobRunner creates a new DemoJobRunner. A nil tracer records nothing.
func NewDemoJobRunner(
	repo repository.JobRepository,
	tracer metrics.Tracer,
	listeners []port.JobExecutionListener,
) *DemoJobRunner {
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &DemoJobRunner{
		jobRepository: repo,
		tracer:        tracer,
		listeners:     listeners,
	}
}

// Run executes every step of job in order and records the outcome on jobExecution.
func (r *DemoJobRunner) Run(ctx context.Context, job port.Job, jobExecution *model.JobExecution) {
	logger.Infof("DemoJobRunner: Starting execution for Job '%s' (Execution ID: %s).", job.JobName(), jobExecution.ID)

	// Update JobExecution status to STARTED.
	jobExecution.MarkAsStarted()
	if err := r.jobRepository.UpdateJobExecution(ctx, jobExecution); err != nil {
		logger.Errorf("DemoJobRunner: Failed to update JobExecution status to STARTED: %v", err)
		jobExecution.MarkAsFailed(err)
		r.persist(ctx, jobExecution)
		return
	}

	jobCtx, endJobSpan := r.tracer.StartJobSpan(ctx, jobExecution)
	defer endJobSpan()

	for _, l := range r.listeners {
		l.BeforeJob(jobCtx, jobExecution)
	}

	r.runSteps(jobCtx, job, jobExecution)

	if !jobExecution.Status.IsFinished() {
		jobExecution.MarkAsCompleted()
	}

	for _, l := range r.listeners {
		l.AfterJob(jobCtx, jobExecution)
	}
	r.persist(jobCtx, jobExecution)

	logger.Infof("DemoJobRunner: Job '%s' (Execution ID: %s) finished with status: %s, ExitStatus: %s, RunState: %s",
		job.JobName(), jobExecution.ID, jobExecution.Status, jobExecution.ExitStatus, jobExecution.RunState)
}

// runSteps executes the steps until one does not complete. A FAILED or STOPPED outcome
// is recorded on jobExecution; a clean pass leaves it STARTED.
func (r *DemoJobRunner) runSteps(ctx context.Context, job port.Job, jobExecution *model.JobExecution) {
	for _, step := range job.Steps() {
		if ctx.Err() != nil {
			logger.Warnf("DemoJobRunner: Job context cancelled before Step '%s' (Execution ID: %s).", step.StepName(), jobExecution.ID)
			jobExecution.MarkAsStopped()
			return
		}

		logger.Infof("DemoJobRunner: Executing Step '%s' for Job '%s'.", step.StepName(), job.JobName())
		stepExecution := model.NewStepExecution(model.NewID(), jobExecution, step.StepName())
		jobExecution.AddStepExecution(stepExecution)
		jobExecution.CurrentStepName = step.StepName()

		// The step updates its StepExecution, so it must exist first.
		if err := r.jobRepository.SaveStepExecution(ctx, stepExecution); err != nil {
			err = exception.NewBatchError(step.StepName(), "Failed to save initial StepExecution", err, false, false)
			logger.Errorf("DemoJobRunner: %v", err)
			jobExecution.MarkAsFailed(err)
			return
		}

		if err := step.Execute(ctx, jobExecution, stepExecution); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Warnf("DemoJobRunner: Step '%s' stopped: %v", step.StepName(), err)
				jobExecution.MarkAsStopped()
				return
			}
			logger.Errorf("DemoJobRunner: Step '%s' failed: %v", step.StepName(), err)
			r.tracer.RecordError(ctx, "demo_job_runner", err)
			jobExecution.MarkAsFailed(err)
			return
		}
		logger.Infof("DemoJobRunner: Step '%s' completed with ExitStatus: %s", step.StepName(), stepExecution.ExitStatus)

		if next, ok := runStateAfterStep[step.StepName()]; ok {
			if err := jobExecution.AdvanceRunState(next); err != nil {
				logger.Errorf("DemoJobRunner: %v", err)
				jobExecution.MarkAsFailed(err)
				return
			}
			logger.Debugf("DemoJobRunner: RunState advanced to %s.", jobExecution.RunState)
		}

		if err := r.jobRepository.UpdateJobExecution(ctx, jobExecution); err != nil {
			logger.Warnf("DemoJobRunner: Failed to persist JobExecution progress: %v", err)
		}
	}
}

// persist saves the final JobExecution state, even when ctx is cancelled.
func (r *DemoJobRunner) persist(ctx context.Context, jobExecution *model.JobExecution) {
	if err := r.jobRepository.UpdateJobExecution(context.WithoutCancel(ctx), jobExecution); err != nil {
		logger.Errorf("DemoJobRunner: Failed to update final JobExecution status: %v", err)
	}
}

// Verify that DemoJobRunner implements the port.JobRunner interface.
var _ port.JobRunner = (*DemoJobRunner)(nil)

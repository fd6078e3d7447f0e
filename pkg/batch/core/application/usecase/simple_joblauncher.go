package usecase

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/fx"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	exception "github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// SimpleJobLauncherParams defines the dependencies of SimpleJobLauncher.
type SimpleJobLauncherParams struct {
	fx.In
	JobRepository repository.JobRepository
	Jobs          []port.Job `group:"jobs"`
}

// SimpleJobLauncher implements JobLauncher for local, synchronous execution.
type SimpleJobLauncher struct {
	jobRepository repository.JobRepository
	jobs          map[string]port.Job
}

// NewSimpleJobLauncher creates a new SimpleJobLauncher from the jobs registered in the "jobs" group.
func NewSimpleJobLauncher(p SimpleJobLauncherParams) *SimpleJobLauncher {
	jobs := make(map[string]port.Job, len(p.Jobs))
	for _, job := range p.Jobs {
		if _, dup := jobs[job.JobName()]; dup {
			logger.Warnf("Job '%s' is registered more than once; the last registration wins.", job.JobName())
		}
		jobs[job.JobName()] = job
		logger.Debugf("Registered Job '%s' with JobLauncher.", job.JobName())
	}
	return &SimpleJobLauncher{
		jobRepository: p.JobRepository,
		jobs:          jobs,
	}
}

// jobNames returns the registered job names in sorted order.
func (l *SimpleJobLauncher) jobNames() []string {
	names := make([]string, 0, len(l.jobs))
	for name := range l.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Launch creates and persists a JobExecution for jobName, runs the job to completion and
// returns the finished execution. A failing job is reported through the execution's status.
func (l *SimpleJobLauncher) Launch(ctx context.Context, jobName string, jobParameters model.JobParameters) (*model.JobExecution, error) {
	const op = "SimpleJobLauncher.Launch"
	logger.Infof("Launching Job '%s' using JobLauncher. Parameters: %s", jobName, jobParameters.String())

	// 1. Retrieve Job
	job, ok := l.jobs[jobName]
	if !ok {
		return nil, exception.NewBatchErrorf(op, "Job '%s' is not registered (known jobs: %v)", jobName, l.jobNames())
	}

	// 2. Validate JobParameters
	if err := job.ValidateParameters(jobParameters); err != nil {
		logger.Errorf("Job '%s': JobParameters validation failed: %v", jobName, err)
		return nil, exception.NewBatchError(op, "JobParameters validation error", err, false, false)
	}

	// 3. Initial persistence of JobExecution
	jobExecution := model.NewJobExecution(jobName, jobParameters)
	if err := l.jobRepository.SaveJobExecution(ctx, jobExecution); err != nil {
		logger.Errorf("Failed to persist JobExecution (ID: %s) initially: %v", jobExecution.ID, err)
		return jobExecution, exception.NewBatchError(op, fmt.Sprintf("Failed to save JobExecution for '%s'", jobName), err, false, false)
	}
	logger.Debugf("Initially saved JobExecution (ID: %s) to JobRepository (Status: %s).", jobExecution.ID, jobExecution.Status)

	// 4. Run synchronously
	if err := job.Run(ctx, jobExecution, jobParameters); err != nil {
		logger.Warnf("Job '%s' (Execution ID: %s) ended with error: %v", jobName, jobExecution.ID, err)
	}

	logger.Infof("Job '%s' (Execution ID: %s) finished with status: %s, ExitStatus: %s",
		jobName, jobExecution.ID, jobExecution.Status, jobExecution.ExitStatus)
	return jobExecution, nil
}

// Verify that SimpleJobLauncher implements the JobLauncher interface.
var _ JobLauncher = (*SimpleJobLauncher)(nil)

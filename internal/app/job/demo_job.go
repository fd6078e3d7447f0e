// Package job provides the "demoJob" batch job: a greeting, the sequence 1, 2, 3,
// then every line of an optional input file, in that order.
package job

import (
	"context"
	"errors"
	"strings"

	storageAdapter "github.com/tigerroll/demorunner/pkg/batch/adapter/storage"
	processor "github.com/tigerroll/demorunner/pkg/batch/component/item"
	reader "github.com/tigerroll/demorunner/pkg/batch/component/step/reader"
	writer "github.com/tigerroll/demorunner/pkg/batch/component/step/writer"
	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	config "github.com/tigerroll/demorunner/pkg/batch/core/config"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"
	itemStep "github.com/tigerroll/demorunner/pkg/batch/engine/step/item"
	taskletStep "github.com/tigerroll/demorunner/pkg/batch/engine/step/tasklet"
	exception "github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"

	appStep "github.com/tigerroll/demorunner/internal/step"
)

const (
	// JobName is the name the job is registered under.
	JobName = "demoJob"
	// Greeting is the first line of every run.
	Greeting = "Hello from Go"

	GreetingStepName  = "greetingStep"
	SequenceStepName  = "sequenceStep"
	InputFileStepName = "inputFileStep"
)

// sequence is the fixed content of the sequence step, appended in order.
var sequence = []int{1, 2, 3}

// DemoJob implements port.Job. Its steps are built once and reopened on every run.
type DemoJob struct {
	runner        port.JobRunner
	steps         []port.Step
	sink          *writer.LineSink
	jobRepository repository.JobRepository
}

// NewDemoJob creates the job and its three steps.
func NewDemoJob(
	cfg *config.Config,
	jobRepository repository.JobRepository,
	runner port.JobRunner,
	sink *writer.LineSink,
	storage storageAdapter.StorageConnection,
	newGreetingTasklet appStep.GreetingTaskletFactory,
	stepListeners []port.StepExecutionListener,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) (*DemoJob, error) {
	greeting, err := newGreetingTasklet(map[string]string{"message": Greeting})
	if err != nil {
		return nil, exception.NewBatchError(JobName, "Failed to build greeting tasklet", err, false, false)
	}

	seq := reader.NewSequenceReader[int]("sequence")
	for _, n := range sequence {
		seq.Append(n)
	}

	chunkSize := cfg.Runner.Batch.ChunkSize

	steps := []port.Step{
		taskletStep.NewTaskletStep(GreetingStepName, greeting, jobRepository, stepListeners, metricRecorder, tracer),
		itemStep.NewChunkStep[int, string](
			SequenceStepName,
			seq,
			processor.NewFormatIntItemProcessor(),
			writer.NewConsoleItemWriter(sink),
			chunkSize, jobRepository, stepListeners, metricRecorder, tracer,
		),
		itemStep.NewChunkStep[string, string](
			InputFileStepName,
			reader.NewLineReader("inputFile", storage, cfg.Runner.Batch.InputPath),
			processor.NewPassThroughItemProcessor[string](),
			writer.NewConsoleItemWriter(sink),
			chunkSize, jobRepository, stepListeners, metricRecorder, tracer,
		),
	}

	logger.Debugf("DemoJob: built %d steps (input: '%s', chunk size: %d).", len(steps), cfg.Runner.Batch.InputPath, chunkSize)
	return &DemoJob{runner: runner, steps: steps, sink: sink, jobRepository: jobRepository}, nil
}

// Run executes the steps through the JobRunner. The returned error summarizes a
// FAILED or STOPPED execution; the details stay on jobExecution.
func (j *DemoJob) Run(ctx context.Context, jobExecution *model.JobExecution, jobParameters model.JobParameters) error {
	logger.Debugf("DemoJob.Run called for JobExecution ID: %s", jobExecution.ID)
	before := j.sink.Lines()
	j.runner.Run(ctx, j, jobExecution)
	j.recordLinesEmitted(ctx, jobExecution, j.sink.Lines()-before)

	switch jobExecution.Status {
	case model.BatchStatusCompleted:
		return nil
	case model.BatchStatusStopped:
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.Canceled
	default:
		return exception.NewBatchErrorf(JobName, "job finished with status %s: %s", jobExecution.Status, strings.Join(jobExecution.Failures, "; "))
	}
}

// recordLinesEmitted stores the number of lines this run wrote in the job's execution context.
func (j *DemoJob) recordLinesEmitted(ctx context.Context, jobExecution *model.JobExecution, n int) {
	jobExecution.ExecutionContext.Put(writer.LinesEmittedKey, n)
	if err := j.jobRepository.UpdateJobExecution(context.WithoutCancel(ctx), jobExecution); err != nil {
		logger.Warnf("DemoJob: Failed to persist line count for JobExecution (ID: %s): %v", jobExecution.ID, err)
	}
}

// JobName returns the logical name of the job.
func (j *DemoJob) JobName() string {
	return JobName
}

// Steps returns the greeting, sequence and input-file steps, in that order.
func (j *DemoJob) Steps() []port.Step {
	return j.steps
}

// ValidateParameters rejects any parameter; the job takes none.
func (j *DemoJob) ValidateParameters(params model.JobParameters) error {
	if len(params.Params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params.Params))
	for k := range params.Params {
		keys = append(keys, k)
	}
	return errors.New("demoJob takes no parameters, got: " + strings.Join(keys, ", "))
}

// DemoJob confirms that it implements the port.Job interface.
var _ port.Job = (*DemoJob)(nil)

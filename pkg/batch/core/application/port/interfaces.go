// Package port defines the core interfaces (ports) of the batch engine.
// Jobs, steps and item components depend only on these, so implementations can be
// swapped and tested in isolation.
package port

import (
	"context"
	"errors"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

// ErrNoMoreItems is returned by ItemReader.Read once the source is exhausted.
var ErrNoMoreItems = errors.New("no more items to read")

// ErrExecutionContextNotSupported is returned when a component does not support getting or setting ExecutionContext.
var ErrExecutionContextNotSupported = errors.New("execution context not supported by this component")

// Job is the interface for an executable batch job.
type Job interface {
	// Run executes the job's steps in order.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   jobExecution: The current JobExecution instance.
	//   jobParameters: The job parameters for the execution.
	//
	// Returns:
	//   error: An error if the job execution fails.
	Run(ctx context.Context, jobExecution *model.JobExecution, jobParameters model.JobParameters) error
	// JobName returns the logical name of the job.
	JobName() string
	// Steps returns the steps of the job in execution order.
	Steps() []Step
	// ValidateParameters validates job parameters before job execution.
	ValidateParameters(params model.JobParameters) error
}

// JobRunner executes the steps of a Job against a JobExecution.
type JobRunner interface {
	// Run executes every step of job in order and finishes jobExecution.
	// The outcome is recorded on jobExecution; Run itself does not return it.
	Run(ctx context.Context, job Job, jobExecution *model.JobExecution)
}

// Step is the interface for a single step executed within a job.
// It is implemented as Chunk-oriented or Tasklet-oriented.
type Step interface {
	// Execute executes the business logic of the step.
	//
	// Parameters:
	//   ctx: The context for the operation.
	//   jobExecution: The current JobExecution instance.
	//   stepExecution: The current StepExecution instance.
	//
	// Returns:
	//   error: An error if the step execution encounters a fatal issue.
	Execute(ctx context.Context, jobExecution *model.JobExecution, stepExecution *model.StepExecution) error
	// StepName returns the logical name of the step.
	StepName() string
	// ID returns the unique ID of the step definition.
	ID() string
}

// ItemReader is the interface for a data reading step.
// O is the type of item to be read.
type ItemReader[O any] interface {
	// Open opens resources and restores state from ExecutionContext.
	Open(ctx context.Context, ec model.ExecutionContext) error
	// Read reads the next item. Returns ErrNoMoreItems if no more items are available.
	Read(ctx context.Context) (O, error)
	// Close closes resources.
	Close(ctx context.Context) error
	// SetExecutionContext sets the state of the ItemReader to the ExecutionContext.
	SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error
	// GetExecutionContext retrieves the current state of the ItemReader as ExecutionContext.
	GetExecutionContext(ctx context.Context) (model.ExecutionContext, error)
}

// ItemProcessor is the interface for an item processing step.
// I is the type of input item, O is the type of output item.
type ItemProcessor[I, O any] interface {
	// Process converts an input item into an output item.
	Process(ctx context.Context, item I) (O, error)
	// SetExecutionContext sets the state of the ItemProcessor to the ExecutionContext.
	SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error
	// GetExecutionContext retrieves the current state of the ItemProcessor as ExecutionContext.
	GetExecutionContext(ctx context.Context) (model.ExecutionContext, error)
}

// ItemWriter is the interface for a data writing step.
// I is the type of item to be written.
type ItemWriter[I any] interface {
	// Open opens resources and restores state from ExecutionContext.
	Open(ctx context.Context, ec model.ExecutionContext) error
	// Write outputs a chunk of items in order.
	Write(ctx context.Context, items []I) error
	// Close flushes and closes resources.
	Close(ctx context.Context) error
	// SetExecutionContext sets the state of the ItemWriter to the ExecutionContext.
	SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error
	// GetExecutionContext retrieves the current state of the ItemWriter as ExecutionContext.
	GetExecutionContext(ctx context.Context) (model.ExecutionContext, error)
}

// Tasklet is the interface for a step that performs a single operation.
type Tasklet interface {
	// Execute executes the business logic of the Tasklet.
	// Returns an ExitStatus such as ExitStatusCompleted upon success.
	Execute(ctx context.Context, stepExecution *model.StepExecution) (model.ExitStatus, error)
	// Close releases resources.
	Close(ctx context.Context) error
	// SetExecutionContext sets the ExecutionContext.
	SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error
	// GetExecutionContext retrieves the ExecutionContext.
	GetExecutionContext(ctx context.Context) (model.ExecutionContext, error)
}

// StepExecutionListener is an interface for handling step execution events.
type StepExecutionListener interface {
	// BeforeStep is called just before a step execution starts.
	BeforeStep(ctx context.Context, stepExecution *model.StepExecution)
	// AfterStep is called after a step execution completes (regardless of success or failure).
	AfterStep(ctx context.Context, stepExecution *model.StepExecution)
}

// JobExecutionListener is an interface for handling job execution events.
type JobExecutionListener interface {
	// BeforeJob is called just before a job execution starts.
	BeforeJob(ctx context.Context, jobExecution *model.JobExecution)
	// AfterJob is called after a job execution completes (regardless of success or failure).
	AfterJob(ctx context.Context, jobExecution *model.JobExecution)
}

type contextKey string

// StepExecutionKey is the context key under which the running StepExecution is stored.
const StepExecutionKey contextKey = "stepExecution"

// GetContextWithStepExecution stores a StepExecution in the Context.
func GetContextWithStepExecution(ctx context.Context, se *model.StepExecution) context.Context {
	return context.WithValue(ctx, StepExecutionKey, se)
}

// GetStepExecutionFromContext retrieves a StepExecution from the Context. Returns nil if not found.
func GetStepExecutionFromContext(ctx context.Context) *model.StepExecution {
	if se, ok := ctx.Value(StepExecutionKey).(*model.StepExecution); ok {
		return se
	}
	return nil
}

package metrics

import (
	"context"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing of job and step executions.
type Tracer interface {
	// StartJobSpan starts a Span for a JobExecution.
	//
	// Returns a context carrying the new Span and a function that ends it.
	// Call the returned function in a defer statement.
	StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func())

	// StartStepSpan starts a Span for a StepExecution, usually as a child of the job span.
	StartStepSpan(ctx context.Context, execution *model.StepExecution) (context.Context, func())

	// RecordError records an error in the current Span.
	//
	// module: the component where the error occurred (e.g., "reader", "writer").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current Span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}

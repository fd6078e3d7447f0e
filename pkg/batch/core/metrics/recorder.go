package metrics

import (
	"context"
	"time"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics related to batch execution.
//
// It lets job, step and item-level events be recorded without binding the engine to a
// particular backend (Prometheus, OpenTelemetry Metrics).
type MetricRecorder interface {
	// RecordJobStart records the start of a JobExecution.
	RecordJobStart(ctx context.Context, execution *model.JobExecution)

	// RecordJobEnd records the end of a JobExecution, including its final status.
	RecordJobEnd(ctx context.Context, execution *model.JobExecution)

	// RecordStepStart records the start of a StepExecution.
	RecordStepStart(ctx context.Context, execution *model.StepExecution)

	// RecordStepEnd records the end of a StepExecution.
	RecordStepEnd(ctx context.Context, execution *model.StepExecution)

	// RecordItemRead records the successful reading of an item.
	RecordItemRead(ctx context.Context, stepName string)

	// RecordItemProcess records the successful processing of an item.
	RecordItemProcess(ctx context.Context, stepName string)

	// RecordItemWrite records the successful writing of count items.
	RecordItemWrite(ctx context.Context, stepName string, count int)

	// RecordChunkCommit records a completed chunk of count items.
	RecordChunkCommit(ctx context.Context, stepName string, count int)

	// RecordDuration records the execution time of a named operation.
	//
	// tags: additional attributes to associate with the duration,
	// e.g. `{"job_name": "demoJob", "status": "COMPLETED"}`.
	RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string)
}

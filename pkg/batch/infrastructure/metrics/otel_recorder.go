package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
)

const instrumentationName = "github.com/tigerroll/demorunner/pkg/batch"

// OTelMetricRecorder is an OpenTelemetry Metrics implementation of metrics.MetricRecorder.
type OTelMetricRecorder struct {
	jobCount          otelmetric.Int64Counter
	jobDuration       otelmetric.Float64Histogram
	stepCount         otelmetric.Int64Counter
	stepDuration      otelmetric.Float64Histogram
	itemRead          otelmetric.Int64Counter
	itemProcess       otelmetric.Int64Counter
	itemWrite         otelmetric.Int64Counter
	chunkCommit       otelmetric.Int64Counter
	operationDuration otelmetric.Float64Histogram
}

// NewOTelMetricRecorder creates the instruments on a meter obtained from provider.
func NewOTelMetricRecorder(provider otelmetric.MeterProvider) (*OTelMetricRecorder, error) {
	meter := provider.Meter(instrumentationName)
	r := &OTelMetricRecorder{}

	var err error
	if r.jobCount, err = meter.Int64Counter("batch.job.count",
		otelmetric.WithDescription("Finished job executions by status.")); err != nil {
		return nil, instrumentError("batch.job.count", err)
	}
	if r.jobDuration, err = meter.Float64Histogram("batch.job.duration",
		otelmetric.WithDescription("Duration of job executions."), otelmetric.WithUnit("s")); err != nil {
		return nil, instrumentError("batch.job.duration", err)
	}
	if r.stepCount, err = meter.Int64Counter("batch.step.count",
		otelmetric.WithDescription("Finished step executions by status.")); err != nil {
		return nil, instrumentError("batch.step.count", err)
	}
	if r.stepDuration, err = meter.Float64Histogram("batch.step.duration",
		otelmetric.WithDescription("Duration of step executions."), otelmetric.WithUnit("s")); err != nil {
		return nil, instrumentError("batch.step.duration", err)
	}
	if r.itemRead, err = meter.Int64Counter("batch.item.read",
		otelmetric.WithDescription("Items read.")); err != nil {
		return nil, instrumentError("batch.item.read", err)
	}
	if r.itemProcess, err = meter.Int64Counter("batch.item.process",
		otelmetric.WithDescription("Items processed.")); err != nil {
		return nil, instrumentError("batch.item.process", err)
	}
	if r.itemWrite, err = meter.Int64Counter("batch.item.write",
		otelmetric.WithDescription("Items written.")); err != nil {
		return nil, instrumentError("batch.item.write", err)
	}
	if r.chunkCommit, err = meter.Int64Counter("batch.chunk.commit",
		otelmetric.WithDescription("Chunks completed.")); err != nil {
		return nil, instrumentError("batch.chunk.commit", err)
	}
	if r.operationDuration, err = meter.Float64Histogram("batch.operation.duration",
		otelmetric.WithDescription("Duration of named operations."), otelmetric.WithUnit("s")); err != nil {
		return nil, instrumentError("batch.operation.duration", err)
	}
	return r, nil
}

func instrumentError(name string, err error) error {
	return exception.NewBatchErrorf("metrics", "failed to create instrument %s", name, err)
}

// RecordJobStart is a no-op; jobs are counted when they finish.
func (r *OTelMetricRecorder) RecordJobStart(ctx context.Context, execution *model.JobExecution) {}

func (r *OTelMetricRecorder) RecordJobEnd(ctx context.Context, execution *model.JobExecution) {
	attrs := otelmetric.WithAttributes(
		attribute.String("job_name", execution.JobName),
		attribute.String("status", execution.Status.String()),
	)
	r.jobCount.Add(ctx, 1, attrs)
	if execution.EndTime != nil {
		r.jobDuration.Record(ctx, execution.EndTime.Sub(execution.StartTime).Seconds(), attrs)
	}
}

// RecordStepStart is a no-op; steps are counted when they finish.
func (r *OTelMetricRecorder) RecordStepStart(ctx context.Context, execution *model.StepExecution) {}

func (r *OTelMetricRecorder) RecordStepEnd(ctx context.Context, execution *model.StepExecution) {
	attrs := otelmetric.WithAttributes(
		attribute.String("job_name", jobNameOf(execution)),
		attribute.String("step_name", execution.StepName),
		attribute.String("status", execution.Status.String()),
	)
	r.stepCount.Add(ctx, 1, attrs)
	if execution.EndTime != nil {
		r.stepDuration.Record(ctx, execution.Duration().Seconds(), attrs)
	}
}

func (r *OTelMetricRecorder) RecordItemRead(ctx context.Context, stepName string) {
	r.itemRead.Add(ctx, 1, stepAttributes(ctx, stepName))
}

func (r *OTelMetricRecorder) RecordItemProcess(ctx context.Context, stepName string) {
	r.itemProcess.Add(ctx, 1, stepAttributes(ctx, stepName))
}

func (r *OTelMetricRecorder) RecordItemWrite(ctx context.Context, stepName string, count int) {
	r.itemWrite.Add(ctx, int64(count), stepAttributes(ctx, stepName))
}

func (r *OTelMetricRecorder) RecordChunkCommit(ctx context.Context, stepName string, count int) {
	r.chunkCommit.Add(ctx, 1, stepAttributes(ctx, stepName))
}

// RecordDuration records duration under the "operation" attribute plus every tag.
func (r *OTelMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(tags)+1)
	attrs = append(attrs, attribute.String("operation", name))
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, v))
	}
	r.operationDuration.Record(ctx, duration.Seconds(), otelmetric.WithAttributes(attrs...))
}

func stepAttributes(ctx context.Context, stepName string) otelmetric.MeasurementOption {
	return otelmetric.WithAttributes(
		attribute.String("job_name", jobNameFromContext(ctx)),
		attribute.String("step_name", stepName),
	)
}

var _ metrics.MetricRecorder = (*OTelMetricRecorder)(nil)

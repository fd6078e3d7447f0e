// Package item provides the chunk-oriented Step implementation.
package item

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	metrics "github.com/tigerroll/demorunner/pkg/batch/core/metrics"
	exception "github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// ChunkStep is an implementation of port.Step for chunk-oriented processing.
//
// Items are read one at a time, processed, and written in chunks of chunkSize.
// The reader and writer are opened on the StepExecution's ExecutionContext and are
// closed on every exit path, including cancellation and write failures.
type ChunkStep[I, O any] struct {
	id                     string
	reader                 port.ItemReader[I]
	processor              port.ItemProcessor[I, O]
	writer                 port.ItemWriter[O]
	chunkSize              int
	jobRepository          repository.JobRepository
	stepExecutionListeners []port.StepExecutionListener

	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
}

// NewChunkStep creates a new ChunkStep instance. A chunkSize below 1 is treated as 1.
func NewChunkStep[I, O any](
	id string,
	reader port.ItemReader[I],
	processor port.ItemProcessor[I, O],
	writer port.ItemWriter[O],
	chunkSize int,
	jobRepository repository.JobRepository,
	stepExecutionListeners []port.StepExecutionListener,
	metricRecorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *ChunkStep[I, O] {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if metricRecorder == nil {
		metricRecorder = metrics.NewNoOpMetricRecorder()
	}
	if tracer == nil {
		tracer = metrics.NewNoOpTracer()
	}
	return &ChunkStep[I, O]{
		id:                     id,
		reader:                 reader,
		processor:              processor,
		writer:                 writer,
		chunkSize:              chunkSize,
		jobRepository:          jobRepository,
		stepExecutionListeners: stepExecutionListeners,
		metricRecorder:         metricRecorder,
		tracer:                 tracer,
	}
}

// ID returns the step ID.
func (s *ChunkStep[I, O]) ID() string {
	return s.id
}

// StepName returns the step name.
func (s *ChunkStep[I, O]) StepName() string {
	return s.id
}

// Execute runs the chunk-oriented step logic.
func (s *ChunkStep[I, O]) Execute(ctx context.Context, jobExecution *model.JobExecution, stepExecution *model.StepExecution) (err error) {
	logger.Infof("ChunkStep '%s' executing.", s.id)

	// 1. Update StepExecution status to STARTED
	stepExecution.MarkAsStarted()
	if err := s.jobRepository.UpdateStepExecution(ctx, stepExecution); err != nil {
		return exception.NewBatchError(s.id, "Failed to update StepExecution status to STARTED", err, false, false)
	}

	stepCtx, endSpan := s.tracer.StartStepSpan(ctx, stepExecution)
	defer endSpan()
	stepCtx = port.GetContextWithStepExecution(stepCtx, stepExecution)
	s.metricRecorder.RecordStepStart(stepCtx, stepExecution)

	for _, l := range s.stepExecutionListeners {
		l.BeforeStep(stepCtx, stepExecution)
	}

	// 2. Read, process and write until the reader is exhausted
	err = s.run(stepCtx, stepExecution)

	// 3. Update StepExecution status
	switch {
	case err == nil:
		stepExecution.MarkAsCompleted(model.ExitStatusCompleted)
	case errors.Is(err, context.Canceled):
		logger.Warnf("ChunkStep '%s': cancelled after %d items.", s.id, stepExecution.WriteCount)
		stepExecution.MarkAsStopped()
	default:
		s.tracer.RecordError(stepCtx, s.id, err)
		stepExecution.MarkAsFailed(err)
	}

	for _, l := range s.stepExecutionListeners {
		l.AfterStep(stepCtx, stepExecution)
	}
	s.metricRecorder.RecordStepEnd(stepCtx, stepExecution)

	// 4. Persist, even when ctx is cancelled
	if updateErr := s.jobRepository.UpdateStepExecution(context.WithoutCancel(stepCtx), stepExecution); updateErr != nil {
		logger.Errorf("ChunkStep '%s': Failed to update final StepExecution state: %v", s.id, updateErr)
		if err == nil {
			err = exception.NewBatchError(s.id, "Failed to update final StepExecution state", updateErr, false, false)
		}
	}

	logger.Infof("ChunkStep '%s' finished. Read: %d, Written: %d, ExitStatus: %s",
		s.id, stepExecution.ReadCount, stepExecution.WriteCount, stepExecution.ExitStatus)
	return err
}

// run opens the components, drives the chunk loop and closes the components.
// Close errors are combined with the loop's error.
func (s *ChunkStep[I, O]) run(ctx context.Context, stepExecution *model.StepExecution) (err error) {
	ec := stepExecution.ExecutionContext

	if err := s.reader.Open(ctx, ec); err != nil {
		return exception.NewBatchError(s.id, "Failed to open ItemReader", err, false, false)
	}
	defer func() {
		if closeErr := s.reader.Close(ctx); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	if err := s.writer.Open(ctx, ec); err != nil {
		return exception.NewBatchError(s.id, "Failed to open ItemWriter", err, false, false)
	}
	defer func() {
		if closeErr := s.writer.Close(ctx); closeErr != nil {
			err = multierror.Append(err, closeErr).ErrorOrNil()
		}
	}()

	for {
		chunk, eof, err := s.readChunk(ctx, stepExecution)
		if err != nil {
			return err
		}

		if len(chunk) > 0 {
			if err := s.writer.Write(ctx, chunk); err != nil {
				return exception.NewBatchError(s.id, "Item write failed", err, false, false)
			}
			stepExecution.WriteCount += len(chunk)
			stepExecution.CommitCount++
			s.metricRecorder.RecordItemWrite(ctx, s.id, len(chunk))
			s.metricRecorder.RecordChunkCommit(ctx, s.id, len(chunk))
		}

		if eof {
			return nil
		}
	}
}

// readChunk reads and processes up to chunkSize items. Cancellation is checked before each item.
func (s *ChunkStep[I, O]) readChunk(ctx context.Context, stepExecution *model.StepExecution) (chunk []O, eof bool, err error) {
	chunk = make([]O, 0, s.chunkSize)
	for len(chunk) < s.chunkSize {
		if err := ctx.Err(); err != nil {
			return chunk, false, err
		}

		item, readErr := s.reader.Read(ctx)
		if errors.Is(readErr, port.ErrNoMoreItems) {
			return chunk, true, nil
		}
		if readErr != nil {
			return chunk, false, exception.NewBatchError(s.id, "Item read failed", readErr, false, false)
		}
		stepExecution.ReadCount++
		s.metricRecorder.RecordItemRead(ctx, s.id)

		out, processErr := s.processor.Process(ctx, item)
		if processErr != nil {
			return chunk, false, exception.NewBatchError(s.id, "Item process failed", processErr, false, false)
		}
		s.metricRecorder.RecordItemProcess(ctx, s.id)
		chunk = append(chunk, out)
	}
	return chunk, false, nil
}

// Verify that ChunkStep implements the port.Step interface.
var _ port.Step = (*ChunkStep[int, string])(nil)

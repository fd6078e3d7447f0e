package writer

import (
	"context"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// LinesEmittedKey holds the number of lines a step wrote to the sink.
const LinesEmittedKey = "lines.emitted"

const consoleWriterModule = "console_writer"

// ConsoleItemWriter writes each item as one line to a LineSink, flushing after every chunk.
type ConsoleItemWriter struct {
	sink    *LineSink
	written int
	ec      model.ExecutionContext
}

// NewConsoleItemWriter creates a writer on sink.
func NewConsoleItemWriter(sink *LineSink) *ConsoleItemWriter {
	return &ConsoleItemWriter{
		sink: sink,
		ec:   model.NewExecutionContext(),
	}
}

// Open resets the line count.
func (w *ConsoleItemWriter) Open(ctx context.Context, ec model.ExecutionContext) error {
	w.ec = ec
	w.written = 0
	w.ec.Put(LinesEmittedKey, 0)
	return nil
}

// Write emits items in order and flushes them.
func (w *ConsoleItemWriter) Write(ctx context.Context, items []string) error {
	for _, item := range items {
		if err := w.sink.WriteLine(item); err != nil {
			return exception.NewBatchError(consoleWriterModule, "failed to write line", err, false, false)
		}
		w.written++
	}
	w.ec.Put(LinesEmittedKey, w.written)
	if err := w.sink.Flush(); err != nil {
		return exception.NewBatchError(consoleWriterModule, "failed to flush lines", err, false, false)
	}
	logger.Debugf("ConsoleItemWriter: wrote %d lines (%d total).", len(items), w.written)
	return nil
}

// Close flushes anything still buffered.
func (w *ConsoleItemWriter) Close(ctx context.Context) error {
	if err := w.sink.Flush(); err != nil {
		return exception.NewBatchError(consoleWriterModule, "failed to flush lines on close", err, false, false)
	}
	return nil
}

// SetExecutionContext sets the ExecutionContext.
func (w *ConsoleItemWriter) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	w.ec = ec
	return nil
}

// GetExecutionContext retrieves the ExecutionContext.
func (w *ConsoleItemWriter) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	return w.ec, nil
}

var _ port.ItemWriter[string] = (*ConsoleItemWriter)(nil)

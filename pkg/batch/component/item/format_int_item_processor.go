package item

import (
	"context"
	"strconv"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

// FormatIntItemProcessor renders an int as its base-10 text (no padding, leading '-' for negatives).
type FormatIntItemProcessor struct {
	ec model.ExecutionContext
}

// NewFormatIntItemProcessor creates a new instance of [FormatIntItemProcessor].
func NewFormatIntItemProcessor() port.ItemProcessor[int, string] {
	return &FormatIntItemProcessor{
		ec: model.NewExecutionContext(),
	}
}

// Process formats item with strconv.Itoa.
func (p *FormatIntItemProcessor) Process(ctx context.Context, item int) (string, error) {
	return strconv.Itoa(item), nil
}

// SetExecutionContext sets the [model.ExecutionContext] for the processor.
func (p *FormatIntItemProcessor) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	p.ec = ec
	return nil
}

// GetExecutionContext retrieves the current [model.ExecutionContext] from the processor.
func (p *FormatIntItemProcessor) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	return p.ec, nil
}

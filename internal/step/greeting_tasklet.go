// Package step provides the application's tasklets.
// It contains the GreetingTasklet, which emits the run's first output line.
package step

import (
	"context"
	"fmt"

	writer "github.com/tigerroll/demorunner/pkg/batch/component/step/writer"
	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	configbinder "github.com/tigerroll/demorunner/pkg/batch/support/util/configbinder"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// GreetingTaskletConfig binds the tasklet's properties.
type GreetingTaskletConfig struct {
	Message string `yaml:"message"`
}

// GreetingTasklet writes a single greeting line to the run's output.
type GreetingTasklet struct {
	config           *GreetingTaskletConfig
	sink             *writer.LineSink
	executionContext model.ExecutionContext
}

// NewGreetingTasklet creates a GreetingTasklet writing to sink.
// The "message" property is required.
func NewGreetingTasklet(properties map[string]string, sink *writer.LineSink) (*GreetingTasklet, error) {
	taskletCfg := &GreetingTaskletConfig{}

	if err := configbinder.BindProperties(properties, taskletCfg); err != nil {
		return nil, exception.NewBatchError("greeting_tasklet", "Failed to bind properties", err, false, false)
	}

	if taskletCfg.Message == "" {
		return nil, fmt.Errorf("message property is required for GreetingTasklet")
	}

	return &GreetingTasklet{
		config:           taskletCfg,
		sink:             sink,
		executionContext: model.NewExecutionContext(),
	}, nil
}

// Message returns the configured greeting.
func (t *GreetingTasklet) Message() string {
	return t.config.Message
}

// Execute writes the greeting and flushes it so it precedes any later output.
func (t *GreetingTasklet) Execute(ctx context.Context, stepExecution *model.StepExecution) (model.ExitStatus, error) {
	select {
	case <-ctx.Done():
		return model.ExitStatusFailed, ctx.Err()
	default:
	}

	logger.Debugf("GreetingTasklet: writing message '%s'", t.config.Message)
	if err := t.sink.WriteLine(t.config.Message); err != nil {
		return model.ExitStatusFailed, exception.NewBatchError("greeting_tasklet", "Failed to write greeting", err, false, false)
	}
	if err := t.sink.Flush(); err != nil {
		return model.ExitStatusFailed, exception.NewBatchError("greeting_tasklet", "Failed to flush greeting", err, false, false)
	}
	t.executionContext.Put(writer.LinesEmittedKey, 1)
	return model.ExitStatusCompleted, nil
}

// Close releases any resources held by the Tasklet. The sink is shared and stays open.
func (t *GreetingTasklet) Close(ctx context.Context) error {
	logger.Debugf("GreetingTasklet: Close called.")
	return nil
}

// SetExecutionContext sets the ExecutionContext for the Tasklet.
func (t *GreetingTasklet) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	t.executionContext = ec
	return nil
}

// GetExecutionContext retrieves the current ExecutionContext of the Tasklet.
func (t *GreetingTasklet) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	return t.executionContext, nil
}

var _ port.Tasklet = (*GreetingTasklet)(nil)

package step

import (
	"go.uber.org/fx"

	writer "github.com/tigerroll/demorunner/pkg/batch/component/step/writer"
)

// GreetingTaskletFactory builds a GreetingTasklet from its properties.
type GreetingTaskletFactory func(properties map[string]string) (*GreetingTasklet, error)

// NewGreetingTaskletFactory binds tasklets built by the factory to the run's LineSink.
func NewGreetingTaskletFactory(sink *writer.LineSink) GreetingTaskletFactory {
	return func(properties map[string]string) (*GreetingTasklet, error) {
		return NewGreetingTasklet(properties, sink)
	}
}

// Module defines the Fx options for the GreetingTasklet component.
var Module = fx.Options(
	fx.Provide(NewGreetingTaskletFactory),
)

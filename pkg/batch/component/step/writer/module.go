package writer

import "go.uber.org/fx"

// Module provides the run's LineSink on the writer named "stdout".
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLineSink,
		fx.ParamTags(`name:"stdout"`),
	)),
)

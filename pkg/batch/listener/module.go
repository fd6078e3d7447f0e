// Package listener aggregates the job and step listeners of the batch framework.
package listener

import (
	"github.com/tigerroll/demorunner/pkg/batch/listener/logging"
	"github.com/tigerroll/demorunner/pkg/batch/listener/metrics"
	"github.com/tigerroll/demorunner/pkg/batch/listener/notification"

	"go.uber.org/fx"
)

// Module aggregates all listener modules of the batch framework.
var Module = fx.Options(
	logging.Module,
	metrics.Module,
	notification.Module,
)

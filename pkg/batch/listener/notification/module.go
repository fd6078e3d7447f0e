package notification

import "go.uber.org/fx"

// Module provides the Notifier and contributes NotificationListener to the "jobListeners" group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLogNotifier,
		fx.As(new(Notifier)),
	)),
	fx.Provide(fx.Annotate(NewNotificationListener, fx.ResultTags(`group:"jobListeners"`))),
)

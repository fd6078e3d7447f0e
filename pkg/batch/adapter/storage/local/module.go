package local

import (
	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/demorunner/pkg/batch/adapter/storage"
)

// Module provides the working-directory adapter as the storage.StorageConnection.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewWorkingDirAdapter,
		fx.As(new(storageAdapter.StorageConnection)),
	)),
)

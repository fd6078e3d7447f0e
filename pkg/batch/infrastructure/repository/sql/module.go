package sql

import (
	"context"

	"go.uber.org/fx"

	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// provideSQLJobRepository opens the repository and closes it when the application stops.
func provideSQLJobRepository(lc fx.Lifecycle) (repository.JobRepository, error) {
	repo, err := NewSQLJobRepository()
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debugf("SQLJobRepository: closing in-memory database.")
			return repo.Close()
		},
	})
	return repo, nil
}

// Module provides SQLJobRepository as repository.JobRepository.
var Module = fx.Options(
	fx.Provide(provideSQLJobRepository),
)

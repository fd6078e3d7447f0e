// Package sql provides a gorm-backed JobRepository on an in-memory SQLite database.
// The database lives and dies with the process, so execution metadata can be queried
// with SQL during a run without anything being persisted across runs.
package sql

import (
	"context"
	"errors"
	"sort"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

const (
	moduleName = "SQLJobRepository"
	// memoryDSN opens a private in-memory database. A single pooled connection
	// keeps every statement on the same database.
	memoryDSN = ":memory:"
)

// SQLJobRepository implements repository.JobRepository with gorm.
type SQLJobRepository struct {
	db *gorm.DB
}

// gormLogWriter sends gorm's log lines to stderr through the package logger.
type gormLogWriter struct{}

func (gormLogWriter) Printf(format string, args ...interface{}) {
	logger.Debugf("gorm: "+format, args...)
}

// NewSQLJobRepository opens the in-memory database and creates the schema.
func NewSQLJobRepository() (*SQLJobRepository, error) {
	db, err := gorm.Open(sqlite.Open(memoryDSN), &gorm.Config{
		Logger: gormlogger.New(gormLogWriter{}, gormlogger.Config{
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to open in-memory database", err, false, false)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to access connection pool", err, false, false)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&JobExecutionEntity{}, &StepExecutionEntity{}); err != nil {
		sqlDB.Close()
		return nil, exception.NewBatchError(moduleName, "failed to create schema", err, false, false)
	}
	logger.Debugf("SQLJobRepository: schema created on in-memory SQLite database.")
	return &SQLJobRepository{db: db}, nil
}

// SaveJobExecution inserts a new JobExecution.
func (r *SQLJobRepository) SaveJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	if err := r.db.WithContext(ctx).Create(fromDomainJobExecution(jobExecution)).Error; err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to save JobExecution %s", jobExecution.ID, err)
	}
	return nil
}

// UpdateJobExecution overwrites every column of an existing JobExecution.
func (r *SQLJobRepository) UpdateJobExecution(ctx context.Context, jobExecution *model.JobExecution) error {
	res := r.db.WithContext(ctx).
		Model(&JobExecutionEntity{}).
		Where("id = ?", jobExecution.ID).
		Select("*").
		Updates(fromDomainJobExecution(jobExecution))
	if res.Error != nil {
		return exception.NewBatchErrorf(moduleName, "failed to update JobExecution %s", jobExecution.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return exception.NewBatchErrorf(moduleName, "JobExecution %s not found for update", jobExecution.ID, repository.ErrJobExecutionNotFound)
	}
	return nil
}

// FindJobExecutionByID loads a JobExecution and its StepExecutions in start order.
func (r *SQLJobRepository) FindJobExecutionByID(ctx context.Context, id string) (*model.JobExecution, error) {
	var entity JobExecutionEntity
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrJobExecutionNotFound
		}
		return nil, exception.NewBatchErrorf(moduleName, "failed to find JobExecution %s", id, err)
	}
	je := toDomainJobExecution(&entity)

	var steps []StepExecutionEntity
	if err := r.db.WithContext(ctx).Where("job_execution_id = ?", id).Find(&steps).Error; err != nil {
		return nil, exception.NewBatchErrorf(moduleName, "failed to load StepExecutions of %s", id, err)
	}
	for i := range steps {
		se := toDomainStepExecution(&steps[i])
		se.JobExecution = je
		je.StepExecutions = append(je.StepExecutions, se)
	}
	sort.SliceStable(je.StepExecutions, func(i, j int) bool {
		return je.StepExecutions[i].StartTime.Before(je.StepExecutions[j].StartTime)
	})
	return je, nil
}

// SaveStepExecution inserts a new StepExecution.
func (r *SQLJobRepository) SaveStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	if err := r.db.WithContext(ctx).Create(fromDomainStepExecution(stepExecution)).Error; err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to save StepExecution %s", stepExecution.ID, err)
	}
	return nil
}

// UpdateStepExecution overwrites every column of an existing StepExecution.
func (r *SQLJobRepository) UpdateStepExecution(ctx context.Context, stepExecution *model.StepExecution) error {
	res := r.db.WithContext(ctx).
		Model(&StepExecutionEntity{}).
		Where("id = ?", stepExecution.ID).
		Select("*").
		Updates(fromDomainStepExecution(stepExecution))
	if res.Error != nil {
		return exception.NewBatchErrorf(moduleName, "failed to update StepExecution %s", stepExecution.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return exception.NewBatchErrorf(moduleName, "StepExecution %s not found for update", stepExecution.ID, repository.ErrStepExecutionNotFound)
	}
	return nil
}

// FindStepExecutionByID loads a StepExecution without its JobExecution back-reference.
func (r *SQLJobRepository) FindStepExecutionByID(ctx context.Context, id string) (*model.StepExecution, error) {
	var entity StepExecutionEntity
	if err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrStepExecutionNotFound
		}
		return nil, exception.NewBatchErrorf(moduleName, "failed to find StepExecution %s", id, err)
	}
	return toDomainStepExecution(&entity), nil
}

// Close closes the database, discarding its contents.
func (r *SQLJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ repository.JobRepository = (*SQLJobRepository)(nil)

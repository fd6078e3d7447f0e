package sql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
)

func newTestRepository(t *testing.T) *SQLJobRepository {
	t.Helper()
	repo, err := NewSQLJobRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLJobRepository_JobExecutionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	je := model.NewJobExecution("demoJob", model.NewJobParameters())
	require.NoError(t, repo.SaveJobExecution(ctx, je))

	je.MarkAsStarted()
	require.NoError(t, je.AdvanceRunState(model.RunStateGreetingEmitted))
	je.ExecutionContext.Put("lines.emitted", 1)
	je.CurrentStepName = "greetingStep"
	require.NoError(t, repo.UpdateJobExecution(ctx, je))

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	assert.Equal(t, "demoJob", found.JobName)
	assert.Equal(t, model.BatchStatusStarted, found.Status)
	assert.Equal(t, model.RunStateGreetingEmitted, found.RunState)
	assert.Equal(t, "greetingStep", found.CurrentStepName)
	n, ok := found.ExecutionContext.GetInt("lines.emitted")
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestSQLJobRepository_StepExecutions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	je := model.NewJobExecution("demoJob", model.NewJobParameters())
	require.NoError(t, repo.SaveJobExecution(ctx, je))

	first := model.NewStepExecution(model.NewID(), je, "greetingStep")
	second := model.NewStepExecution(model.NewID(), je, "sequenceStep")
	second.StartTime = first.StartTime.Add(time.Second)
	require.NoError(t, repo.SaveStepExecution(ctx, second))
	require.NoError(t, repo.SaveStepExecution(ctx, first))

	second.MarkAsStarted()
	second.ReadCount = 3
	second.WriteCount = 3
	second.MarkAsFailed(errors.New("stdout closed"))
	require.NoError(t, repo.UpdateStepExecution(ctx, second))

	loaded, err := repo.FindStepExecutionByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusFailed, loaded.Status)
	assert.Equal(t, 3, loaded.WriteCount)
	assert.Equal(t, model.FailureList{"stdout closed"}, loaded.Failures)

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	require.Len(t, found.StepExecutions, 2)
	assert.Equal(t, "greetingStep", found.StepExecutions[0].StepName)
	assert.Equal(t, "sequenceStep", found.StepExecutions[1].StepName)
	assert.Same(t, found, found.StepExecutions[0].JobExecution)
}

func TestSQLJobRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.FindJobExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)

	_, err = repo.FindStepExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrStepExecutionNotFound)

	je := model.NewJobExecution("demoJob", model.NewJobParameters())
	assert.ErrorIs(t, repo.UpdateJobExecution(ctx, je), repository.ErrJobExecutionNotFound)
}

func TestSQLJobRepository_IsolatedPerInstance(t *testing.T) {
	ctx := context.Background()
	a := newTestRepository(t)
	b := newTestRepository(t)

	je := model.NewJobExecution("demoJob", model.NewJobParameters())
	require.NoError(t, a.SaveJobExecution(ctx, je))

	_, err := b.FindJobExecutionByID(ctx, je.ID)
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)
}

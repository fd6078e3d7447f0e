package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
)

func TestInMemoryJobRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryJobRepository()
	defer repo.Close()

	je := model.NewJobExecution("demoJob", model.NewJobParameters())
	require.NoError(t, repo.SaveJobExecution(ctx, je))
	assert.Error(t, repo.SaveJobExecution(ctx, je))

	first := model.NewStepExecution(model.NewID(), je, "greetingStep")
	second := model.NewStepExecution(model.NewID(), je, "sequenceStep")
	second.StartTime = first.StartTime.Add(time.Millisecond)
	require.NoError(t, repo.SaveStepExecution(ctx, second))
	require.NoError(t, repo.SaveStepExecution(ctx, first))

	first.MarkAsStarted()
	first.MarkAsCompleted(model.ExitStatusCompleted)
	require.NoError(t, repo.UpdateStepExecution(ctx, first))

	je.MarkAsStarted()
	require.NoError(t, repo.UpdateJobExecution(ctx, je))

	found, err := repo.FindJobExecutionByID(ctx, je.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusStarted, found.Status)
	require.Len(t, found.StepExecutions, 2)
	assert.Equal(t, "greetingStep", found.StepExecutions[0].StepName)
	assert.Equal(t, "sequenceStep", found.StepExecutions[1].StepName)

	se, err := repo.FindStepExecutionByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, se.Status)
}

func TestInMemoryJobRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryJobRepository()

	_, err := repo.FindJobExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobExecutionNotFound)

	_, err = repo.FindStepExecutionByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrStepExecutionNotFound)

	je := model.NewJobExecution("demoJob", model.NewJobParameters())
	assert.ErrorIs(t, repo.UpdateJobExecution(ctx, je), repository.ErrJobExecutionNotFound)
	assert.ErrorIs(t, repo.UpdateStepExecution(ctx, model.NewStepExecution("x", je, "s")), repository.ErrStepExecutionNotFound)
}

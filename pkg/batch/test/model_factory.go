// Package test provides fixtures shared by the batch packages' tests.
package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
)

// NewTestJobParameters creates JobParameters for testing.
func NewTestJobParameters(params map[string]interface{}) model.JobParameters {
	jp := model.NewJobParameters()
	for k, v := range params {
		jp.Put(k, v)
	}
	return jp
}

// NewTestExecutionContext creates an ExecutionContext for testing.
func NewTestExecutionContext(data map[string]interface{}) model.ExecutionContext {
	ec := model.NewExecutionContext()
	for k, v := range data {
		ec.Put(k, v)
	}
	return ec
}

// NewSavedJobExecution creates a JobExecution and saves it to repo.
func NewSavedJobExecution(t testing.TB, repo repository.JobRepository, jobName string) *model.JobExecution {
	t.Helper()
	je := model.NewJobExecution(jobName, model.NewJobParameters())
	require.NoError(t, repo.SaveJobExecution(context.Background(), je))
	return je
}

// NewSavedStepExecution creates a StepExecution of je and saves it to repo,
// as the runner does before handing it to a step.
func NewSavedStepExecution(t testing.TB, repo repository.JobRepository, je *model.JobExecution, stepName string) *model.StepExecution {
	t.Helper()
	se := model.NewStepExecution(model.NewID(), je, stepName)
	je.AddStepExecution(se)
	require.NoError(t, repo.SaveStepExecution(context.Background(), se))
	return se
}

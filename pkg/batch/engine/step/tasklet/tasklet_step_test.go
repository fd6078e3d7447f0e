package tasklet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/engine/step/tasklet"
	"github.com/tigerroll/demorunner/pkg/batch/infrastructure/repository/inmemory"
	batchtest "github.com/tigerroll/demorunner/pkg/batch/test"
)

// MockTasklet is a mock of port.Tasklet.
type MockTasklet struct {
	mock.Mock
}

func (m *MockTasklet) Execute(ctx context.Context, se *model.StepExecution) (model.ExitStatus, error) {
	args := m.Called(ctx, se)
	return args.Get(0).(model.ExitStatus), args.Error(1)
}

func (m *MockTasklet) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTasklet) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	return m.Called(ctx, ec).Error(0)
}

func (m *MockTasklet) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.ExecutionContext), args.Error(1)
}

// MockStepListener is a mock of port.StepExecutionListener.
type MockStepListener struct {
	mock.Mock
}

func (m *MockStepListener) BeforeStep(ctx context.Context, se *model.StepExecution) {
	m.Called(se.Status)
}

func (m *MockStepListener) AfterStep(ctx context.Context, se *model.StepExecution) {
	m.Called(se.Status)
}

func newExecutions(t *testing.T, repo *inmemory.InMemoryJobRepository) (*model.JobExecution, *model.StepExecution) {
	t.Helper()
	je := batchtest.NewSavedJobExecution(t, repo, "demoJob")
	return je, batchtest.NewSavedStepExecution(t, repo, je, "greetingStep")
}

func TestTaskletStep_Success(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	je, se := newExecutions(t, repo)

	ec := batchtest.NewTestExecutionContext(map[string]interface{}{"lines.emitted": 1})

	tk := new(MockTasklet)
	tk.On("SetExecutionContext", mock.Anything, mock.Anything).Return(nil)
	tk.On("Execute", mock.Anything, se).Return(model.ExitStatusCompleted, nil)
	tk.On("GetExecutionContext", mock.Anything).Return(ec, nil)
	tk.On("Close", mock.Anything).Return(nil)

	listener := new(MockStepListener)
	listener.On("BeforeStep", model.BatchStatusStarted).Once()
	listener.On("AfterStep", model.BatchStatusCompleted).Once()

	step := tasklet.NewTaskletStep("greetingStep", tk, repo, []port.StepExecutionListener{listener}, nil, nil)
	require.NoError(t, step.Execute(context.Background(), je, se))

	assert.Equal(t, model.BatchStatusCompleted, se.Status)
	assert.Equal(t, model.ExitStatusCompleted, se.ExitStatus)
	assert.NotNil(t, se.EndTime)
	assert.Equal(t, ec, se.ExecutionContext)

	stored, err := repo.FindStepExecutionByID(context.Background(), se.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusCompleted, stored.Status)

	tk.AssertExpectations(t)
	listener.AssertExpectations(t)
}

func TestTaskletStep_ExecuteFailureStillCloses(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	je, se := newExecutions(t, repo)

	tk := new(MockTasklet)
	tk.On("SetExecutionContext", mock.Anything, mock.Anything).Return(nil)
	tk.On("Execute", mock.Anything, se).Return(model.ExitStatusFailed, errors.New("write failed"))
	tk.On("GetExecutionContext", mock.Anything).Return(model.NewExecutionContext(), nil)
	tk.On("Close", mock.Anything).Return(nil)

	step := tasklet.NewTaskletStep("greetingStep", tk, repo, nil, nil, nil)
	err := step.Execute(context.Background(), je, se)

	require.Error(t, err)
	assert.Equal(t, model.BatchStatusFailed, se.Status)
	assert.Contains(t, se.Failures, "write failed")
	tk.AssertCalled(t, "Close", mock.Anything)
}

func TestTaskletStep_CloseFailureFailsStep(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	je, se := newExecutions(t, repo)

	tk := new(MockTasklet)
	tk.On("SetExecutionContext", mock.Anything, mock.Anything).Return(nil)
	tk.On("Execute", mock.Anything, se).Return(model.ExitStatusCompleted, nil)
	tk.On("GetExecutionContext", mock.Anything).Return(model.NewExecutionContext(), nil)
	tk.On("Close", mock.Anything).Return(errors.New("close failed"))

	step := tasklet.NewTaskletStep("greetingStep", tk, repo, nil, nil, nil)
	assert.ErrorContains(t, step.Execute(context.Background(), je, se), "close failed")
	assert.Equal(t, model.BatchStatusFailed, se.Status)
}

func TestTaskletStep_CancelledMarksStopped(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	je, se := newExecutions(t, repo)
	ctx, cancel := context.WithCancel(context.Background())

	tk := new(MockTasklet)
	tk.On("SetExecutionContext", mock.Anything, mock.Anything).Return(nil)
	tk.On("Execute", mock.Anything, se).Run(func(mock.Arguments) { cancel() }).Return(model.ExitStatusFailed, context.Canceled)
	tk.On("GetExecutionContext", mock.Anything).Return(model.NewExecutionContext(), nil)
	tk.On("Close", mock.Anything).Return(nil)

	step := tasklet.NewTaskletStep("greetingStep", tk, repo, nil, nil, nil)
	assert.ErrorIs(t, step.Execute(ctx, je, se), context.Canceled)
	assert.Equal(t, model.BatchStatusStopped, se.Status)

	stored, err := repo.FindStepExecutionByID(context.Background(), se.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusStopped, stored.Status)
}

func TestTaskletStep_UnsavedStepExecution(t *testing.T) {
	repo := inmemory.NewInMemoryJobRepository()
	je := model.NewJobExecution("demoJob", model.NewJobParameters())
	se := model.NewStepExecution(model.NewID(), je, "greetingStep")

	step := tasklet.NewTaskletStep("greetingStep", new(MockTasklet), repo, nil, nil, nil)
	assert.Error(t, step.Execute(context.Background(), je, se))
}

func TestTaskletStep_Identity(t *testing.T) {
	step := tasklet.NewTaskletStep("greetingStep", new(MockTasklet), nil, nil, nil, nil)
	assert.Equal(t, "greetingStep", step.ID())
	assert.Equal(t, "greetingStep", step.StepName())
}

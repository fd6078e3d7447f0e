package job_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/demorunner/pkg/batch/adapter/storage/local"
	writer "github.com/tigerroll/demorunner/pkg/batch/component/step/writer"
	config "github.com/tigerroll/demorunner/pkg/batch/core/config"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/infrastructure/repository/inmemory"

	appJob "github.com/tigerroll/demorunner/internal/app/job"
	"github.com/tigerroll/demorunner/internal/app/runner"
	appStep "github.com/tigerroll/demorunner/internal/step"
)

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func newJob(t *testing.T, cfg *config.Config, dir string, out io.Writer) (*appJob.DemoJob, *inmemory.InMemoryJobRepository) {
	t.Helper()
	repo := inmemory.NewInMemoryJobRepository()
	sink := writer.NewLineSink(out)
	job, err := appJob.NewDemoJob(cfg, repo, runner.NewDemoJobRunner(repo, nil, nil), sink,
		local.NewLocalAdapter(dir, "test"), appStep.NewGreetingTaskletFactory(sink), nil, nil, nil)
	require.NoError(t, err)
	return job, repo
}

func run(t *testing.T, job *appJob.DemoJob, repo *inmemory.InMemoryJobRepository) (*model.JobExecution, error) {
	t.Helper()
	je := model.NewJobExecution(job.JobName(), model.NewJobParameters())
	require.NoError(t, repo.SaveJobExecution(context.Background(), je))
	return je, job.Run(context.Background(), je, je.Parameters)
}

func TestDemoJob_Steps(t *testing.T) {
	job, _ := newJob(t, config.NewConfig(), t.TempDir(), &bytes.Buffer{})

	assert.Equal(t, "demoJob", job.JobName())
	names := make([]string, 0, 3)
	for _, s := range job.Steps() {
		names = append(names, s.StepName())
	}
	assert.Equal(t, []string{appJob.GreetingStepName, appJob.SequenceStepName, appJob.InputFileStepName}, names)
}

func TestDemoJob_RunTwiceIsIdentical(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.txt"), []byte("x\r\ny"), 0o644))

	var out bytes.Buffer
	job, repo := newJob(t, config.NewConfig(), dir, &out)

	_, err := run(t, job, repo)
	require.NoError(t, err)
	first := out.String()
	out.Reset()

	_, err = run(t, job, repo)
	require.NoError(t, err)
	assert.Equal(t, first, out.String())
	assert.Equal(t, "Hello from Go\n1\n2\n3\nx\r\ny\n", first)
}

func TestDemoJob_RecordsLinesEmittedPerRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.txt"), []byte("a\nb\nc\n"), 0o644))
	job, repo := newJob(t, config.NewConfig(), dir, &bytes.Buffer{})

	for i := 0; i < 2; i++ {
		je, err := run(t, job, repo)
		require.NoError(t, err)

		stored, err := repo.FindJobExecutionByID(context.Background(), je.ID)
		require.NoError(t, err)
		n, ok := stored.ExecutionContext.GetInt(writer.LinesEmittedKey)
		require.True(t, ok)
		assert.Equal(t, 7, n)
	}
}

func TestDemoJob_CustomInputPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lines.txt"), []byte("only\n"), 0o644))
	cfg := config.NewConfig()
	cfg.Runner.Batch.InputPath = "lines.txt"
	cfg.Runner.Batch.ChunkSize = 1

	var out bytes.Buffer
	job, repo := newJob(t, cfg, dir, &out)
	_, err := run(t, job, repo)
	require.NoError(t, err)
	assert.Equal(t, "Hello from Go\n1\n2\n3\nonly\n", out.String())
}

func TestDemoJob_WriteFailureFailsJob(t *testing.T) {
	job, repo := newJob(t, config.NewConfig(), t.TempDir(), brokenWriter{})

	je, err := run(t, job, repo)
	assert.Error(t, err)
	assert.Equal(t, model.BatchStatusFailed, je.Status)
	assert.Equal(t, model.RunStateInit, je.RunState)
}

func TestDemoJob_ValidateParameters(t *testing.T) {
	job, _ := newJob(t, config.NewConfig(), t.TempDir(), &bytes.Buffer{})

	assert.NoError(t, job.ValidateParameters(model.NewJobParameters()))

	params := model.NewJobParameters()
	params.Put("input", "other.txt")
	assert.ErrorContains(t, job.ValidateParameters(params), "input")
}

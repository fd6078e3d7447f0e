package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	config "github.com/tigerroll/demorunner/pkg/batch/core/config"
	repository "github.com/tigerroll/demorunner/pkg/batch/core/domain/repository"
)

const greetingLine = "Hello from Go"

// runApp boots the application in dir, waits for the job to request shutdown and
// returns everything written to stdout.
func runApp(t *testing.T, ctx context.Context, dir string, extra ...fx.Option) string {
	t.Helper()
	chdir(t, dir)

	var out bytes.Buffer
	opts := append(GetApplicationOptions(ctx, "", embeddedConfig, &out), extra...)
	app := fxtest.New(t, opts...)
	app.RequireStart()

	select {
	case <-app.Wait():
	case <-time.After(30 * time.Second):
		t.Fatal("application did not shut down after the job finished")
	}
	app.RequireStop()
	return out.String()
}

func lines(out string) []string {
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func writeInput(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.txt"), []byte(content), 0o644))
}

func TestRun_GreetingIsFirstLine(t *testing.T) {
	out := runApp(t, context.Background(), t.TempDir())
	require.NotEmpty(t, out)
	assert.Equal(t, greetingLine, lines(out)[0])
}

func TestRun_SequenceFollowsGreeting(t *testing.T) {
	out := runApp(t, context.Background(), t.TempDir())
	got := lines(out)
	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, []string{"1", "2", "3"}, got[1:4])
}

func TestRun_MissingInputYieldsFourLines(t *testing.T) {
	out := runApp(t, context.Background(), t.TempDir())
	assert.Equal(t, "Hello from Go\n1\n2\n3\n", out)
}

func TestRun_InputLinesAreEchoed(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a\nb\nc\n")

	out := runApp(t, context.Background(), dir)
	assert.Len(t, lines(out), 7)
	assert.Equal(t, "Hello from Go\n1\n2\n3\na\nb\nc\n", out)
}

func TestRun_EmptyInputYieldsFourLines(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "")

	out := runApp(t, context.Background(), dir)
	assert.Equal(t, "Hello from Go\n1\n2\n3\n", out)
}

func TestRun_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "first\r\n\nlast without newline")

	first := runApp(t, context.Background(), dir)
	second := runApp(t, context.Background(), dir)
	assert.Equal(t, first, second)
	assert.Equal(t, "Hello from Go\n1\n2\n3\nfirst\r\n\nlast without newline\n", first)
}

func TestRun_InputDirectoryIsTreatedAsMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "input.txt"), 0o755))

	out := runApp(t, context.Background(), dir)
	assert.Equal(t, "Hello from Go\n1\n2\n3\n", out)
}

func TestRun_SQLiteRepositoryAndOTelBackend(t *testing.T) {
	t.Setenv("RUNNER_INFRASTRUCTURE_JOB_REPOSITORY", "sqlite")
	t.Setenv("RUNNER_METRICS_BACKEND", "otel")
	dir := t.TempDir()
	writeInput(t, dir, "x\n")

	var repo repository.JobRepository
	out := runApp(t, context.Background(), dir, fx.Populate(&repo))
	assert.Equal(t, "Hello from Go\n1\n2\n3\nx\n", out)
	assert.NotNil(t, repo)
}

func TestRun_CancelledContextStopsWithoutOutput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := runApp(t, ctx, t.TempDir())
	assert.Empty(t, out)
}

func TestRun_DotEnvInWorkingDirectoryIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a\n")
	dotEnv := "RUNNER_BATCH_JOB_NAME=other\nRUNNER_BATCH_CHUNK_SIZE=x\nRUNNER_BATCH_INPUT_PATH=absent.txt\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotEnv), 0o644))

	out := runApp(t, context.Background(), dir)
	assert.Equal(t, "Hello from Go\n1\n2\n3\na\n", out)
}

func TestRun_InvalidOverridesFallBackToDefaults(t *testing.T) {
	t.Setenv("RUNNER_BATCH_CHUNK_SIZE", "0")
	t.Setenv("RUNNER_METRICS_BACKEND", "statsd")
	dir := t.TempDir()
	writeInput(t, dir, "a\n")

	var cfg *config.Config
	out := runApp(t, context.Background(), dir, fx.Populate(&cfg))
	assert.Equal(t, "Hello from Go\n1\n2\n3\na\n", out)
	assert.Equal(t, config.NewConfig(), cfg)
}

func TestRun_UnparsableOverrideFallsBackToDefaults(t *testing.T) {
	t.Setenv("RUNNER_BATCH_CHUNK_SIZE", "x")

	out := runApp(t, context.Background(), t.TempDir())
	assert.Equal(t, "Hello from Go\n1\n2\n3\n", out)
}

// mainProcessEnv makes TestMainProcess run main() instead of skipping.
const mainProcessEnv = "DEMO_RUNNER_EXEC_MAIN"

// TestMainProcess is the entry point of the child process started by execMain.
func TestMainProcess(t *testing.T) {
	if os.Getenv(mainProcessEnv) != "1" {
		t.Skip("only runs as a child process")
	}
	main()
}

// execMain runs main() in a child process with dir as working directory and
// returns its stdout and exit code.
func execMain(t *testing.T, dir string, env ...string) (string, int) {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, exe, "-test.run=^TestMainProcess$")
	cmd.Dir = dir
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "RUNNER_") || strings.HasPrefix(kv, "ENV_FILE_PATH=") {
			continue
		}
		cmd.Env = append(cmd.Env, kv)
	}
	cmd.Env = append(cmd.Env, mainProcessEnv+"=1")
	cmd.Env = append(cmd.Env, env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		require.True(t, errors.As(err, &exitErr), "child process did not run: %v", err)
		code = exitErr.ExitCode()
	}
	if stderr.Len() > 0 {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), code
}

func TestMainFunc_AlwaysExitsZero(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a child process")
	}

	hostileEnv := "RUNNER_BATCH_JOB_NAME=other\nRUNNER_BATCH_CHUNK_SIZE=x\n"

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) []string
		want  string
	}{
		{
			name:  "missing input",
			setup: func(t *testing.T, dir string) []string { return nil },
			want:  "Hello from Go\n1\n2\n3\n",
		},
		{
			name: "empty input",
			setup: func(t *testing.T, dir string) []string {
				writeInput(t, dir, "")
				return nil
			},
			want: "Hello from Go\n1\n2\n3\n",
		},
		{
			name: "input lines",
			setup: func(t *testing.T, dir string) []string {
				writeInput(t, dir, "a\nb\nc\n")
				return nil
			},
			want: "Hello from Go\n1\n2\n3\na\nb\nc\n",
		},
		{
			name: "dot env in working directory",
			setup: func(t *testing.T, dir string) []string {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(hostileEnv), 0o644))
				return nil
			},
			want: "Hello from Go\n1\n2\n3\n",
		},
		{
			name: "explicit env file with invalid values",
			setup: func(t *testing.T, dir string) []string {
				envFile := filepath.Join(t.TempDir(), "runner.env")
				require.NoError(t, os.WriteFile(envFile, []byte(hostileEnv), 0o644))
				return []string{"ENV_FILE_PATH=" + envFile}
			},
			want: "Hello from Go\n1\n2\n3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			env := tt.setup(t, dir)

			out, code := execMain(t, dir, env...)
			assert.Equal(t, 0, code)
			assert.Equal(t, tt.want, out)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

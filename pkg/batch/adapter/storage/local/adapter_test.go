package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/demorunner/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
)

func TestDownload_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.txt"), []byte("a\nb\n"), 0o644))

	adapter := local.NewLocalAdapter(dir, "test")
	rc, err := adapter.Download(context.Background(), "", "input.txt")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestDownload_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.txt"), []byte("x"), 0o644))
	chdir(t, dir)

	rc, err := local.NewWorkingDirAdapter().Download(context.Background(), "", "input.txt")
	require.NoError(t, err)
	assert.NoError(t, rc.Close())
}

func TestDownload_AcquisitionFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
	adapter := local.NewLocalAdapter(dir, "test")

	cases := map[string]string{
		"missing":   "input.txt",
		"directory": "subdir",
		"escape":    "../outside.txt",
		"empty":     "",
	}
	for name, object := range cases {
		t.Run(name, func(t *testing.T) {
			rc, err := adapter.Download(context.Background(), "", object)
			assert.Nil(t, rc)
			require.Error(t, err)
			assert.True(t, exception.IsResourceUnavailable(err))
		})
	}
}

func TestDownload_MissingFileWrapsNotExist(t *testing.T) {
	_, err := local.NewLocalAdapter(t.TempDir(), "test").Download(context.Background(), "", "absent.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDownload_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := local.NewLocalAdapter(t.TempDir(), "test").Download(ctx, "", "input.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdapterIdentity(t *testing.T) {
	a := local.NewWorkingDirAdapter()
	assert.Equal(t, "workdir", a.Name())
	assert.Equal(t, local.ProviderType, a.Type())
	assert.NoError(t, a.Close())
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

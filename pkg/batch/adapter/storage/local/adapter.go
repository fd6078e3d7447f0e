// Package local provides a local file system implementation of the storage adapter interfaces.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	storageAdapter "github.com/tigerroll/demorunner/pkg/batch/adapter/storage"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

const (
	// ProviderType defines the type identifier for this local storage provider.
	ProviderType = "local"

	moduleName = "local_storage"
)

// LocalAdapter implements storage.StorageConnection on the local file system.
//
// With an empty base directory, object names are used as given and relative names
// resolve against the process working directory. Otherwise objects live under
// baseDir[/bucket]/objectName and may not escape baseDir.
type LocalAdapter struct {
	baseDir string
	name    string
}

var _ storageAdapter.StorageConnection = (*LocalAdapter)(nil)

// NewLocalAdapter creates a new LocalAdapter. It does not touch the file system.
func NewLocalAdapter(baseDir, name string) *LocalAdapter {
	return &LocalAdapter{baseDir: baseDir, name: name}
}

// NewWorkingDirAdapter returns the adapter used for the runner's input:
// paths are resolved against the working directory.
func NewWorkingDirAdapter() *LocalAdapter {
	return NewLocalAdapter("", "workdir")
}

// Close does nothing; the adapter holds no resources of its own.
func (a *LocalAdapter) Close() error {
	logger.Debugf("Local storage adapter '%s' closed.", a.name)
	return nil
}

// Type returns "local".
func (a *LocalAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *LocalAdapter) Name() string {
	return a.name
}

// Download opens the object for reading.
// Every failure to open it (missing, permission denied, a directory) is reported as a
// resource-unavailable error; the caller decides whether that is fatal.
func (a *LocalAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, exception.NewResourceUnavailableError(moduleName, objectName, err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, exception.NewResourceUnavailableError(moduleName, fullPath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, exception.NewResourceUnavailableError(moduleName, fullPath, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, exception.NewResourceUnavailableError(moduleName, fullPath, fmt.Errorf("'%s' is a directory", fullPath))
	}

	logger.Debugf("Opened '%s' for reading (local adapter '%s').", fullPath, a.name)
	return file, nil
}

// resolvePath joins bucket and objectName onto the base directory and rejects
// results outside of it.
func (a *LocalAdapter) resolvePath(bucket, objectName string) (string, error) {
	if objectName == "" {
		return "", fmt.Errorf("object name must not be empty")
	}
	if a.baseDir == "" {
		if bucket == "" {
			return objectName, nil
		}
		return filepath.Join(bucket, objectName), nil
	}

	fullPath := filepath.Join(a.baseDir, bucket, objectName)

	absBaseDir, err := filepath.Abs(a.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for base directory '%s': %w", a.baseDir, err)
	}
	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", fullPath, err)
	}
	if absFullPath != absBaseDir && !strings.HasPrefix(absFullPath, absBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("resolved path '%s' is outside of base directory '%s'", fullPath, a.baseDir)
	}
	return fullPath, nil
}

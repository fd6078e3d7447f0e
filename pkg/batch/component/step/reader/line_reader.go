package reader

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	storageAdapter "github.com/tigerroll/demorunner/pkg/batch/adapter/storage"
	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

const (
	// InputPresentKey records whether the input could be opened.
	InputPresentKey = "input.present"

	lineReaderModule = "line_reader"
)

// LineReader reads an optional text object line by line.
//
// Lines are split on '\n' and returned without it; every other byte, '\r' included,
// is kept. A last line without terminator is returned, and a trailing terminator
// does not produce an extra empty line. Line length is unbounded.
//
// If the object cannot be acquired the reader yields no lines and Open succeeds.
type LineReader struct {
	name    string
	storage storageAdapter.StorageConnection
	path    string

	rc      io.ReadCloser
	br      *bufio.Reader
	present bool
	lines   int
	ec      model.ExecutionContext
}

// NewLineReader creates a reader for path on the given storage connection.
func NewLineReader(name string, storage storageAdapter.StorageConnection, path string) *LineReader {
	return &LineReader{
		name:    name,
		storage: storage,
		path:    path,
		ec:      model.NewExecutionContext(),
	}
}

// Open acquires the input. Any acquisition failure is mapped to "no lines";
// only cancellation of ctx is returned.
func (r *LineReader) Open(ctx context.Context, ec model.ExecutionContext) error {
	if err := r.Close(ctx); err != nil {
		logger.Warnf("LineReader '%s': %v", r.name, err)
	}
	r.ec = ec
	r.lines = 0

	rc, err := r.storage.Download(ctx, "", r.path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logger.Debugf("LineReader '%s': input '%s' is unavailable, no lines will be read: %v", r.name, r.path, err)
		r.present = false
		r.ec.Put(InputPresentKey, false)
		return nil
	}

	r.rc = rc
	r.br = bufio.NewReader(rc)
	r.present = true
	r.ec.Put(InputPresentKey, true)
	return nil
}

// Present reports whether the last Open acquired the input.
func (r *LineReader) Present() bool {
	return r.present
}

// Read returns the next line, or port.ErrNoMoreItems once the input is exhausted.
// A read error after a successful open ends the stream; it is logged, not returned.
func (r *LineReader) Read(ctx context.Context) (string, error) {
	if r.br == nil {
		return "", port.ErrNoMoreItems
	}

	line, err := r.br.ReadString('\n')
	switch {
	case err == nil:
		return r.emit(strings.TrimSuffix(line, "\n")), nil
	case errors.Is(err, io.EOF):
		r.br = nil
		if line == "" {
			return "", port.ErrNoMoreItems
		}
		return r.emit(line), nil
	default:
		r.br = nil
		logger.Warnf("LineReader '%s': reading '%s' failed after %d lines, ending input: %v", r.name, r.path, r.lines, err)
		return "", port.ErrNoMoreItems
	}
}

func (r *LineReader) emit(line string) string {
	r.lines++
	r.ec.Put(r.name+".readCount", r.lines)
	return line
}

// Close releases the input. It is safe to call more than once.
func (r *LineReader) Close(ctx context.Context) error {
	r.br = nil
	if r.rc == nil {
		return nil
	}
	err := r.rc.Close()
	r.rc = nil
	if err != nil {
		return exception.NewBatchError(lineReaderModule, "failed to close input '"+r.path+"'", err, false, false)
	}
	return nil
}

// SetExecutionContext sets the ExecutionContext.
func (r *LineReader) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	r.ec = ec
	return nil
}

// GetExecutionContext retrieves the ExecutionContext.
func (r *LineReader) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	return r.ec, nil
}

var _ port.ItemReader[string] = (*LineReader)(nil)

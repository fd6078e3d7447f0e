package exception_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
)

func TestNewBatchError(t *testing.T) {
	orig := errors.New("boom")
	err := exception.NewBatchError("writer", "write failed", orig, false, true)

	assert.Equal(t, "[writer] write failed: boom", err.Error())
	assert.True(t, err.IsRetryable())
	assert.False(t, err.IsSkippable())
	assert.ErrorIs(t, err, orig)
	assert.NotEmpty(t, err.StackTrace)
}

func TestNewBatchErrorf_TrailingArguments(t *testing.T) {
	orig := errors.New("eof")

	err := exception.NewBatchErrorf("reader", "failed to read %s", "input.txt", true, false, orig)
	assert.Equal(t, "failed to read input.txt", err.Message)
	assert.True(t, err.IsSkippable())
	assert.False(t, err.IsRetryable())
	assert.Same(t, orig, err.OriginalErr)

	plain := exception.NewBatchErrorf("runner", "step %q missing", "x")
	assert.Equal(t, "[runner] step \"x\" missing", plain.Error())
	assert.Nil(t, plain.OriginalErr)
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "clean", exception.ExtractErrorMessage(exception.NewBatchError("m", "clean", errors.New("noisy"), false, false)))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))
}

func TestResourceUnavailable(t *testing.T) {
	err := exception.NewResourceUnavailableError("local_storage", "input.txt", fs.ErrNotExist)

	assert.True(t, exception.IsResourceUnavailable(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, err.IsSkippable())

	bare := exception.NewResourceUnavailableError("local_storage", "x", nil)
	assert.True(t, exception.IsResourceUnavailable(bare))
	assert.False(t, exception.IsResourceUnavailable(errors.New("other")))
}

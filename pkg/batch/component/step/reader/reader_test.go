package reader_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/demorunner/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/demorunner/pkg/batch/component/step/reader"
	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
)

// MockStorage is a mock of storage.StorageConnection.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, objectName)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}
func (m *MockStorage) Name() string { return "mock" }
func (m *MockStorage) Type() string { return "mock" }
func (m *MockStorage) Close() error { return nil }

type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

type failingReader struct {
	data []byte
	done bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.done {
		return 0, errors.New("device error")
	}
	f.done = true
	return copy(p, f.data), nil
}

func readAll(t *testing.T, r port.ItemReader[string]) []string {
	t.Helper()
	var out []string
	for {
		line, err := r.Read(context.Background())
		if errors.Is(err, port.ErrNoMoreItems) {
			return out
		}
		require.NoError(t, err)
		out = append(out, line)
	}
}

func TestSequenceReader_InsertionOrder(t *testing.T) {
	r := reader.NewSequenceReader[int]("seq")
	r.Append(1)
	r.Append(2)
	r.Append(3)
	assert.Equal(t, 3, r.Len())

	ec := model.NewExecutionContext()
	require.NoError(t, r.Open(context.Background(), ec))

	var got []int
	for {
		v, err := r.Read(context.Background())
		if errors.Is(err, port.ErrNoMoreItems) {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3}, got)

	count, ok := ec.GetInt("seq.readCount")
	assert.True(t, ok)
	assert.Equal(t, 3, count)
	require.NoError(t, r.Close(context.Background()))
}

func TestSequenceReader_OpenRewinds(t *testing.T) {
	r := reader.NewSequenceReader[string]("seq")
	r.Append("x")

	for i := 0; i < 2; i++ {
		require.NoError(t, r.Open(context.Background(), model.NewExecutionContext()))
		v, err := r.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "x", v)
		_, err = r.Read(context.Background())
		assert.ErrorIs(t, err, port.ErrNoMoreItems)
	}
}

func TestSequenceReader_Empty(t *testing.T) {
	r := reader.NewSequenceReader[int]("seq")
	require.NoError(t, r.Open(context.Background(), model.NewExecutionContext()))
	_, err := r.Read(context.Background())
	assert.ErrorIs(t, err, port.ErrNoMoreItems)
}

func TestLineReader_LineSplitting(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"terminated", "a\nb\nc\n", []string{"a", "b", "c"}},
		{"unterminated last line", "a\nb\nc", []string{"a", "b", "c"}},
		{"empty file", "", nil},
		{"only newline", "\n", []string{""}},
		{"blank lines kept", "a\n\n\nb\n", []string{"a", "", "", "b"}},
		{"carriage return kept", "a\r\nb\r\n", []string{"a\r", "b\r"}},
		{"long line", strings.Repeat("x", 200000) + "\n", []string{strings.Repeat("x", 200000)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rc := &trackingCloser{Reader: strings.NewReader(tc.input)}
			storage := new(MockStorage)
			storage.On("Download", mock.Anything, "", "input.txt").Return(rc, nil)

			r := reader.NewLineReader("input", storage, "input.txt")
			ec := model.NewExecutionContext()
			require.NoError(t, r.Open(context.Background(), ec))

			assert.Equal(t, tc.want, readAll(t, r))
			require.NoError(t, r.Close(context.Background()))
			assert.Equal(t, 1, rc.closed)

			present, ok := ec.GetBool(reader.InputPresentKey)
			assert.True(t, ok)
			assert.True(t, present)
			storage.AssertExpectations(t)
		})
	}
}

func TestLineReader_UnavailableInputYieldsNothing(t *testing.T) {
	storage := new(MockStorage)
	storage.On("Download", mock.Anything, "", "input.txt").
		Return(nil, exception.NewResourceUnavailableError("test", "input.txt", os.ErrPermission))

	r := reader.NewLineReader("input", storage, "input.txt")
	ec := model.NewExecutionContext()
	require.NoError(t, r.Open(context.Background(), ec))

	assert.False(t, r.Present())
	assert.Empty(t, readAll(t, r))
	assert.NoError(t, r.Close(context.Background()))

	present, ok := ec.GetBool(reader.InputPresentKey)
	assert.True(t, ok)
	assert.False(t, present)
}

func TestLineReader_CancelledOpenIsReturned(t *testing.T) {
	storage := new(MockStorage)
	storage.On("Download", mock.Anything, "", "input.txt").Return(nil, context.Canceled)

	r := reader.NewLineReader("input", storage, "input.txt")
	assert.ErrorIs(t, r.Open(context.Background(), model.NewExecutionContext()), context.Canceled)
}

func TestLineReader_ReadErrorEndsStream(t *testing.T) {
	rc := &trackingCloser{Reader: &failingReader{data: []byte("a\nb\npartial")}}
	storage := new(MockStorage)
	storage.On("Download", mock.Anything, "", "input.txt").Return(rc, nil)

	r := reader.NewLineReader("input", storage, "input.txt")
	require.NoError(t, r.Open(context.Background(), model.NewExecutionContext()))

	assert.Equal(t, []string{"a", "b"}, readAll(t, r))
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, 1, rc.closed)
}

func TestLineReader_ReopenReadsAgain(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input.txt"), []byte("a\nb\n"), 0o644))

	r := reader.NewLineReader("input", local.NewLocalAdapter(dir, "test"), "input.txt")
	for i := 0; i < 2; i++ {
		require.NoError(t, r.Open(context.Background(), model.NewExecutionContext()))
		assert.Equal(t, []string{"a", "b"}, readAll(t, r))
		require.NoError(t, r.Close(context.Background()))
	}
}

func TestLineReader_MissingFileOnDisk(t *testing.T) {
	r := reader.NewLineReader("input", local.NewLocalAdapter(t.TempDir(), "test"), "input.txt")
	require.NoError(t, r.Open(context.Background(), model.NewExecutionContext()))
	assert.Empty(t, readAll(t, r))
	assert.NoError(t, r.Close(context.Background()))
}

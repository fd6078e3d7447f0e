package item_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/demorunner/pkg/batch/component/item"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

func TestPassThroughItemProcessor_ReturnsInput(t *testing.T) {
	p := item.NewPassThroughItemProcessor[string]()

	for _, in := range []string{"a", "", "line with\r"} {
		out, err := p.Process(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestFormatIntItemProcessor_Formats(t *testing.T) {
	p := item.NewFormatIntItemProcessor()

	cases := map[int]string{1: "1", 2: "2", 3: "3", 0: "0", -7: "-7", 1234567: "1234567"}
	for in, want := range cases {
		out, err := p.Process(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, want, out)
	}
}

func TestProcessors_ExecutionContext(t *testing.T) {
	ec := model.NewExecutionContext()
	ec.Put("k", "v")

	p := item.NewFormatIntItemProcessor()
	require.NoError(t, p.SetExecutionContext(context.Background(), ec))
	got, err := p.GetExecutionContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ec, got)
}

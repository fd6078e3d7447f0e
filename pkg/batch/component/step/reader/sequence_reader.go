// Package reader provides ItemReader implementations for chunk-oriented steps.
package reader

import (
	"context"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

// SequenceReader reads the items of an insertion-ordered, in-memory sequence.
// Items are added with Append before the step runs; Open rewinds to the first item,
// so the same reader yields the same items on every run.
type SequenceReader[T any] struct {
	name   string
	items  []T
	cursor int
	ec     model.ExecutionContext
}

// NewSequenceReader creates an empty sequence.
func NewSequenceReader[T any](name string) *SequenceReader[T] {
	return &SequenceReader[T]{
		name:  name,
		items: make([]T, 0),
		ec:    model.NewExecutionContext(),
	}
}

// Append adds item at the end of the sequence.
func (r *SequenceReader[T]) Append(item T) {
	r.items = append(r.items, item)
}

// Len returns the number of items in the sequence.
func (r *SequenceReader[T]) Len() int {
	return len(r.items)
}

// Open rewinds the cursor.
func (r *SequenceReader[T]) Open(ctx context.Context, ec model.ExecutionContext) error {
	r.ec = ec
	r.cursor = 0
	r.ec.Put(r.name+".readCount", 0)
	return nil
}

// Read returns the next item in insertion order, or port.ErrNoMoreItems.
func (r *SequenceReader[T]) Read(ctx context.Context) (T, error) {
	var zero T
	if r.cursor >= len(r.items) {
		return zero, port.ErrNoMoreItems
	}
	item := r.items[r.cursor]
	r.cursor++
	r.ec.Put(r.name+".readCount", r.cursor)
	return item, nil
}

// Close does nothing; the items stay available for the next Open.
func (r *SequenceReader[T]) Close(ctx context.Context) error {
	return nil
}

// SetExecutionContext sets the ExecutionContext.
func (r *SequenceReader[T]) SetExecutionContext(ctx context.Context, ec model.ExecutionContext) error {
	r.ec = ec
	return nil
}

// GetExecutionContext retrieves the ExecutionContext.
func (r *SequenceReader[T]) GetExecutionContext(ctx context.Context) (model.ExecutionContext, error) {
	return r.ec, nil
}

var _ port.ItemReader[int] = (*SequenceReader[int])(nil)

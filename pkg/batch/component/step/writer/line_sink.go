// Package writer provides ItemWriter implementations and the line sink they write to.
package writer

import (
	"bufio"
	"io"
	"sync"
)

// LineSink serializes whole lines onto one underlying writer.
// Every producer in a run (tasklets and item writers) shares a single sink,
// so their lines reach the writer in the order they were emitted.
type LineSink struct {
	mu    sync.Mutex
	w     *bufio.Writer
	lines int
}

// NewLineSink wraps w in a buffered sink.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: bufio.NewWriter(w)}
}

// WriteLine writes line followed by '\n'. The line is buffered until Flush.
func (s *LineSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	s.lines++
	return nil
}

// Flush writes buffered lines to the underlying writer.
func (s *LineSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Lines returns the number of lines accepted so far.
func (s *LineSink) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

package model

import "fmt"

// RunState tracks how far a demo run has progressed.
//
//	Init -> GreetingEmitted -> SequenceEmitted -> Done
//
// Each transition happens exactly once and in order; there are no loops back.
type RunState int

const (
	RunStateInit RunState = iota
	RunStateGreetingEmitted
	RunStateSequenceEmitted
	RunStateDone
)

var runStateNames = [...]string{
	RunStateInit:            "INIT",
	RunStateGreetingEmitted: "GREETING_EMITTED",
	RunStateSequenceEmitted: "SEQUENCE_EMITTED",
	RunStateDone:            "DONE",
}

// String returns the upper-case name of the state.
func (s RunState) String() string {
	if s < RunStateInit || s > RunStateDone {
		return fmt.Sprintf("RunState(%d)", int(s))
	}
	return runStateNames[s]
}

// IsTerminal reports whether s is Done.
func (s RunState) IsTerminal() bool {
	return s == RunStateDone
}

// Advance returns next if it is the immediate successor of s.
func (s RunState) Advance(next RunState) (RunState, error) {
	if s.IsTerminal() {
		return s, fmt.Errorf("run state %s is terminal, cannot move to %s", s, next)
	}
	if next != s+1 {
		return s, fmt.Errorf("invalid run state transition: %s -> %s", s, next)
	}
	return next, nil
}

package model

import (
	"fmt"
	"time"

	"github.com/tigerroll/demorunner/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// JobExecution is a single run of a job.
type JobExecution struct {
	ID               string
	JobName          string
	Parameters       JobParameters
	StartTime        time.Time
	EndTime          *time.Time
	Status           JobStatus
	ExitStatus       ExitStatus
	Failures         FailureList
	CreateTime       time.Time
	LastUpdated      time.Time
	StepExecutions   []*StepExecution
	ExecutionContext ExecutionContext
	CurrentStepName  string
	RunState         RunState
}

// StepExecution is a single run of one step within a JobExecution.
type StepExecution struct {
	ID               string
	StepName         string
	JobExecution     *JobExecution
	JobExecutionID   string
	StartTime        time.Time
	EndTime          *time.Time
	Status           JobStatus
	ExitStatus       ExitStatus
	Failures         FailureList
	ReadCount        int
	WriteCount       int
	FilterCount      int
	CommitCount      int
	ExecutionContext ExecutionContext
	LastUpdated      time.Time
}

// NewJobExecution creates a JobExecution in STARTING state.
func NewJobExecution(jobName string, params JobParameters) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:               NewID(),
		JobName:          jobName,
		Parameters:       params,
		StartTime:        now,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		CreateTime:       now,
		LastUpdated:      now,
		Failures:         make(FailureList, 0),
		StepExecutions:   make([]*StepExecution, 0),
		ExecutionContext: NewExecutionContext(),
		RunState:         RunStateInit,
	}
}

// isValidTransition checks a status change for both job and step executions.
func isValidTransition(current, next JobStatus) bool {
	switch current {
	case BatchStatusStarting:
		return next == BatchStatusStarted || next == BatchStatusFailed || next == BatchStatusStopped
	case BatchStatusStarted:
		return next == BatchStatusCompleted || next == BatchStatusFailed || next == BatchStatusStopped
	default:
		return false
	}
}

// TransitionTo changes the status if the transition is legal.
func (je *JobExecution) TransitionTo(newStatus JobStatus) error {
	if !isValidTransition(je.Status, newStatus) {
		return fmt.Errorf("JobExecution (ID: %s): Invalid state transition: %s -> %s", je.ID, je.Status, newStatus)
	}
	je.Status = newStatus
	return nil
}

func (je *JobExecution) finish(status JobStatus, exit ExitStatus) {
	if err := je.TransitionTo(status); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to %s: %v", je.ID, status, err)
		je.Status = status
	}
	je.ExitStatus = exit
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
}

// MarkAsStarted updates the JobExecution status to STARTED.
func (je *JobExecution) MarkAsStarted() {
	if err := je.TransitionTo(BatchStatusStarted); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to STARTED: %v", je.ID, err)
		je.Status = BatchStatusStarted
	}
	je.LastUpdated = time.Now()
}

// MarkAsCompleted updates the JobExecution status to COMPLETED.
func (je *JobExecution) MarkAsCompleted() {
	je.finish(BatchStatusCompleted, ExitStatusCompleted)
}

// MarkAsFailed updates the JobExecution status to FAILED and records err.
func (je *JobExecution) MarkAsFailed(err error) {
	je.finish(BatchStatusFailed, ExitStatusFailed)
	je.AddFailureException(err)
}

// MarkAsStopped updates the JobExecution status to STOPPED.
func (je *JobExecution) MarkAsStopped() {
	je.finish(BatchStatusStopped, ExitStatusStopped)
}

// AddFailureException records err's message, skipping duplicates.
func (je *JobExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	msg := exception.ExtractErrorMessage(err)
	for _, existing := range je.Failures {
		if existing == msg {
			return
		}
	}
	je.Failures = append(je.Failures, msg)
	je.LastUpdated = time.Now()
}

// AddStepExecution appends se to the job's step executions.
func (je *JobExecution) AddStepExecution(se *StepExecution) {
	je.StepExecutions = append(je.StepExecutions, se)
}

// AdvanceRunState moves the run state to next. See RunState.Advance.
func (je *JobExecution) AdvanceRunState(next RunState) error {
	advanced, err := je.RunState.Advance(next)
	if err != nil {
		return err
	}
	je.RunState = advanced
	je.LastUpdated = time.Now()
	return nil
}

// NewStepExecution creates a StepExecution in STARTING state.
func NewStepExecution(id string, jobExecution *JobExecution, stepName string) *StepExecution {
	now := time.Now()
	return &StepExecution{
		ID:               id,
		StepName:         stepName,
		JobExecutionID:   jobExecution.ID,
		JobExecution:     jobExecution,
		StartTime:        now,
		Status:           BatchStatusStarting,
		ExitStatus:       ExitStatusUnknown,
		Failures:         make(FailureList, 0),
		ExecutionContext: NewExecutionContext(),
		LastUpdated:      now,
	}
}

// TransitionTo changes the status if the transition is legal.
func (se *StepExecution) TransitionTo(newStatus JobStatus) error {
	if !isValidTransition(se.Status, newStatus) {
		return fmt.Errorf("StepExecution (ID: %s): Invalid state transition: %s -> %s", se.ID, se.Status, newStatus)
	}
	se.Status = newStatus
	return nil
}

func (se *StepExecution) finish(status JobStatus, exit ExitStatus) {
	if err := se.TransitionTo(status); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to %s: %v", se.ID, status, err)
		se.Status = status
	}
	se.ExitStatus = exit
	now := time.Now()
	se.EndTime = &now
	se.LastUpdated = now
}

// MarkAsStarted updates the StepExecution status to STARTED.
func (se *StepExecution) MarkAsStarted() {
	if err := se.TransitionTo(BatchStatusStarted); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to STARTED: %v", se.ID, err)
		se.Status = BatchStatusStarted
	}
	se.LastUpdated = time.Now()
}

// MarkAsCompleted updates the StepExecution status to COMPLETED with the given exit status.
func (se *StepExecution) MarkAsCompleted(exit ExitStatus) {
	if exit == "" || exit == ExitStatusUnknown {
		exit = ExitStatusCompleted
	}
	se.finish(BatchStatusCompleted, exit)
}

// MarkAsFailed updates the StepExecution status to FAILED and records err.
func (se *StepExecution) MarkAsFailed(err error) {
	se.finish(BatchStatusFailed, ExitStatusFailed)
	se.AddFailureException(err)
}

// MarkAsStopped updates the StepExecution status to STOPPED.
func (se *StepExecution) MarkAsStopped() {
	se.finish(BatchStatusStopped, ExitStatusStopped)
}

// AddFailureException records err's message, skipping duplicates.
func (se *StepExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	msg := exception.ExtractErrorMessage(err)
	for _, existing := range se.Failures {
		if existing == msg {
			return
		}
	}
	se.Failures = append(se.Failures, msg)
	se.LastUpdated = time.Now()
}

// Duration returns the elapsed time, or zero while the step is still running.
func (se *StepExecution) Duration() time.Duration {
	if se.EndTime == nil {
		return 0
	}
	return se.EndTime.Sub(se.StartTime)
}

package sql

import (
	"time"

	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

// JobExecutionEntity is the persistence shape of a JobExecution.
type JobExecutionEntity struct {
	ID               string `gorm:"primaryKey"`
	JobName          string
	Parameters       model.JobParameters `gorm:"type:text"`
	StartTime        time.Time
	EndTime          *time.Time
	Status           model.JobStatus
	ExitStatus       model.ExitStatus
	Failures         model.FailureList `gorm:"type:text"`
	CreateTime       time.Time
	LastUpdated      time.Time
	ExecutionContext model.ExecutionContext `gorm:"type:text"`
	CurrentStepName  string
	RunState         model.RunState
}

func (JobExecutionEntity) TableName() string {
	return "batch_job_execution"
}

// StepExecutionEntity is the persistence shape of a StepExecution.
type StepExecutionEntity struct {
	ID               string `gorm:"primaryKey"`
	StepName         string
	JobExecutionID   string `gorm:"index"`
	StartTime        time.Time
	EndTime          *time.Time
	Status           model.JobStatus
	ExitStatus       model.ExitStatus
	Failures         model.FailureList `gorm:"type:text"`
	ReadCount        int
	WriteCount       int
	FilterCount      int
	CommitCount      int
	ExecutionContext model.ExecutionContext `gorm:"type:text"`
	LastUpdated      time.Time
}

func (StepExecutionEntity) TableName() string {
	return "batch_step_execution"
}

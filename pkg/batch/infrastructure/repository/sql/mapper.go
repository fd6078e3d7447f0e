package sql

import (
	"github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
)

func fromDomainJobExecution(je *model.JobExecution) *JobExecutionEntity {
	return &JobExecutionEntity{
		ID:               je.ID,
		JobName:          je.JobName,
		Parameters:       je.Parameters,
		StartTime:        je.StartTime,
		EndTime:          je.EndTime,
		Status:           je.Status,
		ExitStatus:       je.ExitStatus,
		Failures:         je.Failures,
		CreateTime:       je.CreateTime,
		LastUpdated:      je.LastUpdated,
		ExecutionContext: je.ExecutionContext,
		CurrentStepName:  je.CurrentStepName,
		RunState:         je.RunState,
	}
}

func toDomainJobExecution(entity *JobExecutionEntity) *model.JobExecution {
	return &model.JobExecution{
		ID:               entity.ID,
		JobName:          entity.JobName,
		Parameters:       entity.Parameters,
		StartTime:        entity.StartTime,
		EndTime:          entity.EndTime,
		Status:           entity.Status,
		ExitStatus:       entity.ExitStatus,
		Failures:         entity.Failures,
		CreateTime:       entity.CreateTime,
		LastUpdated:      entity.LastUpdated,
		ExecutionContext: entity.ExecutionContext,
		CurrentStepName:  entity.CurrentStepName,
		RunState:         entity.RunState,
		StepExecutions:   make([]*model.StepExecution, 0),
	}
}

func fromDomainStepExecution(se *model.StepExecution) *StepExecutionEntity {
	return &StepExecutionEntity{
		ID:               se.ID,
		StepName:         se.StepName,
		JobExecutionID:   se.JobExecutionID,
		StartTime:        se.StartTime,
		EndTime:          se.EndTime,
		Status:           se.Status,
		ExitStatus:       se.ExitStatus,
		Failures:         se.Failures,
		ReadCount:        se.ReadCount,
		WriteCount:       se.WriteCount,
		FilterCount:      se.FilterCount,
		CommitCount:      se.CommitCount,
		ExecutionContext: se.ExecutionContext,
		LastUpdated:      se.LastUpdated,
	}
}

// toDomainStepExecution rebuilds a StepExecution. The JobExecution back-reference
// is attached by the caller when available.
func toDomainStepExecution(entity *StepExecutionEntity) *model.StepExecution {
	return &model.StepExecution{
		ID:               entity.ID,
		StepName:         entity.StepName,
		JobExecutionID:   entity.JobExecutionID,
		StartTime:        entity.StartTime,
		EndTime:          entity.EndTime,
		Status:           entity.Status,
		ExitStatus:       entity.ExitStatus,
		Failures:         entity.Failures,
		ReadCount:        entity.ReadCount,
		WriteCount:       entity.WriteCount,
		FilterCount:      entity.FilterCount,
		CommitCount:      entity.CommitCount,
		ExecutionContext: entity.ExecutionContext,
		LastUpdated:      entity.LastUpdated,
	}
}

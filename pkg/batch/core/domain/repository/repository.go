// Package repository defines how execution metadata of a run is recorded.
// Implementations live for one process only; nothing is persisted across runs.
package repository

// JobRepository records job and step executions.
type JobRepository interface {
	JobExecution
	StepExecution

	// Close releases resources (such as database connections) used by the repository.
	Close() error
}

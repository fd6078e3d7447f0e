package notification

import (
	"context"
	"fmt"
	"time"

	port "github.com/tigerroll/demorunner/pkg/batch/core/application/port"
	model "github.com/tigerroll/demorunner/pkg/batch/core/domain/model"
	"github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// Notifier delivers a summary of a finished JobExecution.
type Notifier interface {
	NotifyJobCompletion(ctx context.Context, execution *model.JobExecution)
}

// LogNotifier writes the completion summary to the log.
type LogNotifier struct{}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// NotifyJobCompletion logs the summary at INFO for COMPLETED runs and at WARN otherwise.
func (n *LogNotifier) NotifyJobCompletion(ctx context.Context, execution *model.JobExecution) {
	message := Summary(execution)
	if execution.Status == model.BatchStatusCompleted {
		logger.Infof("%s", message)
	} else {
		logger.Warnf("%s", message)
	}
}

// Summary renders the one-line completion message for execution.
func Summary(execution *model.JobExecution) string {
	duration := time.Duration(0)
	if execution.EndTime != nil {
		duration = execution.EndTime.Sub(execution.StartTime)
	}
	return fmt.Sprintf(
		"Job Notification: Job '%s' (ID: %s) finished with Status: %s, ExitStatus: %s, RunState: %s. Steps: %d, Duration: %s, Failures: %d",
		execution.JobName,
		execution.ID,
		execution.Status,
		execution.ExitStatus,
		execution.RunState,
		len(execution.StepExecutions),
		duration,
		len(execution.Failures),
	)
}

var _ Notifier = (*LogNotifier)(nil)

// NotificationListener is a JobExecutionListener that hands finished executions to a Notifier.
type NotificationListener struct {
	notifier Notifier
}

// NewNotificationListener creates a new instance of NotificationListener.
func NewNotificationListener(notifier Notifier) port.JobExecutionListener {
	return &NotificationListener{notifier: notifier}
}

// BeforeJob exists to satisfy JobExecutionListener requirements but does nothing.
func (l *NotificationListener) BeforeJob(ctx context.Context, jobExecution *model.JobExecution) {}

// AfterJob notifies of job completion.
func (l *NotificationListener) AfterJob(ctx context.Context, jobExecution *model.JobExecution) {
	l.notifier.NotifyJobCompletion(ctx, jobExecution)
}

var _ port.JobExecutionListener = (*NotificationListener)(nil)

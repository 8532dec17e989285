package progress

import (
	"fmt"
	"strings"
	"time"
)

// ProgressInfo is a snapshot of a flow run taken at a stage barrier
type ProgressInfo struct {
	Flow              string
	RunID             string
	CurrentStage      int // zero-based index of the stage just finished or started
	TotalStages       int
	TotalTasks        int
	CompletedTasks    int
	FailedTasks       int
	RunningTasks      int
	PendingTasks      int
	ElapsedTime       time.Duration
	EstimatedTimeLeft time.Duration
	StageTasks        []string
	FailedTaskNames   []string
}

// Reporter formats progress of a flow run
type Reporter struct {
	startTime      time.Time
	lastReportTime time.Time
	reportInterval time.Duration
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		startTime:      time.Now(),
		lastReportTime: time.Now(),
		reportInterval: 5 * time.Second,
	}
}

// ShouldReport returns true if it's time to report progress
func (r *Reporter) ShouldReport() bool {
	return time.Since(r.lastReportTime) >= r.reportInterval
}

// Elapsed returns the time since the reporter was created
func (r *Reporter) Elapsed() time.Duration {
	return time.Since(r.startTime)
}

// Report generates a formatted progress report
func (r *Reporter) Report(info ProgressInfo) string {
	r.lastReportTime = time.Now()

	var sb strings.Builder

	percentage := 0.0
	if info.TotalTasks > 0 {
		percentage = float64(info.CompletedTasks) / float64(info.TotalTasks) * 100
	}

	sb.WriteString(fmt.Sprintf("Progress: %d/%d tasks completed (%.1f%%)",
		info.CompletedTasks, info.TotalTasks, percentage))

	if info.TotalStages > 0 {
		sb.WriteString(fmt.Sprintf(" | Stage: %d/%d", info.CurrentStage+1, info.TotalStages))
	}

	sb.WriteString(fmt.Sprintf(" | Elapsed: %s", FormatDuration(info.ElapsedTime)))
	if info.EstimatedTimeLeft > 0 {
		sb.WriteString(fmt.Sprintf(" | ETA: %s", FormatDuration(info.EstimatedTimeLeft)))
	}

	if info.RunningTasks > 0 && len(info.StageTasks) > 0 {
		sb.WriteString(fmt.Sprintf("\n   Running: %s", strings.Join(info.StageTasks, ", ")))
	}
	if info.FailedTasks > 0 {
		sb.WriteString(fmt.Sprintf("\n   Failed: %d", info.FailedTasks))
		if len(info.FailedTaskNames) > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(info.FailedTaskNames, ", ")))
		}
	}
	if info.PendingTasks > 0 {
		sb.WriteString(fmt.Sprintf("\n   Pending: %d", info.PendingTasks))
	}

	return sb.String()
}

// ReportStageStart reports the submission of a stage
func (r *Reporter) ReportStageStart(stage, total int, tasks []string) string {
	return fmt.Sprintf("Starting stage %d/%d: %s", stage+1, total, strings.Join(tasks, ", "))
}

// ReportStageComplete reports a stage reaching its barrier
func (r *Reporter) ReportStageComplete(stage, total int, duration time.Duration, success bool) string {
	status := "COMPLETED"
	if !success {
		status = "FAILED"
	}
	return fmt.Sprintf("Stage %d/%d %s in %s", stage+1, total, status, FormatDuration(duration))
}

// ReportTaskComplete reports task completion
func (r *Reporter) ReportTaskComplete(name string, duration time.Duration, success bool) string {
	status := "COMPLETED"
	if !success {
		status = "FAILED"
	}
	return fmt.Sprintf("  %s %s (took %s)", status, name, FormatDuration(duration))
}

// ReportError formats an error for display
func (r *Reporter) ReportError(stage int, task string, err error) string {
	return fmt.Sprintf("ERROR in stage %d during %s: %v", stage+1, task, err)
}

// CalculateETA estimates time remaining based on current progress
func CalculateETA(completed, total int, elapsed time.Duration) time.Duration {
	if completed <= 0 || total <= 0 || completed >= total {
		return 0
	}

	averageTimePerUnit := elapsed / time.Duration(completed)
	remaining := total - completed
	return averageTimePerUnit * time.Duration(remaining)
}

// FormatDuration formats a duration in a user-friendly way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	r := NewReporter()

	out := r.Report(ProgressInfo{
		Flow:              "account",
		CurrentStage:      1,
		TotalStages:       3,
		TotalTasks:        4,
		CompletedTasks:    1,
		RunningTasks:      2,
		PendingTasks:      1,
		ElapsedTime:       2 * time.Second,
		EstimatedTimeLeft: 4 * time.Second,
		StageTasks:        []string{"check_account_balance", "update_user_preferences"},
	})

	assert.Contains(t, out, "Progress: 1/4 tasks completed (25.0%)")
	assert.Contains(t, out, "Stage: 2/3")
	assert.Contains(t, out, "Elapsed: 2.0s")
	assert.Contains(t, out, "ETA: 4.0s")
	assert.Contains(t, out, "Running: check_account_balance, update_user_preferences")
	assert.Contains(t, out, "Pending: 1")
	assert.NotContains(t, out, "Failed")
}

func TestReportFailures(t *testing.T) {
	r := NewReporter()

	out := r.Report(ProgressInfo{
		TotalStages:     1,
		TotalTasks:      3,
		CompletedTasks:  2,
		FailedTasks:     1,
		FailedTaskNames: []string{"greet_user"},
	})

	assert.Contains(t, out, "Failed: 1 (greet_user)")
	assert.NotContains(t, out, "ETA")
}

func TestReportZeroTasks(t *testing.T) {
	out := NewReporter().Report(ProgressInfo{})
	assert.Contains(t, out, "Progress: 0/0 tasks completed (0.0%)")
}

func TestShouldReport(t *testing.T) {
	r := NewReporter()
	assert.False(t, r.ShouldReport())

	r.reportInterval = 0
	assert.True(t, r.ShouldReport())
}

func TestStageMessages(t *testing.T) {
	r := NewReporter()

	assert.Equal(t, "Starting stage 1/2: a, b", r.ReportStageStart(0, 2, []string{"a", "b"}))
	assert.Equal(t, "Stage 2/2 COMPLETED in 1.5s", r.ReportStageComplete(1, 2, 1500*time.Millisecond, true))
	assert.Equal(t, "Stage 1/2 FAILED in 20ms", r.ReportStageComplete(0, 2, 20*time.Millisecond, false))
	assert.Equal(t, "  FAILED a (took 5ms)", r.ReportTaskComplete("a", 5*time.Millisecond, false))
	assert.Equal(t, "ERROR in stage 1 during a: boom", r.ReportError(0, "a", errors.New("boom")))
}

func TestCalculateETA(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		elapsed   time.Duration
		want      time.Duration
	}{
		{"nothing done", 0, 3, time.Second, 0},
		{"all done", 3, 3, time.Second, 0},
		{"one of three", 1, 3, 2 * time.Second, 4 * time.Second},
		{"no total", 1, 0, time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateETA(tt.completed, tt.total, tt.elapsed))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{7 * time.Second, "7.0s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

package flow

import (
	"fmt"
	"time"
)

// Config controls how an Engine schedules a stage
type Config struct {
	// MaxParallelTasks bounds concurrently running tasks within a stage. 0 means unbounded.
	MaxParallelTasks int
	// DefaultTaskTimeout applies to tasks declared without their own Timeout. 0 disables it.
	DefaultTaskTimeout time.Duration
	// CancelOnFailure cancels the remaining tasks of a stage as soon as one fails.
	// Otherwise siblings run to completion and their results are discarded.
	CancelOnFailure bool
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		MaxParallelTasks:   0,
		DefaultTaskTimeout: 0,
		CancelOnFailure:    false,
	}
}

// Validate rejects negative limits
func (c *Config) Validate() error {
	if c.MaxParallelTasks < 0 {
		return fmt.Errorf("max parallel tasks cannot be negative: %d", c.MaxParallelTasks)
	}
	if c.DefaultTaskTimeout < 0 {
		return fmt.Errorf("default task timeout cannot be negative: %v", c.DefaultTaskTimeout)
	}
	return nil
}

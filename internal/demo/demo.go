// Package demo declares the sample flows shipped with the CLI: a pure
// fan-out notification flow and a mixed account flow.
package demo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/maxkimambo/taskflow/internal/flow"
)

// Config scales the simulated latency of every demo task
type Config struct {
	// Unit is the duration of one simulated time unit
	Unit time.Duration
}

// DefaultConfig returns the configuration matching real service latencies
func DefaultConfig() *Config {
	return &Config{Unit: time.Second}
}

func (c *Config) units(n int) time.Duration {
	unit := time.Second
	if c != nil && c.Unit > 0 {
		unit = c.Unit
	}
	return time.Duration(n) * unit
}

// UserInfo is the record produced by fetch_user_info
type UserInfo struct {
	UserID int
	Name   string
}

// wait simulates a call that takes d, returning early if ctx ends
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entry describes a demo flow and how to parse its inputs
type Entry struct {
	Name        string
	Description string
	Build       func(cfg *Config) (*flow.Definition, error)
	// ParseInputs converts raw command line values into flow inputs
	ParseInputs func(raw map[string]string) (map[string]any, error)
}

var registry = map[string]Entry{
	NotifyFlowName: {
		Name:        NotifyFlowName,
		Description: "Greet a user, report status and balance in parallel",
		Build:       NotifyFlow,
		ParseInputs: func(raw map[string]string) (map[string]any, error) {
			name := raw["name"]
			if name == "" {
				return nil, fmt.Errorf("name cannot be empty")
			}
			return map[string]any{"name": name}, nil
		},
	},
	AccountFlowName: {
		Name:        AccountFlowName,
		Description: "Fetch a user, then check balance and update preferences, then notify",
		Build:       AccountFlow,
		ParseInputs: func(raw map[string]string) (map[string]any, error) {
			id, err := strconv.Atoi(raw["user_id"])
			if err != nil {
				return nil, fmt.Errorf("invalid user id %q: %w", raw["user_id"], err)
			}
			return map[string]any{"user_id": id}, nil
		},
	},
}

// Lookup returns the demo flow registered under name
func Lookup(name string) (Entry, error) {
	entry, ok := registry[name]
	if !ok {
		return Entry{}, fmt.Errorf("unknown flow %q, available: %v", name, Names())
	}
	return entry, nil
}

// Names returns the registered demo flow names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/maxkimambo/taskflow/internal/flow"
	"github.com/maxkimambo/taskflow/internal/task"
)

// NotifyFlowName is the registry name of NotifyFlow
const NotifyFlowName = "notify"

// NotifyFlow builds a single-stage flow: three independent messages for the
// same user, concatenated in declaration order.
func NotifyFlow(cfg *Config) (*flow.Definition, error) {
	greet := cfg.units(5)
	status := cfg.units(6)
	balance := cfg.units(7)

	return flow.New(NotifyFlowName).
		Param("name").
		Task("greet_user", message(greet, "Hello, %s!\n"),
			flow.BindSame("name"), flow.Estimate(greet)).
		Task("provide_status_update", message(status, "%s, your current status is: Active\n"),
			flow.BindSame("name"), flow.Estimate(status)).
		Task("fetch_account_balance", message(balance, "%s, your account balance is: $1,234.56\n"),
			flow.BindSame("name"), flow.Estimate(balance)).
		Collect(flow.Concat("greet_user", "provide_status_update", "fetch_account_balance")).
		Build()
}

// message formats a message for the bound user name after latency
func message(latency time.Duration, format string) task.Task {
	return task.Unary(func(ctx context.Context, name string) (string, error) {
		if err := wait(ctx, latency); err != nil {
			return "", err
		}
		return fmt.Sprintf(format, name), nil
	})
}

package demo

import (
	"context"
	"fmt"

	"github.com/maxkimambo/taskflow/internal/flow"
	"github.com/maxkimambo/taskflow/internal/task"
)

// AccountFlowName is the registry name of AccountFlow
const AccountFlowName = "account"

// AccountFlow builds a three-stage flow:
//
//	fetch_user_info -> {check_account_balance, update_user_preferences} -> send_notification
//
// The result is the notification line followed by the preferences line.
func AccountFlow(cfg *Config) (*flow.Definition, error) {
	fetch := cfg.units(2)
	balance := cfg.units(3)
	prefs := cfg.units(2)
	notify := cfg.units(1)

	return flow.New(AccountFlowName).
		Param("user_id").
		Task("fetch_user_info", task.Unary(func(ctx context.Context, userID int) (UserInfo, error) {
			if err := wait(ctx, fetch); err != nil {
				return UserInfo{}, err
			}
			return UserInfo{UserID: userID, Name: "John Doe"}, nil
		}), flow.BindSame("user_id"), flow.Output("user_info"), flow.Estimate(fetch)).
		Task("check_account_balance", task.Unary(func(ctx context.Context, user UserInfo) (string, error) {
			if err := wait(ctx, balance); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s, your account balance is: $1,234.56", user.Name), nil
		}), flow.BindSame("user_info"), flow.Output("balance_info"), flow.Estimate(balance)).
		Task("update_user_preferences", task.Unary(func(ctx context.Context, user UserInfo) (string, error) {
			if err := wait(ctx, prefs); err != nil {
				return "", err
			}
			return fmt.Sprintf("Preferences updated for %s", user.Name), nil
		}), flow.BindSame("user_info"), flow.Output("preferences"), flow.Estimate(prefs)).
		Task("send_notification", task.Unary(func(ctx context.Context, balanceInfo string) (string, error) {
			if err := wait(ctx, notify); err != nil {
				return "", err
			}
			return fmt.Sprintf("Notification sent: %s", balanceInfo), nil
		}), flow.BindSame("balance_info"), flow.Output("notification"), flow.Estimate(notify)).
		Collect(flow.Join("\n", "notification", "preferences")).
		Build()
}

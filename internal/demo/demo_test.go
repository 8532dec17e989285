package demo

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxkimambo/taskflow/internal/flow"
)

const testUnit = 20 * time.Millisecond

func testEngine() *flow.Engine {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return flow.NewEngine(flow.WithLogger(logrus.NewEntry(l)))
}

func TestNotifyFlow(t *testing.T) {
	def, err := NotifyFlow(&Config{Unit: testUnit})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"greet_user", "provide_status_update", "fetch_account_balance"}}, def.Stages())

	start := time.Now()
	res, err := testEngine().Run(context.Background(), def, map[string]any{"name": "John"})
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t,
		"Hello, John!\nJohn, your current status is: Active\nJohn, your account balance is: $1,234.56\n",
		res.Value)
	assert.GreaterOrEqual(t, elapsed, 7*testUnit)
	assert.Less(t, elapsed, 12*testUnit, "the three tasks run in parallel, not 18 units")
}

func TestAccountFlow(t *testing.T) {
	def, err := AccountFlow(&Config{Unit: testUnit})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"fetch_user_info"},
		{"check_account_balance", "update_user_preferences"},
		{"send_notification"},
	}, def.Stages())

	start := time.Now()
	res, err := testEngine().Run(context.Background(), def, map[string]any{"user_id": 101})
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Equal(t,
		"Notification sent: John Doe, your account balance is: $1,234.56\nPreferences updated for John Doe",
		res.Value)
	assert.GreaterOrEqual(t, elapsed, 6*testUnit)
	assert.Less(t, elapsed, 8*testUnit, "stage 2 branches overlap")

	user, ok := res.Slots.Get("user_info")
	require.True(t, ok)
	assert.Equal(t, UserInfo{UserID: 101, Name: "John Doe"}, user)

	balance, err := res.Slots.String("balance_info")
	require.NoError(t, err)
	notification, err := res.Slots.String("notification")
	require.NoError(t, err)
	assert.Equal(t, "Notification sent: "+balance, notification)
}

func TestAccountFlowPlan(t *testing.T) {
	def, err := AccountFlow(DefaultConfig())
	require.NoError(t, err)

	plan := def.Plan()
	assert.Equal(t, 6*time.Second, plan.Total)
	assert.Equal(t, 8*time.Second, plan.Sequential)
}

func TestNotifyFlowRejectsWrongInputType(t *testing.T) {
	def, err := NotifyFlow(&Config{Unit: time.Millisecond})
	require.NoError(t, err)

	_, err = testEngine().Run(context.Background(), def, map[string]any{"name": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want string")
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"account", "notify"}, Names())

	entry, err := Lookup("notify")
	require.NoError(t, err)
	inputs, err := entry.ParseInputs(map[string]string{"name": "John"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "John"}, inputs)
	_, err = entry.ParseInputs(map[string]string{})
	assert.Error(t, err)

	entry, err = Lookup("account")
	require.NoError(t, err)
	inputs, err = entry.ParseInputs(map[string]string{"user_id": "101"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_id": 101}, inputs)
	_, err = entry.ParseInputs(map[string]string{"user_id": "abc"})
	assert.Error(t, err)

	_, err = Lookup("missing")
	assert.Error(t, err)
}

func TestConfigUnits(t *testing.T) {
	var nilConfig *Config
	assert.Equal(t, 2*time.Second, nilConfig.units(2))
	assert.Equal(t, 3*time.Millisecond, (&Config{Unit: time.Millisecond}).units(3))
	assert.Equal(t, time.Second, DefaultConfig().Unit)
}

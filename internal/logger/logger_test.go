package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerInitialization(t *testing.T) {
	assert.NotNil(t, User, "User logger should not be nil after init")
	assert.NotNil(t, Op, "Op logger should not be nil after init")

	require.NotNil(t, L())
	assert.Same(t, L(), L(), "L should return the same instance")
}

func TestLoggerSetup(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		jsonLogs bool
		quiet    bool
		level    logrus.Level
	}{
		{"Default", false, false, false, logrus.InfoLevel},
		{"Verbose", true, false, false, logrus.DebugLevel},
		{"Quiet", false, false, true, logrus.ErrorLevel},
		{"JSON", false, true, false, logrus.InfoLevel},
		{"Verbose JSON", true, true, false, logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_MODE", "")
			t.Setenv("LOG_FORMAT", "")

			Setup(tt.verbose, tt.jsonLogs, tt.quiet)

			assert.NotNil(t, User)
			assert.NotNil(t, Op)
			assert.Equal(t, tt.level, L().Level())
		})
	}
}

func TestLoggerSetup_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_MODE", "quiet")
	Setup(true, false, false)
	assert.Equal(t, logrus.ErrorLevel, L().Level())

	t.Setenv("LOG_MODE", "debug")
	Setup(false, false, true)
	assert.Equal(t, logrus.DebugLevel, L().Level())
}

func TestUserLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	testLogger := logrus.New()
	testLogger.SetOutput(&buf)
	testLogger.SetLevel(logrus.InfoLevel)

	userLogger := &UserLogger{logger: testLogger}

	userLogger.Info("test message")
	assert.Contains(t, buf.String(), "test message")

	buf.Reset()
	userLogger.Warnf("export failed: %s", "disk full")
	assert.Contains(t, buf.String(), "export failed: disk full")

	buf.Reset()
	userLogger.Stagef("stage %d of %d", 1, 3)
	assert.Contains(t, buf.String(), "stage 1 of 3")
}

func TestOpLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer

	testLogger := logrus.New()
	testLogger.SetOutput(&buf)
	testLogger.SetLevel(logrus.InfoLevel)
	testLogger.SetFormatter(&CLIFormatter{DisableTimestamp: true, DisableColors: true})

	opLogger := &OpLogger{logger: testLogger}
	opLogger.WithFields(map[string]interface{}{
		"task":  "greet_user",
		"stage": 0,
	}).Info("task completed")

	assert.Equal(t, "INFO: task completed stage=0 task=greet_user\n", buf.String())
}

func TestCLIFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Message: "hello",
		Level:   logrus.WarnLevel,
		Time:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Data:    logrus.Fields{"log_type": "op", "b": 2, "a": 1},
	}

	out, err := (&CLIFormatter{DisableTimestamp: true, DisableLevel: true}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	out, err = (&CLIFormatter{DisableColors: true}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "03:04:05.000 WARNING: hello a=1 b=2\n", string(out))
}

func TestOutputRouterHook(t *testing.T) {
	var userBuf, opBuf bytes.Buffer
	hook := NewOutputRouterHook()
	hook.UserWriter = &userBuf
	hook.OpWriter = &opBuf
	hook.OpFormatter = &CLIFormatter{DisableTimestamp: true, DisableColors: true}

	testLogger := logrus.New()
	testLogger.SetOutput(&bytes.Buffer{})
	testLogger.AddHook(hook)

	(&UserLogger{logger: testLogger}).Startingf("Running flow %s", "notify")
	(&OpLogger{logger: testLogger}).WithFields(nil).Info("binding slots")

	assert.Equal(t, "🚀 Running flow notify\n", userBuf.String())
	assert.Equal(t, "INFO: binding slots\n", opBuf.String())
}

func TestLogTypeRouting(t *testing.T) {
	captureHook := &testHook{}

	ul := L()
	ul.AddHook(captureHook)

	User.Info("user message")
	require.NotEmpty(t, captureHook.entries)
	assert.Equal(t, string(UserLog), captureHook.last().Data["log_type"])

	Op.WithFields(map[string]interface{}{"task": "greet_user"}).Info("op message")
	assert.Equal(t, string(OpLog), captureHook.last().Data["log_type"])

	ul.WithFieldsMap(map[string]interface{}{"flow": "notify"}).Info("fields")
	assert.Equal(t, string(OpLog), captureHook.last().Data["log_type"])
	assert.Equal(t, "notify", captureHook.last().Data["flow"])
}

// testHook is a simple hook for capturing log entries in tests
type testHook struct {
	entries []*logrus.Entry
}

func (h *testHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *testHook) Fire(entry *logrus.Entry) error {
	h.entries = append(h.entries, entry)
	return nil
}

func (h *testHook) last() *logrus.Entry {
	return h.entries[len(h.entries)-1]
}

package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogType represents the type of log message
type LogType string

const (
	UserLog LogType = "user"
	OpLog   LogType = "op"
)

// UnifiedLogger wraps the process-wide logrus logger
type UnifiedLogger struct {
	mu     sync.RWMutex
	logger *logrus.Logger
}

func newUnifiedLogger() *UnifiedLogger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&CLIFormatter{
		DisableTimestamp: true,
		DisableLevel:     true,
	})
	return &UnifiedLogger{logger: l}
}

// WithFieldsMap creates an operational entry with fields from a map
func (l *UnifiedLogger) WithFieldsMap(fields map[string]interface{}) *logrus.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry := l.logger.WithFields(fields)
	if _, ok := fields["log_type"]; !ok {
		entry = entry.WithField("log_type", string(OpLog))
	}
	return entry
}

// AddHook attaches a hook to every entry logged through the process-wide logger
func (l *UnifiedLogger) AddHook(hook logrus.Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.AddHook(hook)
}

// Level returns the current log level
func (l *UnifiedLogger) Level() logrus.Level {
	return l.logger.GetLevel()
}

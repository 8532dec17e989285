package logger_test

import (
	"github.com/maxkimambo/taskflow/internal/logger"
)

func Example_unifiedLogger() {
	logger.User.Startingf("Running flow %s: %d tasks in %d stages", "notify", 3, 1)
	logger.User.Stagef("Starting stage %d/%d: %s", 1, 1, "greet_user, provide_status_update")
	logger.User.Info("  COMPLETED greet_user (took 5.0s)")

	logger.L().WithFieldsMap(map[string]interface{}{
		"flow":   "notify",
		"run_id": "3b1f",
	}).Debug("Binding stage outputs")

	logger.Op.WithFields(map[string]interface{}{
		"task": "greet_user",
	}).Info("Task completed")
}

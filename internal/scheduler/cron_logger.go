package scheduler

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronLogger routes cron diagnostics to zap. Routine cron messages go to debug.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{logger: logger.Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

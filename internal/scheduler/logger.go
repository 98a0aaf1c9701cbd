package scheduler

import "github.com/charmbracelet/log"

// gocronLogger forwards gocron's internal logging to charmbracelet/log.
type gocronLogger struct {
	log *log.Logger
}

func newGocronLogger(l *log.Logger) *gocronLogger {
	return &gocronLogger{log: l.WithPrefix("gocron")}
}

func (l *gocronLogger) Debug(msg string, args ...any) { l.log.Debug(msg, args...) }
func (l *gocronLogger) Error(msg string, args ...any) { l.log.Error(msg, args...) }
func (l *gocronLogger) Info(msg string, args ...any)  { l.log.Debug(msg, args...) }
func (l *gocronLogger) Warn(msg string, args ...any)  { l.log.Warn(msg, args...) }

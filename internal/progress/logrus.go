package progress

import (
	log "github.com/sirupsen/logrus"
)

// LogReporter reports progress through logrus instead of an interactive
// bar, appropriate when stdout isn't a terminal: every Inc is logged at
// Trace level, messages and completion at Info level.
type LogReporter struct {
	label       string
	total, done int64
}

// NewLogReporter returns a Reporter that logs progress under label.
func NewLogReporter(label string) *LogReporter {
	return &LogReporter{label: label}
}

// New implements Reporter.
func (l *LogReporter) New(total int64) {
	l.total, l.done = total, 0
}

// Inc implements Reporter.
func (l *LogReporter) Inc(delta int64) {
	l.done += delta
	log.WithFields(log.Fields{
		"task":  l.label,
		"done":  l.done,
		"total": l.total,
	}).Trace("progress")
}

// SetMessage implements Reporter.
func (l *LogReporter) SetMessage(msg string) {
	log.WithField("task", l.label).Info(msg)
}

// Finish implements Reporter.
func (l *LogReporter) Finish() {
	log.WithField("task", l.label).Info("done")
}

var _ Reporter = (*LogReporter)(nil)

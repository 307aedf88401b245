// Package notify delivers operator notifications raised by the command core.
//
// Three sinks are provided: Log writes to the service log, MQTT publishes a
// JSON notification for UI clients, and Fanout sends to several sinks. All
// satisfy command.Notifier.
package notify

import (
	"encoding/json"
	"time"
)

// Levels carried in a notification.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelAlert   = "alert"
)

// Sink receives notifications. It matches command.Notifier.
type Sink interface {
	NotifySuccess(msg string)
	NotifyError(msg string)
	AlertError(msg string)
}

// Notification is the JSON document published to UI clients.
type Notification struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (n Notification) encode() ([]byte, error) {
	return json.Marshal(n)
}

// Logger is the logging interface used by the sinks.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Log writes notifications to a logger.
type Log struct {
	logger Logger
}

// NewLog creates a sink that writes to logger.
func NewLog(logger Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) NotifySuccess(msg string) { l.logger.Info("notification", "level", LevelSuccess, "message", msg) }
func (l *Log) NotifyError(msg string)   { l.logger.Warn("notification", "level", LevelError, "message", msg) }
func (l *Log) AlertError(msg string)    { l.logger.Error("notification", "level", LevelAlert, "message", msg) }

// Fanout forwards every notification to each sink in order.
type Fanout []Sink

func (f Fanout) NotifySuccess(msg string) {
	for _, s := range f {
		s.NotifySuccess(msg)
	}
}

func (f Fanout) NotifyError(msg string) {
	for _, s := range f {
		s.NotifyError(msg)
	}
}

func (f Fanout) AlertError(msg string) {
	for _, s := range f {
		s.AlertError(msg)
	}
}

package telemetry

import "github.com/sirupsen/logrus"

// Outcome summarizes a finished operation.
type Outcome struct {
	Success bool
	Error   string
	Metrics map[string]interface{}
}

// Sink receives operation lifecycle events. It is purely observational:
// callers must behave identically whether the sink is a Noop or absent.
// Implementations must be safe for concurrent use.
type Sink interface {
	StartOperation(id string, metadata map[string]interface{})
	EndOperation(id string, outcome Outcome)
}

// Noop discards all events.
type Noop struct{}

func (Noop) StartOperation(string, map[string]interface{}) {}
func (Noop) EndOperation(string, Outcome)                  {}

// LogSink reports operations through a logrus logger.
type LogSink struct {
	log *logrus.Logger
}

func NewLogSink(log *logrus.Logger) *LogSink {
	if log == nil {
		log = logrus.New()
	}
	return &LogSink{log: log}
}

func (s *LogSink) StartOperation(id string, metadata map[string]interface{}) {
	s.log.WithFields(logrus.Fields{
		"operation": id,
		"metadata":  metadata,
	}).Debug("operation started")
}

func (s *LogSink) EndOperation(id string, outcome Outcome) {
	entry := s.log.WithFields(logrus.Fields{
		"operation": id,
		"success":   outcome.Success,
		"metrics":   outcome.Metrics,
	})
	if !outcome.Success {
		entry.WithField("error", outcome.Error).Warn("operation failed")
		return
	}
	entry.Debug("operation finished")
}

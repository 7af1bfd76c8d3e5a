// Package progress reports phase and percentage of long running batch work.
package progress

import (
	"log/slog"
	"sync"
)

// Sink receives progress updates from batch jobs. Implementations must be
// safe for concurrent use.
type Sink interface {
	Report(phase string, percent int, message string)
}

type NopSink struct{}

func (NopSink) Report(_ string, _ int, _ string) {}

// LogSink writes progress updates to the service log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Report(phase string, percent int, message string) {
	s.logger.Info("progress",
		slog.String("phase", phase),
		slog.Int("percent", percent),
		slog.String("message", message))
}

// MemorySink records updates for inspection, used by the status endpoint and
// in tests.
type MemorySink struct {
	updates []Update
	mu      sync.Mutex
}

type Update struct {
	Phase   string
	Percent int
	Message string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{updates: []Update{}}
}

func (s *MemorySink) Report(phase string, percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, Update{Phase: phase, Percent: percent, Message: message})
}

func (s *MemorySink) Updates() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	updates := make([]Update, len(s.updates))
	copy(updates, s.updates)

	return updates
}

// Latest returns the most recent update, or a zero Update when nothing has
// been reported yet.
func (s *MemorySink) Latest() Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.updates) == 0 {
		return Update{}
	}

	return s.updates[len(s.updates)-1]
}

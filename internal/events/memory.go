package events

import (
	"context"
	"log/slog"
	"sync"
)

// Recorded is one event captured by the in-memory sink.
type Recorded struct {
	Name    string
	Payload []byte
}

// MemorySink records published events for assertion in tests and for dev
// mode when no brokers are configured.
type MemorySink struct {
	mu     sync.Mutex
	events []Recorded
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, name string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.events = append(s.events, Recorded{Name: name, Payload: cp})
	return nil
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded{}, s.events...)
}

// LogSink writes events to the logger instead of a broker. Used when
// KAFKA_BROKERS is unset so dev deployments still surface notifications.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, name string, payload []byte) error {
	s.logger.InfoContext(ctx, "event published", "event", name, "payload", string(payload))
	return nil
}

// Package toast buffers transient user-facing notifications. Failures surface
// here as short messages; they never crash a view.
package toast

import "sync"

// Level classifies a message for presentation.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "danger"
)

// Message is one pending notification.
type Message struct {
	Text  string `json:"text"`
	Level Level  `json:"level"`
}

// Service collects messages until the UI layer drains them.
// It satisfies gallery.Notifier.
type Service struct {
	mu      sync.Mutex
	pending []Message
}

// Success queues a success message.
func (s *Service) Success(msg string) { s.push(msg, LevelSuccess) }

// Info queues an informational message.
func (s *Service) Info(msg string) { s.push(msg, LevelInfo) }

// Warning queues a warning message.
func (s *Service) Warning(msg string) { s.push(msg, LevelWarning) }

// Error queues an error message.
func (s *Service) Error(msg string) { s.push(msg, LevelError) }

// Drain returns all pending messages and clears the buffer.
func (s *Service) Drain() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

func (s *Service) push(text string, level Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, Message{Text: text, Level: level})
}

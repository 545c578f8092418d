// Package logsink carries the orchestrator's per-account action log to its
// consumers: process logs, the live web stream, and an optional webhook.
// Emit never blocks on a slow consumer.
package logsink

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fleetbot/internal/domain"
)

// Entry is one log line of an orchestrated operation.
type Entry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Action    string          `json:"action"`
	Severity  domain.Severity `json:"severity"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] [%s] [%s] %s", e.AccountID, e.Action, e.Severity, e.Message)
}

func newEntry(accountID, action string, severity domain.Severity, message string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Action:    action,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink receives orchestrator log events.
type Sink interface {
	Emit(accountID, action string, severity domain.Severity, message string)
}

// Multi fans out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(accountID, action string, severity domain.Severity, message string) {
	for _, s := range m {
		s.Emit(accountID, action, severity, message)
	}
}

// Logger writes entries to a stdlib logger.
type Logger struct {
	l *log.Logger
}

func NewLogger(l *log.Logger) *Logger {
	if l == nil {
		l = log.Default()
	}
	return &Logger{l: l}
}

func (s *Logger) Emit(accountID, action string, severity domain.Severity, message string) {
	s.l.Printf("[%s] [%s] [%s] %s", accountID, action, severity, message)
}

// Discard drops everything. Useful default for tests.
type Discard struct{}

func (Discard) Emit(string, string, domain.Severity, string) {}

package repository

import (
	"context"
	"time"
)

// Call-audit statuses.
const (
	CallStatusBridged = "bridged"
	CallStatusFailed  = "failed"
)

// CallLogEntry records one initiated call and its outcome. Audit only; the
// orchestration flow never reads it back.
type CallLogEntry struct {
	ID             string
	ClientName     string
	PhoneNumber    string
	UserType       string
	VoiceSessionID string
	CallSID        string
	Status         string
	ErrorMessage   *string
	CreatedAt      time.Time
}

// CallLogRepository persists call-audit entries.
type CallLogRepository interface {
	Insert(ctx context.Context, entry *CallLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]CallLogEntry, error)
}

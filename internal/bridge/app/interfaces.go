package app

import (
	"context"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

// VoiceProvider creates and tears down hosted voice-agent sessions.
type VoiceProvider interface {
	CreateSession(ctx context.Context, cfg *domain.SessionConfig) (*domain.VoiceSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// TelephonyProvider places bridged calls and sends SMS.
type TelephonyProvider interface {
	PlaceCall(ctx context.Context, to, joinURL string) (callSID string, err error)
	SendMessage(ctx context.Context, to, body string) (messageSID string, err error)
}

// CrmProvider looks up and tags CRM contacts.
type CrmProvider interface {
	FindOrCreateContact(ctx context.Context, phone string) (*domain.CrmContact, error)
	AddTag(ctx context.Context, contactID, tag string) error
}

package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/voicebridge/bridge/internal/bridge/domain"
	"github.com/voicebridge/bridge/internal/bridge/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockVoiceProvider struct {
	mock.Mock
}

func (m *mockVoiceProvider) CreateSession(ctx context.Context, cfg *domain.SessionConfig) (*domain.VoiceSession, error) {
	args := m.Called(ctx, cfg)
	if session := args.Get(0); session != nil {
		return session.(*domain.VoiceSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVoiceProvider) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type mockTelephonyProvider struct {
	mock.Mock
}

func (m *mockTelephonyProvider) PlaceCall(ctx context.Context, to, joinURL string) (string, error) {
	args := m.Called(ctx, to, joinURL)
	return args.String(0), args.Error(1)
}

func (m *mockTelephonyProvider) SendMessage(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

type mockCrmProvider struct {
	mock.Mock
}

func (m *mockCrmProvider) FindOrCreateContact(ctx context.Context, phone string) (*domain.CrmContact, error) {
	args := m.Called(ctx, phone)
	if contact := args.Get(0); contact != nil {
		return contact.(*domain.CrmContact), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCrmProvider) AddTag(ctx context.Context, contactID, tag string) error {
	args := m.Called(ctx, contactID, tag)
	return args.Error(0)
}

type mockCallLogRepository struct {
	mock.Mock
}

func (m *mockCallLogRepository) Insert(ctx context.Context, entry *repository.CallLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockCallLogRepository) ListRecent(ctx context.Context, limit int) ([]repository.CallLogEntry, error) {
	args := m.Called(ctx, limit)
	if entries := args.Get(0); entries != nil {
		return entries.([]repository.CallLogEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

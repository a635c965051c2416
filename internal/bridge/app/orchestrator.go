package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/bridge/internal/bridge/domain"
	"github.com/voicebridge/bridge/internal/bridge/repository"
)

// Orchestrator runs the call-initiation sequence: validate, build the
// session config, create the voice session, then place the bridged telephony
// call. Linear flow; any failure propagates and aborts.
type Orchestrator struct {
	voice     VoiceProvider
	telephony TelephonyProvider
	builder   *SessionBuilder
	callLog   repository.CallLogRepository // nil disables the audit log
	logger    *slog.Logger
}

func NewOrchestrator(voice VoiceProvider, telephony TelephonyProvider, builder *SessionBuilder, callLog repository.CallLogRepository, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		voice:     voice,
		telephony: telephony,
		builder:   builder,
		callLog:   callLog,
		logger:    logger.With("service", "orchestrator"),
	}
}

// InitiateCall validates the request and bridges an outbound call to a fresh
// voice session, returning the telephony provider's call SID.
func (o *Orchestrator) InitiateCall(ctx context.Context, req domain.CallRequest) (string, error) {
	if req.ClientName == "" || req.PhoneNumber == "" {
		return "", fmt.Errorf("%w: clientName and phoneNumber", domain.ErrMissingParameters)
	}
	if req.UserType == "" {
		req.UserType = domain.DefaultUserType
	}

	normalized, err := domain.NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		return "", err
	}
	req.PhoneNumber = normalized

	cfg, err := o.builder.Build(req)
	if err != nil {
		return "", err
	}

	session, err := o.voice.CreateSession(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("voice session creation failed: %w", err)
	}
	o.logger.InfoContext(ctx, "Voice session created", "session_id", session.ID, "client_name", req.ClientName)

	callSID, err := o.telephony.PlaceCall(ctx, req.PhoneNumber, session.JoinURL)
	if err != nil {
		// Best effort: tear down the session that will never be joined.
		if delErr := o.voice.DeleteSession(ctx, session.ID); delErr != nil {
			o.logger.WarnContext(ctx, "Failed to clean up orphaned voice session", "session_id", session.ID, "error", delErr)
		}
		o.recordCall(ctx, req, session.ID, "", repository.CallStatusFailed, err)
		return "", fmt.Errorf("telephony call failed: %w", err)
	}

	o.logger.InfoContext(ctx, "Call bridged to voice session", "call_sid", callSID, "session_id", session.ID)
	o.recordCall(ctx, req, session.ID, callSID, repository.CallStatusBridged, nil)
	return callSID, nil
}

// recordCall writes the audit entry when a repository is configured. Audit
// failures are logged, never surfaced to the caller.
func (o *Orchestrator) recordCall(ctx context.Context, req domain.CallRequest, sessionID, callSID, status string, callErr error) {
	if o.callLog == nil {
		return
	}

	entry := &repository.CallLogEntry{
		ID:             uuid.NewString(),
		ClientName:     req.ClientName,
		PhoneNumber:    req.PhoneNumber,
		UserType:       req.UserType,
		VoiceSessionID: sessionID,
		CallSID:        callSID,
		Status:         status,
		CreatedAt:      time.Now(),
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.ErrorMessage = &msg
	}

	if err := o.callLog.Insert(ctx, entry); err != nil {
		o.logger.WarnContext(ctx, "Failed to write call log entry", "error", err)
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

// MaxSMSLength is the provider's hard cap on message bodies.
const MaxSMSLength = 1600

// SmsService validates and dispatches outbound SMS. One attempt per send;
// the caller decides whether to retry.
type SmsService struct {
	telephony TelephonyProvider
	logger    *slog.Logger
}

func NewSmsService(telephony TelephonyProvider, logger *slog.Logger) *SmsService {
	return &SmsService{
		telephony: telephony,
		logger:    logger.With("service", "sms"),
	}
}

// Send normalizes the recipient, enforces the length cap, and dispatches the
// message, returning the provider-assigned message SID. The message body is
// never logged.
func (s *SmsService) Send(ctx context.Context, recipient, message string) (string, error) {
	if len(message) > MaxSMSLength {
		return "", domain.ErrMessageTooLong
	}

	to, err := domain.NormalizePhoneNumber(recipient)
	if err != nil {
		return "", fmt.Errorf("invalid recipient: %w", err)
	}

	s.logger.InfoContext(ctx, "Sending SMS", "recipient", to, "length", len(message))

	sid, err := s.telephony.SendMessage(ctx, to, message)
	if err != nil {
		return "", fmt.Errorf("sms send failed: %w", err)
	}
	return sid, nil
}

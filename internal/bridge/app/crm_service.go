package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

// CrmService resolves a contact by phone number and applies tags.
type CrmService struct {
	crm    CrmProvider
	logger *slog.Logger
}

func NewCrmService(crm CrmProvider, logger *slog.Logger) *CrmService {
	return &CrmService{
		crm:    crm,
		logger: logger.With("service", "crm"),
	}
}

// TagContact finds or creates the contact for the given phone number and
// applies the tag. Repeating the same tag is safe; the CRM ignores
// duplicates. Returns the contact ID.
func (s *CrmService) TagContact(ctx context.Context, phoneNumber, tag string) (string, error) {
	phone, err := domain.NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return "", err
	}

	contact, err := s.crm.FindOrCreateContact(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("contact lookup failed: %w", err)
	}

	if err := s.crm.AddTag(ctx, contact.ID, tag); err != nil {
		return "", fmt.Errorf("tagging failed: %w", err)
	}

	s.logger.InfoContext(ctx, "Contact tagged", "contact_id", contact.ID, "tag", tag)
	return contact.ID, nil
}

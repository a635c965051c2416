package twilio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	twiliosdk "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

const providerName = "twilio"

// restAPI is the slice of the Twilio SDK the client uses. *openapi.ApiService
// satisfies it; tests substitute a fake.
type restAPI interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Client places outbound calls and sends SMS through the Twilio REST API.
type Client struct {
	logger *slog.Logger
	api    restAPI
	from   string
}

func NewClient(logger *slog.Logger, accountSID, authToken, fromNumber string) *Client {
	rest := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newClient(logger, rest.Api, fromNumber)
}

func newClient(logger *slog.Logger, api restAPI, fromNumber string) *Client {
	return &Client{
		logger: logger.With("provider", providerName),
		api:    api,
		from:   fromNumber,
	}
}

// PlaceCall dials the normalized number and bridges the call's media stream
// to the voice session's join reference.
func (c *Client) PlaceCall(ctx context.Context, to, joinURL string) (string, error) {
	twiml := streamTwiML(joinURL)

	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetTwiml(twiml)

	call, err := c.api.CreateCall(params)
	if err != nil {
		return "", c.apiError(ctx, "place call", err)
	}
	if call.Sid == nil {
		return "", &domain.ProviderError{Provider: providerName, Detail: "call response missing sid"}
	}

	c.logger.InfoContext(ctx, "Outbound call placed", "call_sid", *call.Sid, "to", to)
	return *call.Sid, nil
}

// SendMessage sends one SMS. A single attempt; the caller decides whether to
// retry.
func (c *Client) SendMessage(ctx context.Context, to, body string) (string, error) {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	msg, err := c.api.CreateMessage(params)
	if err != nil {
		return "", c.apiError(ctx, "send message", err)
	}
	if msg.Sid == nil {
		return "", &domain.ProviderError{Provider: providerName, Detail: "message response missing sid"}
	}

	c.logger.InfoContext(ctx, "SMS sent", "message_sid", *msg.Sid, "to", to, "length", len(body))
	return *msg.Sid, nil
}

func (c *Client) apiError(ctx context.Context, op string, err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		c.logger.WarnContext(ctx, "Twilio request failed", "op", op, "status_code", restErr.Status, "code", restErr.Code, "message", restErr.Message)
		return &domain.ProviderError{Provider: providerName, StatusCode: restErr.Status, Detail: restErr.Message}
	}
	c.logger.WarnContext(ctx, "Twilio request failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

// streamTwiML bridges the call's audio to the voice session.
func streamTwiML(joinURL string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
    <Connect>
        <Stream url=%q />
    </Connect>
</Response>`, joinURL)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

// SmsSender is what the tool handler needs from the SMS service.
type SmsSender interface {
	Send(ctx context.Context, recipient, message string) (string, error)
}

// ContactTagger is what the tool handler needs from the CRM service.
type ContactTagger interface {
	TagContact(ctx context.Context, phoneNumber, tag string) (string, error)
}

// ToolHandler serves the endpoints the voice agent calls mid-conversation,
// plus the standalone /send-sms endpoint.
type ToolHandler struct {
	sms    SmsSender
	crm    ContactTagger // nil disables /api/tag-user
	logger *slog.Logger
}

func NewToolHandler(sms SmsSender, crm ContactTagger, logger *slog.Logger) *ToolHandler {
	return &ToolHandler{
		sms:    sms,
		crm:    crm,
		logger: logger,
	}
}

// RegisterToolRoutes registers the agent-facing callback endpoints. These are
// the routes the webhook auth middleware should wrap.
func (h *ToolHandler) RegisterToolRoutes(r chi.Router) {
	r.Post("/api/sms-webhook", h.SmsWebhook)
	if h.crm != nil {
		r.Post("/api/tag-user", h.TagUser)
	}
}

// RegisterRoutes registers the operator-facing endpoints.
func (h *ToolHandler) RegisterRoutes(r chi.Router) {
	r.Post("/send-sms", h.SendSms)
}

// toolParams is the loosely-typed body the voice agent posts. Agents are
// inconsistent about field names, so both recipient aliases are accepted.
type toolParams struct {
	Recipient   string `json:"recipient"`
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	Tag         string `json:"tag"`
}

// SmsWebhook sends an SMS on behalf of the voice agent. Body fields win over
// query parameters, and for the recipient the body aliases are tried before
// any query fallback.
func (h *ToolHandler) SmsWebhook(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var body toolParams
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	q := r.URL.Query()

	recipient := firstNonEmpty(body.Recipient, body.PhoneNumber, q.Get("phoneNumber"), q.Get("recipient"))
	message := firstNonEmpty(body.Message, q.Get("message"))

	if recipient == "" || message == "" {
		respondJSON(w, http.StatusBadRequest, WebhookErrorResponse{Error: "Missing recipient or message"})
		return
	}

	messageSID, err := h.sms.Send(r.Context(), recipient, message)
	if err != nil {
		if errors.Is(err, domain.ErrMessageTooLong) || errors.Is(err, domain.ErrInvalidPhoneNumber) {
			respondJSON(w, http.StatusBadRequest, WebhookErrorResponse{Error: "SMS send failed: " + err.Error()})
			return
		}
		logger.ErrorContext(r.Context(), "Tool SMS send failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, WebhookErrorResponse{Error: "SMS send failed: " + err.Error()})
		return
	}

	logger.InfoContext(r.Context(), "Tool SMS sent", "message_sid", messageSID)
	respondJSON(w, http.StatusOK, SmsWebhookResponse{
		Success:    true,
		MessageSid: messageSID,
		Message:    "SMS sent successfully",
	})
}

// TagUser applies a CRM tag on behalf of the voice agent.
func (h *ToolHandler) TagUser(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var body toolParams
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	q := r.URL.Query()

	phoneNumber := firstNonEmpty(body.PhoneNumber, body.Recipient, q.Get("phoneNumber"))
	tag := firstNonEmpty(body.Tag, q.Get("tag"))

	if phoneNumber == "" || tag == "" {
		respondJSON(w, http.StatusBadRequest, WebhookErrorResponse{Error: "Missing phoneNumber or tag"})
		return
	}

	contactID, err := h.crm.TagContact(r.Context(), phoneNumber, tag)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPhoneNumber) {
			respondJSON(w, http.StatusBadRequest, WebhookErrorResponse{Error: err.Error()})
			return
		}
		logger.ErrorContext(r.Context(), "Tagging failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, WebhookErrorResponse{Error: "Tagging failed: " + err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, TagUserResponse{Success: true, ContactID: contactID})
}

// SendSms is the operator-facing SMS endpoint. Parameters come from the JSON
// body only.
func (h *ToolHandler) SendSms(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var body toolParams
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if body.PhoneNumber == "" || body.Message == "" {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing required parameters: phoneNumber and message"})
		return
	}

	messageSID, err := h.sms.Send(r.Context(), body.PhoneNumber, body.Message)
	if err != nil {
		if errors.Is(err, domain.ErrMessageTooLong) || errors.Is(err, domain.ErrInvalidPhoneNumber) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Failed to send SMS", Message: err.Error()})
			return
		}
		logger.ErrorContext(r.Context(), "SMS send failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to send SMS", Message: err.Error()})
		return
	}

	logger.InfoContext(r.Context(), "SMS sent", "message_sid", messageSID)
	respondJSON(w, http.StatusOK, SmsWebhookResponse{
		Success:    true,
		MessageSid: messageSID,
		Message:    "SMS sent successfully",
	})
}

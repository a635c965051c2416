package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/voicebridge/bridge/internal/bridge/domain"
	"github.com/voicebridge/bridge/internal/bridge/repository"
)

// CallInitiator is what the handler needs from the orchestrator.
type CallInitiator interface {
	InitiateCall(ctx context.Context, req domain.CallRequest) (string, error)
}

type CallHandler struct {
	initiator CallInitiator
	callLog   repository.CallLogRepository // nil disables /calls/recent
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewCallHandler(initiator CallInitiator, callLog repository.CallLogRepository, logger *slog.Logger) *CallHandler {
	return &CallHandler{
		initiator: initiator,
		callLog:   callLog,
		logger:    logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *CallHandler) RegisterRoutes(r chi.Router) {
	r.Get("/initiate-call", h.InitiateCall)
	r.Post("/initiate-call", h.InitiateCall)
	if h.callLog != nil {
		r.Get("/calls/recent", h.RecentCalls)
	}
}

// InitiateCall accepts parameters from the query string or a JSON body, with
// the query string taking precedence field by field.
func (h *CallHandler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	var body InitiateCallRequest
	if r.Body != nil {
		// A missing or malformed body is fine as long as the query string
		// carries the parameters.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	q := r.URL.Query()
	req := InitiateCallRequest{
		ClientName:  firstNonEmpty(q.Get("clientName"), body.ClientName),
		PhoneNumber: firstNonEmpty(q.Get("phoneNumber"), body.PhoneNumber),
		UserType:    firstNonEmpty(q.Get("userType"), body.UserType),
	}

	if err := h.validate.Struct(req); err != nil {
		logger.WarnContext(r.Context(), "Call initiation rejected: missing parameters")
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing required parameters: clientName and phoneNumber"})
		return
	}

	callSID, err := h.initiator.InitiateCall(r.Context(), domain.CallRequest{
		ClientName:  req.ClientName,
		PhoneNumber: req.PhoneNumber,
		UserType:    req.UserType,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingParameters):
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Missing required parameters: clientName and phoneNumber"})
		case errors.Is(err, domain.ErrInvalidPhoneNumber):
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid phone number format."})
		default:
			logger.ErrorContext(r.Context(), "Call initiation failed", "error", err)
			respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to initiate call", Message: err.Error()})
		}
		return
	}

	logger.InfoContext(r.Context(), "Call initiated", "call_sid", callSID)
	respondJSON(w, http.StatusOK, InitiateCallResponse{
		Success: true,
		Message: "Call initiated successfully",
		CallSid: callSID,
	})
}

// RecentCalls returns the latest call log entries, newest first.
func (h *CallHandler) RecentCalls(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	entries, err := h.callLog.ListRecent(r.Context(), limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list recent calls", "error", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to list recent calls"})
		return
	}

	resp := RecentCallsResponse{Calls: make([]CallLogEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Calls = append(resp.Calls, CallLogEntryResponse{
			ID:             e.ID,
			ClientName:     e.ClientName,
			PhoneNumber:    e.PhoneNumber,
			UserType:       e.UserType,
			VoiceSessionID: e.VoiceSessionID,
			CallSid:        e.CallSID,
			Status:         e.Status,
			ErrorMessage:   e.ErrorMessage,
			CreatedAt:      e.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

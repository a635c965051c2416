package http

import "time"

// InitiateCallRequest is the merged (query + body) input of /initiate-call.
type InitiateCallRequest struct {
	ClientName  string `json:"clientName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	UserType    string `json:"userType"`
}

type InitiateCallResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	CallSid string `json:"callSid"`
}

// ErrorResponse is the {error, message} failure shape used by /initiate-call
// and /send-sms.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WebhookErrorResponse is the {success:false, error} failure shape used by
// the tool callback endpoints.
type WebhookErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type SmsWebhookResponse struct {
	Success    bool   `json:"success"`
	MessageSid string `json:"messageSid"`
	Message    string `json:"message,omitempty"`
}

type TagUserResponse struct {
	Success   bool   `json:"success"`
	ContactID string `json:"contactId"`
}

type CallLogEntryResponse struct {
	ID             string    `json:"id"`
	ClientName     string    `json:"clientName"`
	PhoneNumber    string    `json:"phoneNumber"`
	UserType       string    `json:"userType"`
	VoiceSessionID string    `json:"voiceSessionId,omitempty"`
	CallSid        string    `json:"callSid,omitempty"`
	Status         string    `json:"status"`
	ErrorMessage   *string   `json:"errorMessage,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type RecentCallsResponse struct {
	Calls []CallLogEntryResponse `json:"calls"`
}

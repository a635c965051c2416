package app

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

//go:embed script.tmpl
var scriptFS embed.FS

// Fixed session parameters for the sales agent.
const (
	sessionModel       = "fixie-ai/ultravox"
	sessionVoice       = "Mark"
	sessionTemperature = 0.3
	// Outbound calls: the callee speaks first when they pick up.
	sessionFirstSpeaker = "FIRST_SPEAKER_USER"
)

// callbackTokenTTL bounds how long a tool callback token stays valid. Calls
// are minutes long; a generous margin avoids mid-call expiry.
const callbackTokenTTL = 2 * time.Hour

// CallbackTokenAudience identifies tool-callback tokens issued by the
// session builder and checked by the webhook middleware.
const CallbackTokenAudience = "tool-callback"

// SessionBuilderOptions carries the process-wide configuration the builder
// reads. All fields are set once at startup.
type SessionBuilderOptions struct {
	// BaseURL is the publicly reachable URL embedded in direct-callback
	// tool definitions.
	BaseURL string
	// WebhookSecret, when non-empty, makes the builder attach a signed
	// bearer token to every direct-callback tool.
	WebhookSecret string
	// CrmEnabled controls whether the tagUser tool is declared.
	CrmEnabled bool
	// CrmWebhookURL, when non-empty, declares the pass-through addContact
	// tool pointing at a third-party CRM bridge.
	CrmWebhookURL string
}

// SessionBuilder produces the session configuration sent to the voice
// provider: the rendered sales script plus the tool declarations. Output is
// fully determined by the call request, the options, and the clock.
type SessionBuilder struct {
	opts   SessionBuilderOptions
	tmpl   *template.Template
	now    func() time.Time
	logger *slog.Logger
}

func NewSessionBuilder(opts SessionBuilderOptions, logger *slog.Logger) (*SessionBuilder, error) {
	tmpl, err := template.ParseFS(scriptFS, "script.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse script template: %w", err)
	}
	return &SessionBuilder{
		opts:   opts,
		tmpl:   tmpl,
		now:    time.Now,
		logger: logger.With("service", "session_builder"),
	}, nil
}

type scriptData struct {
	ClientName  string
	PhoneNumber string
	UserType    string
	Timestamp   string
}

// Build renders the script for one call and declares its tools. PhoneNumber
// must already be normalized.
func (b *SessionBuilder) Build(req domain.CallRequest) (*domain.SessionConfig, error) {
	data := scriptData{
		ClientName:  req.ClientName,
		PhoneNumber: req.PhoneNumber,
		UserType:    req.UserType,
		Timestamp:   b.now().Format(time.RFC1123),
	}

	var script strings.Builder
	if err := b.tmpl.Execute(&script, data); err != nil {
		return nil, fmt.Errorf("failed to render script: %w", err)
	}

	headers, err := b.callbackHeaders()
	if err != nil {
		return nil, err
	}

	tools := []domain.ToolDeclaration{
		{
			Name:        "sendSMS",
			Description: "Send a text message to the customer. Use this when the customer asks for details in writing.",
			Parameters: []domain.ToolParameter{
				{Name: "recipient", Type: "string", Description: "Phone number to text", Required: true},
				{Name: "message", Type: "string", Description: "Body of the text message", Required: true},
			},
			CallbackURL: b.opts.BaseURL + "/api/sms-webhook",
			Method:      "POST",
			Headers:     headers,
		},
	}

	if b.opts.CrmEnabled {
		tools = append(tools, domain.ToolDeclaration{
			Name:        "tagUser",
			Description: "Tag the customer's CRM record. Use this when the customer agrees to an upgrade.",
			Parameters: []domain.ToolParameter{
				{Name: "phoneNumber", Type: "string", Description: "Customer phone number", Required: true},
				{Name: "tag", Type: "string", Description: "Tag to apply", Required: true},
			},
			CallbackURL: b.opts.BaseURL + "/api/tag-user",
			Method:      "POST",
			Headers:     headers,
		})
	}

	if b.opts.CrmWebhookURL != "" {
		tools = append(tools, domain.ToolDeclaration{
			Name:        "addContact",
			Description: "Register the customer as a contact so their record stays current.",
			Parameters: []domain.ToolParameter{
				{Name: "phoneNumber", Type: "string", Description: "Customer phone number", Required: true},
				{Name: "name", Type: "string", Description: "Customer name", Required: false},
			},
			PassThroughURL: b.opts.CrmWebhookURL,
			Method:         "POST",
		})
	}

	return &domain.SessionConfig{
		ScriptText:   script.String(),
		Model:        sessionModel,
		Voice:        sessionVoice,
		Temperature:  sessionTemperature,
		FirstSpeaker: sessionFirstSpeaker,
		Tools:        tools,
	}, nil
}

// callbackHeaders returns the auth header attached to direct-callback tools,
// or nil when webhook auth is disabled.
func (b *SessionBuilder) callbackHeaders() (map[string]string, error) {
	if b.opts.WebhookSecret == "" {
		return nil, nil
	}

	now := b.now()
	claims := jwt.MapClaims{
		"aud": CallbackTokenAudience,
		"iat": now.Unix(),
		"exp": now.Add(callbackTokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(b.opts.WebhookSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign callback token: %w", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

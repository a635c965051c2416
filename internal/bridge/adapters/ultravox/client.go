package ultravox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

const providerName = "ultravox"

// Parameter locations understood by the voice provider's tool schema.
const (
	paramLocationBody   = "PARAMETER_LOCATION_BODY"
	paramLocationHeader = "PARAMETER_LOCATION_HEADER"
)

// Client talks to the Ultravox REST API to create and delete hosted voice
// sessions ("calls" in provider terminology).
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(logger *slog.Logger, baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		logger:     logger.With("provider", providerName),
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// createCallRequest is the wire shape of POST /calls.
type createCallRequest struct {
	SystemPrompt  string         `json:"systemPrompt"`
	Model         string         `json:"model"`
	Voice         string         `json:"voice"`
	Temperature   float64        `json:"temperature"`
	FirstSpeaker  string         `json:"firstSpeaker"`
	Medium        callMedium     `json:"medium"`
	SelectedTools []selectedTool `json:"selectedTools,omitempty"`
}

// callMedium requests a Twilio media stream bridge for the session.
type callMedium struct {
	Twilio struct{} `json:"twilio"`
}

type selectedTool struct {
	TemporaryTool temporaryTool `json:"temporaryTool"`
}

type temporaryTool struct {
	ModelToolName     string             `json:"modelToolName"`
	Description       string             `json:"description"`
	DynamicParameters []dynamicParameter `json:"dynamicParameters,omitempty"`
	StaticParameters  []staticParameter  `json:"staticParameters,omitempty"`
	HTTP              httpToolDefinition `json:"http"`
}

type dynamicParameter struct {
	Name     string            `json:"name"`
	Location string            `json:"location"`
	Schema   map[string]string `json:"schema"`
	Required bool              `json:"required"`
}

type staticParameter struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Value    string `json:"value"`
}

type httpToolDefinition struct {
	BaseURLPattern string `json:"baseUrlPattern"`
	HTTPMethod     string `json:"httpMethod"`
}

type createCallResponse struct {
	CallID  string `json:"callId"`
	JoinURL string `json:"joinUrl"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// CreateSession creates a hosted voice session and returns its join
// reference. The telephony call's media stream is bridged to JoinURL.
func (c *Client) CreateSession(ctx context.Context, cfg *domain.SessionConfig) (*domain.VoiceSession, error) {
	reqBody := createCallRequest{
		SystemPrompt:  cfg.ScriptText,
		Model:         cfg.Model,
		Voice:         cfg.Voice,
		Temperature:   cfg.Temperature,
		FirstSpeaker:  cfg.FirstSpeaker,
		SelectedTools: toSelectedTools(cfg.Tools),
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calls", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	c.logger.DebugContext(ctx, "Creating voice session", "model", cfg.Model, "tools", len(cfg.Tools))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach voice provider: %w", err)
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice provider response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, c.apiError(ctx, httpResp.StatusCode, respBytes)
	}

	var created createCallResponse
	if err := json.Unmarshal(respBytes, &created); err != nil {
		return nil, fmt.Errorf("failed to decode voice provider response: %w", err)
	}
	if created.JoinURL == "" {
		return nil, &domain.ProviderError{Provider: providerName, StatusCode: httpResp.StatusCode, Detail: "response missing joinUrl"}
	}

	c.logger.InfoContext(ctx, "Voice session created", "call_id", created.CallID)
	return &domain.VoiceSession{ID: created.CallID, JoinURL: created.JoinURL}, nil
}

// DeleteSession tears down a session that was created but never bridged.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/calls/"+sessionID, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach voice provider: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		respBytes, _ := io.ReadAll(httpResp.Body)
		return c.apiError(ctx, httpResp.StatusCode, respBytes)
	}
	return nil
}

func (c *Client) apiError(ctx context.Context, statusCode int, body []byte) error {
	detail := string(body)
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		detail = parsed.Detail
	}
	c.logger.WarnContext(ctx, "Voice provider request failed", "status_code", statusCode, "detail", detail)
	return &domain.ProviderError{Provider: providerName, StatusCode: statusCode, Detail: detail}
}

func toSelectedTools(tools []domain.ToolDeclaration) []selectedTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]selectedTool, 0, len(tools))
	for _, tool := range tools {
		tt := temporaryTool{
			ModelToolName: tool.Name,
			Description:   tool.Description,
			HTTP: httpToolDefinition{
				BaseURLPattern: toolURL(tool),
				HTTPMethod:     tool.Method,
			},
		}
		for _, p := range tool.Parameters {
			tt.DynamicParameters = append(tt.DynamicParameters, dynamicParameter{
				Name:     p.Name,
				Location: paramLocationBody,
				Schema:   map[string]string{"type": p.Type, "description": p.Description},
				Required: p.Required,
			})
		}
		for name, value := range tool.Headers {
			tt.StaticParameters = append(tt.StaticParameters, staticParameter{
				Name:     name,
				Location: paramLocationHeader,
				Value:    value,
			})
		}
		out = append(out, selectedTool{TemporaryTool: tt})
	}
	return out
}

func toolURL(tool domain.ToolDeclaration) string {
	if tool.PassThroughURL != "" {
		return tool.PassThroughURL
	}
	return tool.CallbackURL
}

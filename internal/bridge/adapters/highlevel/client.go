package highlevel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/voicebridge/bridge/internal/bridge/domain"
)

const providerName = "highlevel"

// apiVersion is required by the HighLevel API on every request.
const apiVersion = "2021-07-28"

// Client finds, creates, and tags contacts in the HighLevel CRM.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	locationID string
}

func NewClient(logger *slog.Logger, baseURL, apiKey, locationID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		logger:     logger.With("provider", providerName),
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		locationID: locationID,
	}
}

type contactRecord struct {
	ID    string   `json:"id"`
	Phone string   `json:"phone"`
	Tags  []string `json:"tags"`
}

type searchContactsResponse struct {
	Contacts []contactRecord `json:"contacts"`
}

type createContactRequest struct {
	Phone      string `json:"phone"`
	LocationID string `json:"locationId"`
}

type createContactResponse struct {
	Contact contactRecord `json:"contact"`
}

type addTagsRequest struct {
	Tags []string `json:"tags"`
}

// FindOrCreateContact searches by phone number and creates the contact with
// phone + location when the search returns nothing.
func (c *Client) FindOrCreateContact(ctx context.Context, phone string) (*domain.CrmContact, error) {
	query := url.Values{}
	query.Set("locationId", c.locationID)
	query.Set("query", phone)

	respBytes, status, err := c.do(ctx, http.MethodGet, "/contacts/?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("search contacts: %w", c.apiError(ctx, status, respBytes))
	}

	var found searchContactsResponse
	if err := json.Unmarshal(respBytes, &found); err != nil {
		return nil, fmt.Errorf("search contacts: decode response: %w", err)
	}
	if len(found.Contacts) > 0 {
		rec := found.Contacts[0]
		c.logger.DebugContext(ctx, "Contact found", "contact_id", rec.ID)
		return &domain.CrmContact{ID: rec.ID, Phone: rec.Phone, Tags: rec.Tags}, nil
	}

	createBody, err := json.Marshal(createContactRequest{Phone: phone, LocationID: c.locationID})
	if err != nil {
		return nil, fmt.Errorf("create contact: marshal request: %w", err)
	}

	respBytes, status, err = c.do(ctx, http.MethodPost, "/contacts/", createBody)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("create contact: %w", c.apiError(ctx, status, respBytes))
	}

	var created createContactResponse
	if err := json.Unmarshal(respBytes, &created); err != nil {
		return nil, fmt.Errorf("create contact: decode response: %w", err)
	}

	c.logger.InfoContext(ctx, "Contact created", "contact_id", created.Contact.ID)
	return &domain.CrmContact{ID: created.Contact.ID, Phone: phone, Tags: created.Contact.Tags}, nil
}

// AddTag applies a tag to a contact. The CRM treats repeated tags as a no-op,
// so calling this twice with the same tag succeeds both times.
func (c *Client) AddTag(ctx context.Context, contactID, tag string) error {
	body, err := json.Marshal(addTagsRequest{Tags: []string{tag}})
	if err != nil {
		return fmt.Errorf("add tag: marshal request: %w", err)
	}

	respBytes, status, err := c.do(ctx, http.MethodPost, "/contacts/"+contactID+"/tags", body)
	if err != nil {
		return fmt.Errorf("add tag: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("add tag: %w", c.apiError(ctx, status, respBytes))
	}

	c.logger.InfoContext(ctx, "Tag applied", "contact_id", contactID, "tag", tag)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Version", apiVersion)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reach CRM: %w", err)
	}
	defer httpResp.Body.Close()

	respBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to read CRM response: %w", err)
	}
	return respBytes, httpResp.StatusCode, nil
}

func (c *Client) apiError(ctx context.Context, statusCode int, body []byte) error {
	detail := string(body)
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		detail = parsed.Message
	}
	c.logger.WarnContext(ctx, "CRM request failed", "status_code", statusCode, "detail", detail)
	return &domain.ProviderError{Provider: providerName, StatusCode: statusCode, Detail: detail}
}

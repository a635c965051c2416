package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voicebridge/bridge/internal/bridge/app"
	"github.com/voicebridge/bridge/internal/bridge/domain"
	"github.com/voicebridge/bridge/internal/bridge/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockCallInitiator struct {
	mock.Mock
}

func (m *mockCallInitiator) InitiateCall(ctx context.Context, req domain.CallRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockCallLogRepository struct {
	mock.Mock
}

func (m *mockCallLogRepository) Insert(ctx context.Context, entry *repository.CallLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockCallLogRepository) ListRecent(ctx context.Context, limit int) ([]repository.CallLogEntry, error) {
	args := m.Called(ctx, limit)
	if entries := args.Get(0); entries != nil {
		return entries.([]repository.CallLogEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func newCallRouter(initiator CallInitiator, callLog repository.CallLogRepository) *chi.Mux {
	r := chi.NewRouter()
	NewCallHandler(initiator, callLog, testLogger()).RegisterRoutes(r)
	return r
}

func TestCallHandler_InitiateCall_QueryParams(t *testing.T) {
	initiator := new(mockCallInitiator)
	initiator.On("InitiateCall", mock.Anything, domain.CallRequest{
		ClientName:  "Alice",
		PhoneNumber: "5551234567",
	}).Return("CA123", nil)

	router := newCallRouter(initiator, nil)
	req := httptest.NewRequest(http.MethodGet, "/initiate-call?clientName=Alice&phoneNumber=5551234567", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp InitiateCallResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Call initiated successfully", resp.Message)
	assert.Equal(t, "CA123", resp.CallSid)
	initiator.AssertExpectations(t)
}

func TestCallHandler_InitiateCall_JSONBody(t *testing.T) {
	initiator := new(mockCallInitiator)
	initiator.On("InitiateCall", mock.Anything, domain.CallRequest{
		ClientName:  "Bob",
		PhoneNumber: "15559876543",
		UserType:    "VIP",
	}).Return("CA456", nil)

	router := newCallRouter(initiator, nil)
	body := `{"clientName":"Bob","phoneNumber":"15559876543","userType":"VIP"}`
	req := httptest.NewRequest(http.MethodPost, "/initiate-call", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	initiator.AssertExpectations(t)
}

func TestCallHandler_InitiateCall_QueryOverridesBody(t *testing.T) {
	initiator := new(mockCallInitiator)
	initiator.On("InitiateCall", mock.Anything, domain.CallRequest{
		ClientName:  "QueryName",
		PhoneNumber: "5551234567",
	}).Return("CA1", nil)

	router := newCallRouter(initiator, nil)
	body := `{"clientName":"BodyName","phoneNumber":"5551234567"}`
	req := httptest.NewRequest(http.MethodPost, "/initiate-call?clientName=QueryName", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	initiator.AssertExpectations(t)
}

func TestCallHandler_InitiateCall_MissingParameters(t *testing.T) {
	initiator := new(mockCallInitiator)

	router := newCallRouter(initiator, nil)
	req := httptest.NewRequest(http.MethodGet, "/initiate-call?clientName=Alice", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Missing required parameters: clientName and phoneNumber", resp.Error)
	initiator.AssertNotCalled(t, "InitiateCall", mock.Anything, mock.Anything)
}

func TestCallHandler_InitiateCall_InvalidPhoneNumber(t *testing.T) {
	initiator := new(mockCallInitiator)
	initiator.On("InitiateCall", mock.Anything, mock.Anything).Return("", domain.ErrInvalidPhoneNumber)

	router := newCallRouter(initiator, nil)
	req := httptest.NewRequest(http.MethodGet, "/initiate-call?clientName=Alice&phoneNumber=123", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid phone number format.", resp.Error)
}

func TestCallHandler_InitiateCall_ProviderFailure(t *testing.T) {
	initiator := new(mockCallInitiator)
	provErr := &domain.ProviderError{Provider: "ultravox", StatusCode: 401, Detail: "Invalid API key"}
	initiator.On("InitiateCall", mock.Anything, mock.Anything).Return("", provErr)

	router := newCallRouter(initiator, nil)
	req := httptest.NewRequest(http.MethodGet, "/initiate-call?clientName=Alice&phoneNumber=5551234567", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to initiate call", resp.Error)
	assert.Contains(t, resp.Message, "Invalid API key")
}

func TestCallHandler_RecentCalls(t *testing.T) {
	callLog := new(mockCallLogRepository)
	errMsg := "dial timeout"
	callLog.On("ListRecent", mock.Anything, 20).Return([]repository.CallLogEntry{
		{ID: "id-1", ClientName: "Alice", PhoneNumber: "+15551234567", UserType: "non-VIP", CallSID: "CA1", Status: repository.CallStatusBridged, CreatedAt: time.Now()},
		{ID: "id-2", ClientName: "Bob", PhoneNumber: "+15559876543", UserType: "VIP", Status: repository.CallStatusFailed, ErrorMessage: &errMsg, CreatedAt: time.Now()},
	}, nil)

	router := newCallRouter(new(mockCallInitiator), callLog)
	req := httptest.NewRequest(http.MethodGet, "/calls/recent", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp RecentCallsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Calls, 2)
	assert.Equal(t, "CA1", resp.Calls[0].CallSid)
	assert.Equal(t, "failed", resp.Calls[1].Status)
	require.NotNil(t, resp.Calls[1].ErrorMessage)
	assert.Equal(t, "dial timeout", *resp.Calls[1].ErrorMessage)
}

func TestCallHandler_RecentCalls_InvalidLimit(t *testing.T) {
	callLog := new(mockCallLogRepository)

	router := newCallRouter(new(mockCallInitiator), callLog)
	req := httptest.NewRequest(http.MethodGet, "/calls/recent?limit=0", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	callLog.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything)
}

// Fakes wiring the real orchestrator for the end-to-end handler test.

type fakeVoiceProvider struct {
	session *domain.VoiceSession
}

func (f *fakeVoiceProvider) CreateSession(ctx context.Context, cfg *domain.SessionConfig) (*domain.VoiceSession, error) {
	return f.session, nil
}

func (f *fakeVoiceProvider) DeleteSession(ctx context.Context, sessionID string) error {
	return nil
}

type fakeTelephonyProvider struct {
	gotTo      string
	gotJoinURL string
}

func (f *fakeTelephonyProvider) PlaceCall(ctx context.Context, to, joinURL string) (string, error) {
	f.gotTo = to
	f.gotJoinURL = joinURL
	return "CA123", nil
}

func (f *fakeTelephonyProvider) SendMessage(ctx context.Context, to, body string) (string, error) {
	return "SM1", nil
}

func TestCallHandler_InitiateCall_EndToEnd(t *testing.T) {
	voice := &fakeVoiceProvider{session: &domain.VoiceSession{ID: "uv-1", JoinURL: "wss://join/uv-1"}}
	telephony := &fakeTelephonyProvider{}

	builder, err := app.NewSessionBuilder(app.SessionBuilderOptions{BaseURL: "https://bridge.example.com"}, testLogger())
	require.NoError(t, err)
	orch := app.NewOrchestrator(voice, telephony, builder, nil, testLogger())

	router := newCallRouter(orch, nil)
	req := httptest.NewRequest(http.MethodGet, "/initiate-call?clientName=Alice&phoneNumber=5551234567", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp InitiateCallResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "CA123", resp.CallSid)

	// The telephony leg dials the normalized number and bridges to the
	// session's join reference.
	assert.Equal(t, "+15551234567", telephony.gotTo)
	assert.Equal(t, "wss://join/uv-1", telephony.gotJoinURL)
}

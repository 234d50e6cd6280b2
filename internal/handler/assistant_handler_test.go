package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-assist/internal/middleware"
	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/service/ai"
	"github.com/ashwinyue/next-assist/internal/service/archive"
	"github.com/ashwinyue/next-assist/internal/service/assistant"
	"github.com/ashwinyue/next-assist/internal/service/auth"
	"github.com/ashwinyue/next-assist/internal/service/catalog"
	"github.com/ashwinyue/next-assist/internal/service/feedback"
	"github.com/ashwinyue/next-assist/internal/service/store"
)

// fakeAssistant 记录调用参数并返回预设结果
type fakeAssistant struct {
	err       error
	scope     store.Scope
	text      string
	action    model.Action
	label     string
	rating    *bool
	archiveID string
}

func (f *fakeAssistant) StartSession(_ context.Context, scope store.Scope) (*assistant.Snapshot, error) {
	f.scope = scope
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Snapshot{Status: model.SessionStatusActive, Role: scope.Role}, nil
}

func (f *fakeAssistant) GetSnapshot(_ context.Context, scope store.Scope) (*assistant.Snapshot, error) {
	f.scope = scope
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Snapshot{Status: model.SessionStatusActive, Role: scope.Role}, nil
}

func (f *fakeAssistant) SendMessage(_ context.Context, scope store.Scope, text string, _ *ai.Attachment) (*assistant.TurnResult, error) {
	f.scope, f.text = scope, text
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.TurnResult{Messages: []model.Message{{ID: "b1", Role: model.MessageRoleBot, Content: "ok"}}}, nil
}

func (f *fakeAssistant) HandleAction(_ context.Context, scope store.Scope, action model.Action, label string) (*assistant.TurnResult, error) {
	f.scope, f.action, f.label = scope, action, label
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.TurnResult{Navigate: "/faturas"}, nil
}

func (f *fakeAssistant) EndSession(_ context.Context, scope store.Scope) error {
	f.scope = scope
	return f.err
}

func (f *fakeAssistant) ClearCurrentConversation(_ context.Context, scope store.Scope) error {
	f.scope = scope
	return f.err
}

func (f *fakeAssistant) LoadConversation(_ context.Context, scope store.Scope, archiveID string) (*assistant.Snapshot, error) {
	f.scope, f.archiveID = scope, archiveID
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Snapshot{Restored: true}, nil
}

func (f *fakeAssistant) RateMessage(_ context.Context, scope store.Scope, rating bool, _ *string) error {
	f.scope, f.rating = scope, &rating
	return f.err
}

func (f *fakeAssistant) ListArchive(_ context.Context, scope store.Scope) []model.ArchiveEntry {
	f.scope = scope
	return []model.ArchiveEntry{{ID: "a1"}}
}

func (f *fakeAssistant) GetArchive(_ context.Context, scope store.Scope, id string) (*model.ArchiveEntry, error) {
	f.scope, f.archiveID = scope, id
	if f.err != nil {
		return nil, f.err
	}
	return &model.ArchiveEntry{ID: id}, nil
}

func (f *fakeAssistant) DeleteArchive(_ context.Context, scope store.Scope, id string) error {
	f.scope, f.archiveID = scope, id
	return f.err
}

type testServer struct {
	engine *gin.Engine
	tokens *auth.Service
	fake   *fakeAssistant
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewService("secret", "test")
	require.NoError(t, err)
	fake := &fakeAssistant{}
	h := NewAssistantHandler(fake)

	r := gin.New()
	g := r.Group("/assistant", middleware.RequireAuth(tokens))
	g.POST("/session", h.StartSession)
	g.GET("/session", h.GetSession)
	g.DELETE("/session", h.EndSession)
	g.POST("/messages", h.SendMessage)
	g.POST("/actions", h.HandleAction)
	g.POST("/clear", h.ClearConversation)
	g.POST("/feedback", h.Feedback)
	g.GET("/archive", h.ListArchive)
	g.GET("/archive/:id", h.GetArchive)
	g.POST("/archive/:id/load", h.LoadArchive)
	g.DELETE("/archive/:id", h.DeleteArchive)

	return &testServer{engine: r, tokens: tokens, fake: fake}
}

func (s *testServer) do(t *testing.T, id catalog.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, err := s.tokens.Issue(id, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

var (
	customer = catalog.Identity{TenantID: "t1", CustomerID: "c1", OperatorID: "op1", OperatorRole: "master"}
	operator = catalog.Identity{TenantID: "t1", OperatorID: "op1", OperatorRole: "ADM"}
)

func TestStartSession_ScopeFromIdentity(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, customer, http.MethodPost, "/assistant/session", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.Scope{TenantID: "t1", Role: model.RoleCustomer, CallerID: "c1"}, s.fake.scope)

	w = s.do(t, operator, http.MethodPost, "/assistant/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.Scope{TenantID: "t1", Role: model.RoleAdm, CallerID: "op1"}, s.fake.scope)
}

func TestUnknownRoleForbidden(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, catalog.Identity{TenantID: "t1", OperatorID: "op1", OperatorRole: "guest"}, http.MethodPost, "/assistant/session", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMissingToken(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assistant/session", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{assistant.ErrAssistantUnavailable, http.StatusForbidden},
		{assistant.ErrNoActiveSession, http.StatusConflict},
		{assistant.ErrEmptyMessage, http.StatusBadRequest},
		{assistant.ErrInvalidAction, http.StatusBadRequest},
		{archive.ErrEntryNotFound, http.StatusNotFound},
		{feedback.ErrNoDurableSession, http.StatusConflict},
		{fmt.Errorf("load assistant config: %w", assistant.ErrAssistantUnavailable), http.StatusForbidden},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(t)
			s.fake.err = tt.err

			w := s.do(t, operator, http.MethodGet, "/assistant/session", nil)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	s := newTestServer(t)
	s.fake.err = fmt.Errorf("pq: password authentication failed")

	w := s.do(t, operator, http.MethodGet, "/assistant/session", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSendMessage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, customer, http.MethodPost, "/assistant/messages", SendMessageRequest{Message: "quero pagar"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quero pagar", s.fake.text)

	var resp struct {
		Success bool                 `json:"success"`
		Data    assistant.TurnResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Messages, 1)
	assert.Equal(t, "ok", resp.Data.Messages[0].Content)
}

func TestSendMessage_Blank(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, customer, http.MethodPost, "/assistant/messages", SendMessageRequest{Message: "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.fake.text)
}

func TestHandleAction(t *testing.T) {
	s := newTestServer(t)

	body := HandleActionRequest{
		Action: model.Action{Type: model.ActionNavigate, Navigate: &model.NavigatePayload{Path: "/faturas"}},
		Label:  "Faturas",
	}
	w := s.do(t, customer, http.MethodPost, "/assistant/actions", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ActionNavigate, s.fake.action.Type)
	assert.Equal(t, "/faturas", s.fake.action.Navigate.Path)
	assert.Equal(t, "Faturas", s.fake.label)
	assert.Contains(t, w.Body.String(), `"navigate":"/faturas"`)
}

func TestHandleAction_MissingType(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, customer, http.MethodPost, "/assistant/actions", map[string]any{"label": "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndAndClear(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, s.do(t, customer, http.MethodDelete, "/assistant/session", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, customer, http.MethodPost, "/assistant/clear", nil).Code)
}

func TestArchiveRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, customer, http.MethodGet, "/assistant/archive", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"a1"`)

	w = s.do(t, customer, http.MethodGet, "/assistant/archive/a2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a2", s.fake.archiveID)

	w = s.do(t, customer, http.MethodPost, "/assistant/archive/a3/load", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a3", s.fake.archiveID)
	assert.Contains(t, w.Body.String(), `"restored":true`)

	w = s.do(t, customer, http.MethodDelete, "/assistant/archive/a4", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "a4", s.fake.archiveID)
}

func TestFeedback(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, customer, http.MethodPost, "/assistant/feedback", map[string]any{"rating": false})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, s.fake.rating)
	assert.False(t, *s.fake.rating)

	w = s.do(t, customer, http.MethodPost, "/assistant/feedback", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

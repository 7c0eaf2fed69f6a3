package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoyops/honeytrap/internal/conversation"
	"github.com/decoyops/honeytrap/internal/detection"
	"github.com/decoyops/honeytrap/internal/engagement"
	"github.com/decoyops/honeytrap/internal/honeypot"
	"github.com/decoyops/honeytrap/internal/intel"
	"github.com/decoyops/honeytrap/internal/intelstore"
	"github.com/decoyops/honeytrap/internal/llm"
)

type stubLLM struct {
	classifierReply string
	generatorReply  string
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	if req.Temperature <= 0.5 {
		return llm.Response{Text: s.classifierReply}, nil
	}
	return llm.Response{Text: s.generatorReply}, nil
}

func newTestHandler(t *testing.T) *HoneypotHandler {
	t.Helper()

	mr := miniredis.RunT(t)
	log := conversation.NewRedisLog(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)

	store, err := intelstore.NewFileStore(filepath.Join(t.TempDir(), "intel.json"), nil)
	require.NoError(t, err)

	client := &stubLLM{
		classifierReply: `{"is_scam": true, "confidence": 0.9, "reasoning": "payment pressure"}`,
		generatorReply:  "Oh really? Which account should I use?",
	}
	classifier := detection.NewClassifier(detection.NewScorer(), client, "m", time.Second, nil)
	planner := engagement.NewPlanner(client, "m", time.Second, 200, nil)
	svc := honeypot.NewService(classifier, planner, intel.NewExtractor(), log, store, 0.6, nil, nil)

	return NewHoneypotHandler(svc, 50, nil)
}

func newTestRouter(h *HoneypotHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/detect", h.Detect)
	r.Get("/conversation/{id}", h.GetConversation)
	r.Delete("/conversation/{id}", h.DeleteConversation)
	r.Get("/intelligence/all", h.GetIntelligence)
	r.Get("/intelligence/stats", h.GetStats)
	r.Get("/intelligence/high-value", h.GetHighValue)
	r.Get("/intelligence/conversations", h.GetConversations)
	r.Get("/intelligence/export", h.Export)
	r.Get("/health", h.HealthCheck)
	return r
}

func postDetect(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/detect", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestDetectEndToEnd(t *testing.T) {
	srv := newTestRouter(newTestHandler(t))

	rec := postDetect(t, srv, `{"conversation_id":"conv-1","message":"send payment to fraud@paytm immediately"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result honeypot.EngageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.ScamDetected)
	assert.True(t, result.AgentActivated)
	assert.Equal(t, "Oh really? Which account should I use?", result.ReplyText)
	assert.Equal(t, []string{"fraud@paytm"}, result.ExtractedIntelligence.UPIIDs)
}

func TestDetectValidation(t *testing.T) {
	srv := newTestRouter(newTestHandler(t))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message":`},
		{"empty message", `{"conversation_id":"c","message":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postDetect(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDetectGeneratesConversationID(t *testing.T) {
	srv := newTestRouter(newTestHandler(t))

	rec := postDetect(t, srv, `{"message":"urgent, verify now"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result honeypot.EngageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.ConversationID)
}

func TestConversationLifecycle(t *testing.T) {
	srv := newTestRouter(newTestHandler(t))

	rec := postDetect(t, srv, `{"conversation_id":"conv-1","message":"send money to fraud@paytm now"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/conversation/conv-1", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var convo struct {
		Messages   []conversation.Message `json:"messages"`
		TotalTurns int                    `json:"total_turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convo))
	assert.Equal(t, 2, convo.TotalTurns)

	req = httptest.NewRequest(http.MethodDelete, "/conversation/conv-1", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/conversation/conv-1", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIntelligenceEndpoints(t *testing.T) {
	srv := newTestRouter(newTestHandler(t))

	rec := postDetect(t, srv, `{"conversation_id":"conv-1","message":"pay to fraud@paytm or call 9876543210"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/intelligence/all", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var global intelstore.GlobalIntelligence
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &global))
	assert.Equal(t, []string{"fraud@paytm"}, global.UPIIDs)
	assert.Equal(t, []string{"9876543210"}, global.PhoneNumbers)

	req = httptest.NewRequest(http.MethodGet, "/intelligence/stats", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats intelstore.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalConversations)

	req = httptest.NewRequest(http.MethodGet, "/intelligence/high-value", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var hv intelstore.HighValueReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hv))
	assert.Equal(t, 2, hv.Count)
}

func TestExportIsStable(t *testing.T) {
	srv := newTestRouter(newTestHandler(t))

	rec := postDetect(t, srv, `{"conversation_id":"conv-1","message":"pay fraud@paytm"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/intelligence/export", nil)
	first := httptest.NewRecorder()
	srv.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	srv.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/intelligence/export", nil))
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestConversationsLimitValidation(t *testing.T) {
	srv := newTestRouter(newTestHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/intelligence/conversations?limit=abc", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/intelligence/conversations?limit=5", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

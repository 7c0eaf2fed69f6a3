package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/decoyops/honeytrap/internal/conversation"
	"github.com/decoyops/honeytrap/internal/honeypot"
	"github.com/decoyops/honeytrap/pkg/logging"
)

// maxMessageBytes bounds an inbound scammer message. Longer payloads are
// rejected before the pipeline runs.
const maxMessageBytes = 10_000

// HoneypotHandler exposes the engagement pipeline and the intelligence views
// over HTTP.
type HoneypotHandler struct {
	svc         *honeypot.Service
	recentLimit int
	logger      *logging.Logger
}

func NewHoneypotHandler(svc *honeypot.Service, recentLimit int, logger *logging.Logger) *HoneypotHandler {
	if recentLimit <= 0 {
		recentLimit = 50
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HoneypotHandler{
		svc:         svc,
		recentLimit: recentLimit,
		logger:      logger,
	}
}

type detectRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// Detect handles POST /detect: run one scammer message through the pipeline
// and return the assessment, reply and extracted intelligence.
func (h *HoneypotHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	result, err := h.svc.Engage(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		h.logger.Error("engagement pipeline failed",
			"conversation_id", req.ConversationID,
			"error", err,
		)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type conversationResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
	TotalTurns     int                    `json:"total_turns"`
	AgentTurns     int                    `json:"agent_turns"`
}

// GetConversation handles GET /conversation/{id}.
func (h *HoneypotHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	history, err := h.svc.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, conversationResponse{
		ConversationID: id,
		Messages:       history,
		TotalTurns:     len(history),
		AgentTurns:     conversation.AgentTurns(history),
	})
}

// DeleteConversation handles DELETE /conversation/{id}. Aggregated
// intelligence survives the delete.
func (h *HoneypotHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "conversation_id": id})
}

// GetIntelligence handles GET /intelligence: the global artifact union.
func (h *HoneypotHandler) GetIntelligence(w http.ResponseWriter, r *http.Request) {
	global, err := h.svc.GlobalIntelligence(r.Context())
	if err != nil {
		http.Error(w, "failed to load intelligence", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, global)
}

// GetStats handles GET /intelligence/stats.
func (h *HoneypotHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		http.Error(w, "failed to load statistics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetHighValue handles GET /intelligence/high-value.
func (h *HoneypotHandler) GetHighValue(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.HighValue(r.Context())
	if err != nil {
		http.Error(w, "failed to load high-value intelligence", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetConversations handles GET /intelligence/conversations?limit=N.
func (h *HoneypotHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	limit := h.recentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if n < limit {
			limit = n
		}
	}

	records, err := h.svc.RecentConversations(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to load conversations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": records,
		"count":         len(records),
	})
}

// Export handles GET /intelligence/export: the full database as canonical
// JSON.
func (h *HoneypotHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export(r.Context())
	if err != nil {
		http.Error(w, "failed to export intelligence", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="intelligence_export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// serviceVersion is reported by the health endpoint.
const serviceVersion = "1.0.0"

// HealthCheck handles GET /health. Public, no auth.
func (h *HoneypotHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "honeytrap",
		"version": serviceVersion,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

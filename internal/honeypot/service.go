package honeypot

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/decoyops/honeytrap/internal/conversation"
	"github.com/decoyops/honeytrap/internal/detection"
	"github.com/decoyops/honeytrap/internal/engagement"
	"github.com/decoyops/honeytrap/internal/intel"
	"github.com/decoyops/honeytrap/internal/intelstore"
	"github.com/decoyops/honeytrap/internal/observability/metrics"
	"github.com/decoyops/honeytrap/pkg/logging"
)

// Metrics summarises how an engagement is going.
type Metrics struct {
	TotalTurns             int `json:"total_turns"`
	AgentTurns             int `json:"agent_turns"`
	DurationSeconds        int `json:"duration_seconds"`
	IntelligenceItemsFound int `json:"intelligence_items_found"`
}

// EngageResult is the outcome of processing one scammer turn.
type EngageResult struct {
	ConversationID        string             `json:"conversation_id"`
	ScamDetected          bool               `json:"scam_detected"`
	ScamType              detection.ScamType `json:"scam_type"`
	Confidence            float64            `json:"confidence"`
	AgentActivated        bool               `json:"agent_activated"`
	ReplyText             string             `json:"reply_text,omitempty"`
	Stage                 engagement.Stage   `json:"stage"`
	Persona               engagement.Persona `json:"persona"`
	ExtractedIntelligence intel.Intelligence `json:"extracted_intelligence"`
	EngagementMetrics     Metrics            `json:"engagement_metrics"`
}

// Service runs the full honeypot pipeline for inbound scammer messages:
// detect, engage, extract, persist.
type Service struct {
	classifier *detection.Classifier
	planner    *engagement.Planner
	extractor  *intel.Extractor
	log        conversation.Log
	store      intelstore.Store
	threshold  float64
	metrics    *metrics.HoneypotMetrics
	logger     *logging.Logger
	tracer     trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(
	classifier *detection.Classifier,
	planner *engagement.Planner,
	extractor *intel.Extractor,
	log conversation.Log,
	store intelstore.Store,
	threshold float64,
	m *metrics.HoneypotMetrics,
	logger *logging.Logger,
) *Service {
	if extractor == nil {
		extractor = intel.NewExtractor()
	}
	if threshold <= 0 {
		threshold = 0.6
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		classifier: classifier,
		planner:    planner,
		extractor:  extractor,
		log:        log,
		store:      store,
		threshold:  threshold,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("honeytrap.internal.honeypot"),
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing work on one conversation id. Distinct
// conversations proceed concurrently.
func (s *Service) lockFor(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[conversationID] = l
	}
	return l
}

// Engage processes one inbound scammer message end to end. Detection and
// reply planning always complete; persistence failures are logged and the
// result is still returned so the caller can answer the scammer.
func (s *Service) Engage(ctx context.Context, conversationID, message string) (EngageResult, error) {
	started := time.Now()

	ctx, span := s.tracer.Start(ctx, "honeypot.engage")
	defer span.End()

	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.log.History(ctx, conversationID)
	if err != nil && !errors.Is(err, conversation.ErrNotFound) {
		s.logger.Warn("failed to load conversation history, proceeding without context",
			"conversation_id", conversationID,
			"error", err,
		)
		history = nil
	}

	assessment := s.classifier.Analyze(ctx, conversationID, message, history)
	extracted := s.extractor.Extract(history, message)

	result := EngageResult{
		ConversationID:        conversationID,
		ScamDetected:          assessment.IsScam,
		ScamType:              assessment.Type,
		Confidence:            assessment.Confidence,
		Stage:                 engagement.StageFor(conversation.AgentTurns(history)),
		Persona:               engagement.SelectPersona(assessment.Type, engagement.StageFor(conversation.AgentTurns(history))),
		ExtractedIntelligence: extracted,
	}

	now := time.Now().UTC()
	turns := []conversation.Message{
		{Role: conversation.RoleScammer, Content: message, Timestamp: now},
	}

	if assessment.ShouldEngage(s.threshold) {
		plan := s.planner.Respond(ctx, conversationID, message, history, assessment.Type)
		result.AgentActivated = true
		result.ReplyText = plan.Reply
		result.Stage = plan.Stage
		result.Persona = plan.Persona
	} else {
		// Below the engagement bar the decoy still answers, with a neutral
		// probe that commits to nothing.
		result.ReplyText = engagement.NeutralProbe(conversation.AgentTurns(history))
	}
	turns = append(turns, conversation.Message{
		Role:      conversation.RoleAgent,
		Content:   result.ReplyText,
		Timestamp: now,
	})

	if err := s.log.Append(ctx, conversationID, turns...); err != nil {
		s.logger.Error("failed to persist conversation turns",
			"conversation_id", conversationID,
			"error", err,
		)
	}
	history = append(history, turns...)

	result.EngagementMetrics = Metrics{
		TotalTurns:             len(history),
		AgentTurns:             conversation.AgentTurns(history),
		DurationSeconds:        conversation.Duration(history),
		IntelligenceItemsFound: extracted.ExtractedCount,
	}

	s.mergeAggregates(ctx, result)

	s.metrics.ObserveTurn(result.AgentActivated, time.Since(started).Seconds())
	if result.ScamDetected {
		s.metrics.ObserveScam(result.ScamType.String())
	}
	s.metrics.AddIntelItems(extracted.ExtractedCount)

	return result, nil
}

// mergeAggregates folds the turn's outcome into the intelligence database.
// A cancelled request never reaches the database; a failed merge is logged
// and the turn still succeeds.
func (s *Service) mergeAggregates(ctx context.Context, result EngageResult) {
	if err := ctx.Err(); err != nil {
		s.logger.Warn("skipping intelligence merge for cancelled request",
			"conversation_id", result.ConversationID,
			"error", err,
		)
		return
	}

	record := intelstore.ConversationRecord{
		ConversationID:  result.ConversationID,
		ScamDetected:    result.ScamDetected,
		ScamType:        result.ScamType.String(),
		Confidence:      result.Confidence,
		TotalTurns:      result.EngagementMetrics.TotalTurns,
		AgentTurns:      result.EngagementMetrics.AgentTurns,
		DurationSeconds: result.EngagementMetrics.DurationSeconds,
		Intelligence:    result.ExtractedIntelligence,
		QualityScore:    intel.ScoreQuality(result.ExtractedIntelligence).Score,
	}
	if err := s.store.Merge(ctx, record); err != nil {
		s.logger.Error("failed to merge intelligence aggregates",
			"conversation_id", result.ConversationID,
			"error", err,
		)
	}
}

// History returns the stored transcript for a conversation.
func (s *Service) History(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	return s.log.History(ctx, conversationID)
}

// Delete removes a conversation's transcript and its per-conversation record.
// Global intelligence aggregates are deliberately retained.
func (s *Service) Delete(ctx context.Context, conversationID string) error {
	lock := s.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	logErr := s.log.Delete(ctx, conversationID)
	storeErr := s.store.DeleteConversation(ctx, conversationID)
	if errors.Is(storeErr, intelstore.ErrNotFound) {
		storeErr = nil
	}

	if logErr != nil {
		return logErr
	}
	return storeErr
}

// Intelligence accessors delegate to the aggregate store.

func (s *Service) GlobalIntelligence(ctx context.Context) (intelstore.GlobalIntelligence, error) {
	return s.store.Global(ctx)
}

func (s *Service) Statistics(ctx context.Context) (intelstore.Statistics, error) {
	return s.store.Statistics(ctx)
}

func (s *Service) HighValue(ctx context.Context) (intelstore.HighValueReport, error) {
	return s.store.HighValue(ctx)
}

func (s *Service) RecentConversations(ctx context.Context, limit int) ([]intelstore.ConversationRecord, error) {
	return s.store.Recent(ctx, limit)
}

func (s *Service) Export(ctx context.Context) ([]byte, error) {
	return s.store.Export(ctx)
}

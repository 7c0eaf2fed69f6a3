package intelstore

import (
	"context"
	"errors"
	"time"

	"github.com/decoyops/honeytrap/internal/intel"
)

// ErrNotFound is returned when a conversation record does not exist.
var ErrNotFound = errors.New("intelstore: conversation not found")

// ConversationRecord is the per-conversation aggregate kept in the database.
// Each merge replaces it with the conversation's latest state.
type ConversationRecord struct {
	ConversationID  string             `json:"conversation_id"`
	ScamDetected    bool               `json:"scam_detected"`
	ScamType        string             `json:"scam_type"`
	Confidence      float64            `json:"confidence"`
	TotalTurns      int                `json:"total_turns"`
	AgentTurns      int                `json:"agent_turns"`
	DurationSeconds int                `json:"duration_seconds"`
	Intelligence    intel.Intelligence `json:"intelligence"`
	QualityScore    int                `json:"quality_score"`
	FirstSeen       time.Time          `json:"first_seen"`
	LastUpdated     time.Time          `json:"last_updated"`
}

// GlobalIntelligence is the cross-conversation union of extracted artifacts.
// Every slice stays sorted and deduplicated.
type GlobalIntelligence struct {
	BankAccounts   []string `json:"bank_accounts"`
	IFSCCodes      []string `json:"ifsc_codes"`
	PhoneNumbers   []string `json:"phone_numbers"`
	UPIIDs         []string `json:"upi_ids"`
	Emails         []string `json:"emails"`
	URLs           []string `json:"urls"`
	PANCards       []string `json:"pan_cards"`
	AadhaarNumbers []string `json:"aadhaar_numbers"`
	BankNames      []string `json:"bank_names"`
	CompanyNames   []string `json:"company_names"`
	ScammerClaims  []string `json:"scammer_claims"`
}

// ItemCount is the number of distinct artifacts across all categories.
func (g GlobalIntelligence) ItemCount() int {
	total := 0
	for _, set := range [][]string{
		g.BankAccounts, g.IFSCCodes, g.PhoneNumbers, g.UPIIDs, g.Emails,
		g.URLs, g.PANCards, g.AadhaarNumbers, g.BankNames, g.CompanyNames,
		g.ScammerClaims,
	} {
		total += len(set)
	}
	return total
}

// Statistics are cumulative counters. Deleting a conversation record does not
// roll them back.
type Statistics struct {
	TotalConversations     int       `json:"total_conversations"`
	TotalScamsDetected     int       `json:"total_scams_detected"`
	TotalIntelligenceItems int       `json:"total_intelligence_items"`
	LastUpdated            time.Time `json:"last_updated"`
}

// HighValueReport lists the payment artifacts an investigator acts on first.
// Count covers the four directly actionable categories; IFSC codes ride along
// as routing context.
type HighValueReport struct {
	BankAccounts []string `json:"bank_accounts"`
	UPIIDs       []string `json:"upi_ids"`
	PhoneNumbers []string `json:"phone_numbers"`
	URLs         []string `json:"urls"`
	IFSCCodes    []string `json:"ifsc_codes"`
	Count        int      `json:"count"`
}

// Store persists conversation aggregates and the global intelligence union.
type Store interface {
	// Merge upserts a conversation's latest state and unions its artifacts
	// into the global sets. The record is last-write-wins; the global sets
	// and statistics only grow. Repeated merges of the same data are no-ops.
	Merge(ctx context.Context, record ConversationRecord) error
	Conversation(ctx context.Context, id string) (ConversationRecord, error)
	// DeleteConversation removes the per-conversation record only. Global
	// intelligence and statistics are unaffected.
	DeleteConversation(ctx context.Context, id string) error
	Global(ctx context.Context) (GlobalIntelligence, error)
	Statistics(ctx context.Context) (Statistics, error)
	HighValue(ctx context.Context) (HighValueReport, error)
	Recent(ctx context.Context, limit int) ([]ConversationRecord, error)
	// Export returns the full database as canonical JSON. Two exports with
	// no merge in between are byte-identical.
	Export(ctx context.Context) ([]byte, error)
	// Clear wipes the whole database, aggregates included. Operational
	// resets only.
	Clear(ctx context.Context) error
}

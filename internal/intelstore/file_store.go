package intelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/decoyops/honeytrap/internal/intel"
)

// document is the on-disk shape of the whole database. One file, one JSON
// object.
type document struct {
	Conversations map[string]ConversationRecord `json:"conversations"`
	Global        GlobalIntelligence            `json:"global_intelligence"`
	Statistics    Statistics                    `json:"statistics"`
}

// FileStore keeps the entire database in memory and rewrites the backing file
// atomically on every mutation. All methods are safe for concurrent use.
type FileStore struct {
	path   string
	tracer trace.Tracer

	mu  sync.Mutex
	doc document
}

// NewFileStore opens or creates the database at path.
func NewFileStore(path string, tracer trace.Tracer) (*FileStore, error) {
	if tracer == nil {
		tracer = otel.Tracer("honeytrap.internal.intelstore")
	}
	s := &FileStore{
		path:   path,
		tracer: tracer,
		doc: document{
			Conversations: make(map[string]ConversationRecord),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("intelstore: failed to open database: %w", err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("intelstore: corrupt database %s: %w", path, err)
	}
	if s.doc.Conversations == nil {
		s.doc.Conversations = make(map[string]ConversationRecord)
	}
	return s, nil
}

// Merge upserts the conversation record and folds its artifacts into the
// global sets. The record carries the conversation's full latest state, so the
// stored copy is simply replaced; only the global sets and the statistics are
// monotone. A merge that changes nothing leaves the file and timestamps
// untouched.
func (s *FileStore) Merge(ctx context.Context, record ConversationRecord) error {
	ctx, span := s.tracer.Start(ctx, "intelstore.merge")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	changed := false

	existing, known := s.doc.Conversations[record.ConversationID]
	next := record
	next.FirstSeen = existing.FirstSeen
	if !known {
		next.FirstSeen = now
		s.doc.Statistics.TotalConversations++
		changed = true
	}
	if record.ScamDetected && !existing.ScamDetected {
		s.doc.Statistics.TotalScamsDetected++
		changed = true
	}

	before := s.doc.Global.ItemCount()
	s.doc.Global = unionGlobal(s.doc.Global, record.Intelligence)
	if added := s.doc.Global.ItemCount() - before; added > 0 {
		s.doc.Statistics.TotalIntelligenceItems += added
		changed = true
	}

	// Compare payloads only; LastUpdated moves iff something else did.
	next.LastUpdated = existing.LastUpdated
	if !changed && reflect.DeepEqual(next, existing) {
		return nil
	}

	next.LastUpdated = now
	s.doc.Conversations[record.ConversationID] = next
	s.doc.Statistics.LastUpdated = now

	if err := s.flush(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *FileStore) Conversation(ctx context.Context, id string) (ConversationRecord, error) {
	_, span := s.tracer.Start(ctx, "intelstore.conversation")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.doc.Conversations[id]
	if !ok {
		return ConversationRecord{}, ErrNotFound
	}
	return record, nil
}

func (s *FileStore) DeleteConversation(ctx context.Context, id string) error {
	_, span := s.tracer.Start(ctx, "intelstore.delete_conversation")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.doc.Conversations, id)

	if err := s.flush(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *FileStore) Global(ctx context.Context) (GlobalIntelligence, error) {
	_, span := s.tracer.Start(ctx, "intelstore.global")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Global, nil
}

func (s *FileStore) Statistics(ctx context.Context) (Statistics, error) {
	_, span := s.tracer.Start(ctx, "intelstore.statistics")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Statistics, nil
}

func (s *FileStore) HighValue(ctx context.Context) (HighValueReport, error) {
	_, span := s.tracer.Start(ctx, "intelstore.high_value")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	report := HighValueReport{
		BankAccounts: s.doc.Global.BankAccounts,
		UPIIDs:       s.doc.Global.UPIIDs,
		PhoneNumbers: s.doc.Global.PhoneNumbers,
		URLs:         s.doc.Global.URLs,
		IFSCCodes:    s.doc.Global.IFSCCodes,
	}
	report.Count = len(report.BankAccounts) + len(report.UPIIDs) +
		len(report.PhoneNumbers) + len(report.URLs)
	return report, nil
}

// Recent returns up to limit conversation records ordered by most recent
// activity first.
func (s *FileStore) Recent(ctx context.Context, limit int) ([]ConversationRecord, error) {
	_, span := s.tracer.Start(ctx, "intelstore.recent")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]ConversationRecord, 0, len(s.doc.Conversations))
	for _, r := range s.doc.Conversations {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].LastUpdated.Equal(records[j].LastUpdated) {
			return records[i].LastUpdated.After(records[j].LastUpdated)
		}
		return records[i].ConversationID < records[j].ConversationID
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Export serializes the full database. Map keys and category sets are sorted,
// so exports without intervening merges are byte-identical.
func (s *FileStore) Export(ctx context.Context) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "intelstore.export")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("intelstore: failed to export database: %w", err)
	}
	return data, nil
}

// Clear resets the database to empty and persists the empty document.
func (s *FileStore) Clear(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "intelstore.clear")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = document{Conversations: make(map[string]ConversationRecord)}

	if err := s.flush(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// flush writes the document to a temp file in the same directory and renames
// it over the database so readers never observe a partial write. Callers hold
// s.mu.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("intelstore: failed to marshal database: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".intelstore-*.json")
	if err != nil {
		return fmt.Errorf("intelstore: failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("intelstore: failed to write database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("intelstore: failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("intelstore: failed to replace database: %w", err)
	}
	return nil
}

func unionGlobal(g GlobalIntelligence, i intel.Intelligence) GlobalIntelligence {
	g.BankAccounts, _ = unionSorted(g.BankAccounts, i.BankAccounts)
	g.IFSCCodes, _ = unionSorted(g.IFSCCodes, i.IFSCCodes)
	g.PhoneNumbers, _ = unionSorted(g.PhoneNumbers, i.PhoneNumbers)
	g.UPIIDs, _ = unionSorted(g.UPIIDs, i.UPIIDs)
	g.Emails, _ = unionSorted(g.Emails, i.Emails)
	g.URLs, _ = unionSorted(g.URLs, i.URLs)
	g.PANCards, _ = unionSorted(g.PANCards, i.PANCards)
	g.AadhaarNumbers, _ = unionSorted(g.AadhaarNumbers, i.AadhaarNumbers)
	g.BankNames, _ = unionSorted(g.BankNames, i.BankNames)
	g.CompanyNames, _ = unionSorted(g.CompanyNames, i.CompanyNames)
	g.ScammerClaims, _ = unionSorted(g.ScammerClaims, i.ScammerClaims)
	return g
}

// unionSorted merges src into the sorted set dst, returning the sorted result
// and whether any new element appeared.
func unionSorted(dst, src []string) ([]string, bool) {
	if len(src) == 0 {
		return dst, false
	}

	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, v := range dst {
		seen[v] = struct{}{}
	}

	added := false
	for _, v := range src {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
		added = true
	}
	if added {
		sort.Strings(dst)
	}
	return dst, added
}

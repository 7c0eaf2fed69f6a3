package detection

import (
	"regexp"
	"strings"
)

// Keyword category weights. Every hit adds its weight; there is no
// per-category cap and no normalization by message length.
const (
	weightFinancial     = 0.3
	weightUrgency       = 0.2
	weightUPI           = 0.3
	weightPhishing      = 0.25
	weightImpersonation = 0.2

	bonusURL   = 0.3
	bonusPhone = 0.15
)

var (
	financialKeywords = []string{
		"bank account", "account number", "routing number",
		"credit card", "debit card", "cvv", "pin",
		"transfer money", "send money", "payment",
		"refund", "cashback", "prize", "lottery",
	}
	urgencyKeywords = []string{
		"urgent", "immediately", "right now", "asap",
		"account blocked", "account suspended", "verify now",
		"expires today", "limited time",
	}
	upiKeywords = []string{
		"upi", "upi id", "paytm", "phonepe", "gpay",
		"google pay", "bhim", "@paytm", "@oksbi", "@ybl",
	}
	phishingKeywords = []string{
		"click here", "verify your account", "confirm your identity",
		"update your information", "security alert",
		"suspicious activity", "click link", "reset password",
	}
	impersonationKeywords = []string{
		"government official", "tax department", "police",
		"bank manager", "customer service", "tech support",
		"amazon", "flipkart", "irs", "income tax",
	}

	urlPattern   = regexp.MustCompile(`https?://[A-Za-z0-9$\-_.+!*(),/:;=?@&%#~]+`)
	phonePattern = regexp.MustCompile(`\b\d{10}\b|\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

// RuleResult is the deterministic half of a scam assessment.
type RuleResult struct {
	Score   float64
	Type    ScamType
	Matches int
}

// Scorer assigns a bounded heuristic scam score from fixed keyword lists.
// It is a pure function of the message text; keep callers behind this type so
// the heuristic can later be swapped for a calibrated model.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score evaluates a raw message. The returned score is clamped to [0,1].
func (s *Scorer) Score(message string) RuleResult {
	text := strings.ToLower(message)

	score := 0.0
	matches := 0

	for _, group := range []struct {
		keywords []string
		weight   float64
	}{
		{financialKeywords, weightFinancial},
		{urgencyKeywords, weightUrgency},
		{upiKeywords, weightUPI},
		{phishingKeywords, weightPhishing},
		{impersonationKeywords, weightImpersonation},
	} {
		for _, kw := range group.keywords {
			if strings.Contains(text, kw) {
				score += group.weight
				matches++
			}
		}
	}

	if urlPattern.MatchString(text) {
		score += bonusURL
	}
	if phonePattern.MatchString(text) {
		score += bonusPhone
	}

	if score > 1.0 {
		score = 1.0
	}

	return RuleResult{
		Score:   score,
		Type:    s.classify(text),
		Matches: matches,
	}
}

// classify picks the scam type by fixed category priority, independent of the
// numeric score.
func (s *Scorer) classify(text string) ScamType {
	switch {
	case containsAny(text, upiKeywords):
		return ScamUPI
	case containsAny(text, phishingKeywords):
		return ScamPhishing
	case containsAny(text, impersonationKeywords):
		return ScamImpersonation
	case containsAny(text, financialKeywords):
		return ScamFinancialFraud
	}
	return ScamUnknown
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

package intel

import (
	"regexp"
	"sort"
	"strings"

	"github.com/decoyops/honeytrap/internal/conversation"
)

// Intelligence is the per-category, deduplicated extraction result for one
// conversation. Category slices are sorted so repeated extractions and
// exports are byte-identical.
type Intelligence struct {
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
	ExtractedCount int      `json:"extracted_count"`
}

// Count returns the total number of extracted items across every category.
func (i Intelligence) Count() int {
	total := 0
	for _, set := range [][]string{
		i.BankAccounts, i.IFSCCodes, i.PhoneNumbers, i.UPIIDs, i.Emails,
		i.URLs, i.PANCards, i.AadhaarNumbers, i.BankNames, i.CompanyNames,
		i.ScammerClaims,
	} {
		total += len(set)
	}
	return total
}

var (
	bankAccountPattern = regexp.MustCompile(`\b\d{9,18}\b`)
	ifscPattern        = regexp.MustCompile(`(?i)\b[A-Z]{4}0[A-Z0-9]{6}\b`)
	phonePattern       = regexp.MustCompile(`\b(?:\+91[-.\s]?)?[6-9]\d{9}\b`)
	upiPattern         = regexp.MustCompile(`\b[\w.-]+@(?:paytm|oksbi|okhdfcbank|okaxis|okicici|ybl|ibl|axl)\b`)
	emailPattern       = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern         = regexp.MustCompile(`https?://[A-Za-z0-9$\-_.+!*(),/:;=?@&%#~]+`)
	panPattern         = regexp.MustCompile(`(?i)\b[A-Z]{5}[0-9]{4}[A-Z]\b`)
	aadhaarPattern     = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)
)

// upiHandles is the allowlist of provider handles a payment address must end
// with to be kept.
var upiHandles = []string{
	"@paytm", "@oksbi", "@ybl", "@okicici", "@okaxis",
	"@okhdfcbank", "@ibl", "@axl", "@fbl", "@upi",
}

var bankNames = []string{
	"sbi", "hdfc", "icici", "axis", "kotak", "pnb",
	"canara", "bank of baroda", "union bank", "idbi",
}

// impersonationTargets are organisations and authorities scammers commonly
// claim to represent.
var impersonationTargets = []string{
	"amazon", "flipkart", "paytm", "google pay", "phonepe",
	"income tax", "tax department", "police", "cyber cell",
	"rbi", "reserve bank", "government", "ministry",
}

// suspicionIndicators mark a URL worth keeping: shorteners, throwaway TLDs,
// risky file extensions and phishing keywords. URLs without any indicator are
// dropped.
var suspicionIndicators = []string{
	"bit.ly", "tinyurl", "goo.gl",
	".tk", ".ml", ".ga", ".cf", ".gq",
	".zip", ".rar", ".exe",
	"verify", "confirm", "login", "secure", "account",
}

// Extractor turns a message plus history into structured, deduplicated
// artifacts. It is a pure function of its inputs.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract runs every regex family over the lowercased concatenation of the
// full history and the current message.
func (e *Extractor) Extract(history []conversation.Message, currentMessage string) Intelligence {
	var sb strings.Builder
	sb.WriteString(currentMessage)
	sb.WriteString(" ")
	for _, msg := range history {
		sb.WriteString(msg.Content)
		sb.WriteString(" ")
	}
	text := strings.ToLower(sb.String())

	intel := Intelligence{
		BankAccounts:   extractUnique(text, bankAccountPattern, validBankAccount),
		IFSCCodes:      upperAll(extractUnique(text, ifscPattern, nil)),
		PhoneNumbers:   extractUnique(text, phonePattern, nil),
		UPIIDs:         extractUnique(text, upiPattern, validUPI),
		Emails:         extractUnique(text, emailPattern, nil),
		URLs:           extractUnique(text, urlPattern, suspiciousURL),
		PANCards:       upperAll(extractUnique(text, panPattern, nil)),
		AadhaarNumbers: extractUnique(text, aadhaarPattern, nil),
		BankNames:      extractBankNames(text),
		CompanyNames:   extractCompanyNames(text),
		ScammerClaims:  extractClaims(scammerTurns(history, currentMessage)),
	}
	intel.ExtractedCount = intel.Count()
	return intel
}

// extractUnique collects deduplicated, sorted matches that pass the optional
// validator.
func extractUnique(text string, pattern *regexp.Regexp, valid func(string) bool) []string {
	seen := make(map[string]struct{})
	for _, m := range pattern.FindAllString(text, -1) {
		if valid != nil && !valid(m) {
			continue
		}
		seen[m] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

const (
	ascendingDigits  = "01234567890123456789"
	descendingDigits = "98765432109876543210"
)

// validBankAccount rejects digit runs that cannot plausibly be account
// numbers: all-identical digits and trivial ascending/descending sequences.
func validBankAccount(account string) bool {
	if len(account) < 9 || len(account) > 18 {
		return false
	}

	distinct := make(map[rune]struct{})
	for _, r := range account {
		distinct[r] = struct{}{}
	}
	if len(distinct) == 1 {
		return false
	}

	if strings.Contains(ascendingDigits, account) || strings.Contains(descendingDigits, account) {
		return false
	}
	return true
}

func validUPI(id string) bool {
	lower := strings.ToLower(id)
	for _, handle := range upiHandles {
		if strings.Contains(lower, handle) {
			return true
		}
	}
	return false
}

func suspiciousURL(url string) bool {
	lower := strings.ToLower(url)
	for _, indicator := range suspicionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func extractBankNames(text string) []string {
	var found []string
	for _, bank := range bankNames {
		if strings.Contains(text, bank) {
			found = append(found, strings.ToUpper(bank))
		}
	}
	return found
}

func extractCompanyNames(text string) []string {
	var found []string
	for _, target := range impersonationTargets {
		if strings.Contains(text, target) {
			found = append(found, titleCase(target))
		}
	}
	return found
}

// scammerTurns collects the counterpart-authored texts, including the current
// message, which is always scammer-authored and not yet in the history.
func scammerTurns(history []conversation.Message, currentMessage string) []string {
	var turns []string
	for _, msg := range history {
		if msg.Role == conversation.RoleScammer {
			turns = append(turns, msg.Content)
		}
	}
	if strings.TrimSpace(currentMessage) != "" {
		turns = append(turns, currentMessage)
	}
	return turns
}

// extractClaims derives claim labels from counterpart-authored turns only.
// Each label appears at most once regardless of how often the claim is made.
func extractClaims(turns []string) []string {
	type claim struct {
		label   string
		matches func(string) bool
	}
	claims := []claim{
		{"Promises refund/cashback", func(s string) bool {
			return strings.Contains(s, "refund") || strings.Contains(s, "cashback")
		}},
		{"Claims lottery/prize win", func(s string) bool {
			return strings.Contains(s, "prize") || strings.Contains(s, "lottery") || strings.Contains(s, "winner")
		}},
		{"Claims account issue", func(s string) bool {
			return strings.Contains(s, "account") && (strings.Contains(s, "blocked") || strings.Contains(s, "suspended"))
		}},
		{"Requests verification", func(s string) bool {
			return strings.Contains(s, "verify") || strings.Contains(s, "confirm")
		}},
		{"Creates urgency", func(s string) bool {
			return strings.Contains(s, "urgent") || strings.Contains(s, "immediately")
		}},
		{"Claims to be from bank", func(s string) bool {
			for _, bank := range bankNames {
				if strings.Contains(s, bank) {
					return true
				}
			}
			return false
		}},
		{"Impersonates authority", func(s string) bool {
			return strings.Contains(s, "government") || strings.Contains(s, "police") || strings.Contains(s, "tax")
		}},
	}

	found := make(map[string]struct{})
	var out []string
	for _, turn := range turns {
		content := strings.ToLower(turn)
		for _, c := range claims {
			if _, dup := found[c.label]; dup {
				continue
			}
			if c.matches(content) {
				found[c.label] = struct{}{}
				out = append(out, c.label)
			}
		}
	}
	return out
}

func upperAll(items []string) []string {
	for i, s := range items {
		items[i] = strings.ToUpper(s)
	}
	return items
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package detection

// ScamType is the closed set of scam categories the rule layer can assign.
type ScamType int

const (
	ScamUnknown ScamType = iota
	ScamFinancialFraud
	ScamUPI
	ScamPhishing
	ScamImpersonation
)

func (t ScamType) String() string {
	switch t {
	case ScamUPI:
		return "upi_scam"
	case ScamPhishing:
		return "phishing"
	case ScamImpersonation:
		return "impersonation"
	case ScamFinancialFraud:
		return "financial_fraud"
	case ScamUnknown:
		return "unknown"
	}
	return "unknown"
}

// MarshalText lets assessments serialize the type as its wire name.
func (t ScamType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the wire names; anything else maps to ScamUnknown.
func (t *ScamType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "upi_scam":
		*t = ScamUPI
	case "phishing":
		*t = ScamPhishing
	case "impersonation":
		*t = ScamImpersonation
	case "financial_fraud":
		*t = ScamFinancialFraud
	default:
		*t = ScamUnknown
	}
	return nil
}

// Judgment is the contract of the external natural-language classifier.
type Judgment struct {
	IsScam     bool    `json:"is_scam"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Assessment is the fused per-turn scam decision.
type Assessment struct {
	IsScam     bool     `json:"is_scam"`
	Confidence float64  `json:"confidence"`
	Type       ScamType `json:"scam_type"`
	RuleScore  float64  `json:"rule_score"`
	ModelScore float64  `json:"model_score"`
	Reasoning  string   `json:"reasoning"`
}

// ShouldEngage reports whether the assessment clears the engagement bar.
func (a Assessment) ShouldEngage(threshold float64) bool {
	return a.IsScam && a.Confidence > threshold
}

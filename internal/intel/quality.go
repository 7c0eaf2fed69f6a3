package intel

// Quality summarises how actionable an extraction is, weighted toward the
// artifacts that identify a payee.
type Quality struct {
	Score        int             `json:"quality_score"`
	Indicators   map[string]bool `json:"indicators"`
	Completeness float64         `json:"completeness"`
}

// ScoreQuality rates an extraction on a 0-100 capped scale. Bank accounts and
// payment handles dominate; label categories add small increments.
func ScoreQuality(intel Intelligence) Quality {
	score := 0
	indicators := make(map[string]bool)

	if len(intel.BankAccounts) > 0 {
		score += 30
		indicators["has_bank_account"] = true
	}
	if len(intel.UPIIDs) > 0 {
		score += 25
		indicators["has_upi_id"] = true
	}
	if len(intel.URLs) > 0 {
		score += 20
		indicators["has_phishing_url"] = true
	}
	if len(intel.PhoneNumbers) > 0 {
		score += 15
		indicators["has_phone"] = true
	}
	if len(intel.IFSCCodes) > 0 {
		score += 15
		indicators["has_ifsc"] = true
	}
	if len(intel.BankNames) > 0 {
		score += 5
	}
	if len(intel.CompanyNames) > 0 {
		score += 5
	}
	if len(intel.ScammerClaims) > 0 {
		score += 5
	}

	if score > 100 {
		score = 100
	}

	return Quality{
		Score:        score,
		Indicators:   indicators,
		Completeness: float64(score) / 100.0,
	}
}

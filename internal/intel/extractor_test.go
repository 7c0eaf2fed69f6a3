package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/decoyops/honeytrap/internal/conversation"
)

func TestExtractUPIAllowlist(t *testing.T) {
	e := NewExtractor()

	intel := e.Extract(nil, "pay to x@paytm")
	assert.Equal(t, []string{"x@paytm"}, intel.UPIIDs)

	intel = e.Extract(nil, "pay to x@gmail")
	assert.Empty(t, intel.UPIIDs)
}

func TestExtractBankAccountValidation(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"all identical digits rejected", "account 111111111", nil},
		{"ascending sequence rejected", "account 123456789", nil},
		{"descending sequence rejected", "account 987654321", nil},
		{"plausible account kept", "account 307102845619", []string{"307102845619"}},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intel := e.Extract(nil, tt.message)
			if tt.want == nil {
				assert.Empty(t, intel.BankAccounts)
			} else {
				assert.Equal(t, tt.want, intel.BankAccounts)
			}
		})
	}
}

func TestExtractURLSuspicionFilter(t *testing.T) {
	e := NewExtractor()

	intel := e.Extract(nil, "go to http://bit.ly/verify-account now")
	assert.Equal(t, []string{"http://bit.ly/verify-account"}, intel.URLs)

	intel = e.Extract(nil, "our site is https://my-real-bank.com/home")
	assert.Empty(t, intel.URLs)
}

func TestExtractPhoneAndIFSC(t *testing.T) {
	e := NewExtractor()

	intel := e.Extract(nil, "call 9876543210 or wire via SBIN0004321")
	assert.Equal(t, []string{"9876543210"}, intel.PhoneNumbers)
	assert.Equal(t, []string{"SBIN0004321"}, intel.IFSCCodes)
}

func TestExtractDeduplicatesAcrossHistory(t *testing.T) {
	e := NewExtractor()

	history := []conversation.Message{
		{Role: conversation.RoleScammer, Content: "send to fraudster@ybl"},
		{Role: conversation.RoleAgent, Content: "is fraudster@ybl correct?"},
	}
	intel := e.Extract(history, "yes, fraudster@ybl")

	assert.Equal(t, []string{"fraudster@ybl"}, intel.UPIIDs)
}

func TestExtractClaimsFromScammerTurnsOnly(t *testing.T) {
	e := NewExtractor()

	history := []conversation.Message{
		{Role: conversation.RoleScammer, Content: "Your account is blocked, act immediately!"},
		{Role: conversation.RoleAgent, Content: "I will verify my refund with the police"},
		{Role: conversation.RoleScammer, Content: "This is urgent, your account is blocked"},
	}
	intel := e.Extract(history, "")

	assert.Contains(t, intel.ScammerClaims, "Claims account issue")
	assert.Contains(t, intel.ScammerClaims, "Creates urgency")
	// Agent-authored mentions never become claims.
	assert.NotContains(t, intel.ScammerClaims, "Requests verification")
	assert.NotContains(t, intel.ScammerClaims, "Impersonates authority")

	// Repeated claims stay deduplicated.
	count := 0
	for _, c := range intel.ScammerClaims {
		if c == "Claims account issue" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractClaimsFromCurrentMessage(t *testing.T) {
	e := NewExtractor()

	// The very first message has no history yet; its claims must still land.
	intel := e.Extract(nil, "Congratulations! You are the lucky lottery winner")
	assert.Contains(t, intel.ScammerClaims, "Claims lottery/prize win")
}

func TestExtractLabels(t *testing.T) {
	e := NewExtractor()

	intel := e.Extract(nil, "I am calling from HDFC on behalf of the income tax department")
	assert.Contains(t, intel.BankNames, "HDFC")
	assert.Contains(t, intel.CompanyNames, "Income Tax")
}

func TestExtractedCount(t *testing.T) {
	e := NewExtractor()

	intel := e.Extract(nil, "pay x@paytm or call 9876543210")
	assert.Equal(t, 2, intel.ExtractedCount)
	assert.Equal(t, intel.Count(), intel.ExtractedCount)
}

func TestScoreQuality(t *testing.T) {
	q := ScoreQuality(Intelligence{})
	assert.Equal(t, 0, q.Score)
	assert.Equal(t, 0.0, q.Completeness)

	q = ScoreQuality(Intelligence{
		BankAccounts: []string{"307102845619"},
		UPIIDs:       []string{"x@paytm"},
		URLs:         []string{"http://bit.ly/verify"},
		PhoneNumbers: []string{"9876543210"},
		IFSCCodes:    []string{"SBIN0004321"},
		BankNames:    []string{"SBI"},
	})
	assert.Equal(t, 100, q.Score, "score is capped at 100")
	assert.Equal(t, 1.0, q.Completeness)
	assert.True(t, q.Indicators["has_bank_account"])
	assert.True(t, q.Indicators["has_upi_id"])
}

package engagement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoyops/honeytrap/internal/conversation"
	"github.com/decoyops/honeytrap/internal/detection"
	"github.com/decoyops/honeytrap/internal/llm"
)

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Text: s.text}, nil
}

func TestRespondUsesGeneratedReply(t *testing.T) {
	p := NewPlanner(&stubGenerator{text: "Oh really? Who is this speaking?"}, "test-model", time.Second, 200, nil)

	plan := p.Respond(context.Background(), "conv-1", "you won a prize", nil, detection.ScamFinancialFraud)

	assert.Equal(t, "Oh really? Who is this speaking?", plan.Reply)
	assert.Equal(t, StageInitial, plan.Stage)
	assert.Equal(t, PersonaCuriousVictim, plan.Persona)
}

func TestRespondFallsBackOnGeneratorError(t *testing.T) {
	p := NewPlanner(&stubGenerator{err: errors.New("boom")}, "test-model", time.Second, 200, nil)

	plan := p.Respond(context.Background(), "conv-1", "share your bank account now", nil, detection.ScamFinancialFraud)

	require.NotEmpty(t, plan.Reply)
	// Financial keyword routes to the counter-asking canned reply.
	assert.Contains(t, plan.Reply, "which account")
}

func TestRespondFallbackCategories(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"link", "click this link fast", "send it again"},
		{"urgency", "do it immediately", "Why is it so urgent"},
		{"prize", "congratulations you are the winner", "How do I claim it"},
	}

	p := NewPlanner(&stubGenerator{err: errors.New("down")}, "m", time.Second, 200, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := p.Respond(context.Background(), "c", tt.message, nil, detection.ScamUnknown)
			assert.Contains(t, plan.Reply, tt.want)
		})
	}
}

func TestRespondFallbackIsDeterministic(t *testing.T) {
	p := NewPlanner(nil, "m", time.Second, 200, nil)

	history := []conversation.Message{
		{Role: conversation.RoleScammer, Content: "hello"},
		{Role: conversation.RoleAgent, Content: "hi?"},
	}
	first := p.Respond(context.Background(), "c", "hello again", history, detection.ScamUnknown)
	second := p.Respond(context.Background(), "c", "hello again", history, detection.ScamUnknown)

	assert.Equal(t, first.Reply, second.Reply)
}

func TestSanitizeStripsArtifacts(t *testing.T) {
	p := NewPlanner(nil, "m", time.Second, 200, nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"role prefix", "Reply: Who are you?", "Who are you?"},
		{"stage direction", "*gasps* That sounds scary!", "That sounds scary!"},
		{"quotes", `"How does it work?"`, "How does it work?"},
		{"sentence cap", "One. Two. Three. Four. Five.", "One. Two. Three."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.sanitize(tt.in))
		})
	}
}

func TestSanitizeEnforcesCharBound(t *testing.T) {
	p := NewPlanner(nil, "m", time.Second, 80, nil)

	long := strings.Repeat("please tell me more about this offer ", 10)
	got := p.sanitize(long)

	assert.LessOrEqual(t, len(got), 80)
	assert.NotEmpty(t, got)
	assert.False(t, strings.HasSuffix(got, " "))
}

func TestRespondStageAdvancesWithAgentTurns(t *testing.T) {
	p := NewPlanner(&stubGenerator{text: "Tell me the account number again?"}, "m", time.Second, 200, nil)

	history := make([]conversation.Message, 0, 16)
	for i := 0; i < 8; i++ {
		history = append(history,
			conversation.Message{Role: conversation.RoleScammer, Content: "send money"},
			conversation.Message{Role: conversation.RoleAgent, Content: "ok?"},
		)
	}

	plan := p.Respond(context.Background(), "c", "last chance", history, detection.ScamUPI)
	assert.Equal(t, StageExtraction, plan.Stage)
	assert.Equal(t, PersonaEagerVictim, plan.Persona)
}

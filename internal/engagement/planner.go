package engagement

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/decoyops/honeytrap/internal/conversation"
	"github.com/decoyops/honeytrap/internal/detection"
	"github.com/decoyops/honeytrap/internal/llm"
	"github.com/decoyops/honeytrap/pkg/logging"
)

// historyTurns is how many trailing turns are rendered into the generator
// prompt.
const historyTurns = 6

var asteriskAction = regexp.MustCompile(`\*[^*]*\*`)

const directiveTemplate = `You are playing a character to waste a scammer's time and collect intelligence. Stay in character no matter what.

CHARACTER: %s
Traits: %s
Tone: %s
Strategy: %s

CURRENT PHASE: %s
Objectives:
%s

HARD RULES:
1. NEVER share real personal or financial information. Invent nothing verifiable.
2. Always answer a question with a question; keep them explaining.
3. Reply in at most 3 short sentences and under %d characters.
4. Never reveal you are not a real person.
5. Never send money or click links; stall instead.

Recent conversation:
%s

Scammer's latest message:
%q

Reply as the character:`

// Plan is the resolved engagement decision for one turn.
type Plan struct {
	Stage   Stage
	Persona Persona
	Reply   string
}

// Planner decides the stage and persona for a turn and produces the decoy
// reply, degrading to canned responses when the generator is unavailable.
type Planner struct {
	client        llm.Client
	model         string
	timeout       time.Duration
	maxReplyChars int
	logger        *logging.Logger
}

func NewPlanner(client llm.Client, model string, timeout time.Duration, maxReplyChars int, logger *logging.Logger) *Planner {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxReplyChars <= 0 {
		maxReplyChars = 200
	}
	return &Planner{
		client:        client,
		model:         model,
		timeout:       timeout,
		maxReplyChars: maxReplyChars,
		logger:        logger,
	}
}

// Respond plans the next decoy turn. The returned reply is always non-empty
// and within the configured bounds; generator failures never surface to the
// caller.
func (p *Planner) Respond(ctx context.Context, conversationID, message string, history []conversation.Message, scamType detection.ScamType) Plan {
	stage := StageFor(conversation.AgentTurns(history))
	persona := SelectPersona(scamType, stage)

	reply := p.generate(ctx, conversationID, message, history, stage, persona)
	if reply == "" {
		reply = p.fallbackReply(message, history, stage)
	}

	return Plan{Stage: stage, Persona: persona, Reply: reply}
}

func (p *Planner) generate(ctx context.Context, conversationID, message string, history []conversation.Message, stage Stage, persona Persona) string {
	if p.client == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	profile := persona.Profile()
	prompt := fmt.Sprintf(directiveTemplate,
		persona, profile.Traits, profile.Tone, profile.Strategy,
		stage, stage.Objectives(),
		p.maxReplyChars,
		renderHistory(history),
		message,
	)

	resp, err := p.client.Complete(ctx, llm.Request{
		Model:       p.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   120,
		Temperature: 0.8,
		TopP:        0.9,
	})
	if err != nil {
		p.logger.Warn("reply generator failed, using canned reply",
			"conversation_id", conversationID,
			"stage", "generate",
			"error", err,
		)
		return ""
	}

	return p.sanitize(resp.Text)
}

func renderHistory(history []conversation.Message) string {
	if len(history) == 0 {
		return "(conversation just started)"
	}

	recent := history
	if len(recent) > historyTurns {
		recent = recent[len(recent)-historyTurns:]
	}

	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

// sanitize strips generator artifacts and enforces the reply bounds. An empty
// result means the generated text was unusable.
func (p *Planner) sanitize(text string) string {
	reply := strings.TrimSpace(text)

	for _, prefix := range []string{"Reply:", "Response:", "Character:", "Me:", "You:", "Agent:", "Assistant:"} {
		if strings.HasPrefix(reply, prefix) {
			reply = strings.TrimSpace(reply[len(prefix):])
		}
	}

	// Drop stage directions like *laughs nervously*.
	reply = asteriskAction.ReplaceAllString(reply, "")
	reply = strings.Trim(reply, `"'`)
	reply = strings.TrimSpace(reply)

	reply = clampSentences(reply, 3)
	if len(reply) > p.maxReplyChars {
		reply = truncateAtBoundary(reply, p.maxReplyChars)
	}
	return strings.TrimSpace(reply)
}

// clampSentences keeps at most n sentences, counting terminal punctuation.
func clampSentences(text string, n int) string {
	count := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return text[:i+1]
			}
		}
	}
	return text
}

// truncateAtBoundary cuts the text to at most max bytes, preferring the last
// sentence end and then the last space over a mid-word cut.
func truncateAtBoundary(text string, max int) string {
	cut := text[:max]
	if i := strings.LastIndexAny(cut, ".!?"); i > max/2 {
		return cut[:i+1]
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i]
	}
	return cut
}

var (
	fallbackFinancialWords = []string{"bank", "account", "upi", "payment"}
	fallbackLinkWords      = []string{"link", "click", "website", "url"}
	fallbackUrgencyWords   = []string{"urgent", "immediately", "now", "quick"}
	fallbackPrizeWords     = []string{"won", "prize", "winner", "congratulations", "lottery"}

	neutralProbes = []string{
		"Sorry, I didn't fully understand. Can you explain that again?",
		"Okay, but how does this work exactly?",
		"Who did you say you were with? I want to be sure.",
		"Can you tell me more before I do anything?",
	}
)

// fallbackReply picks a canned counter-question keyed to the scammer's
// message. The choice is deterministic so replays produce the same decoy
// behaviour.
func (p *Planner) fallbackReply(message string, history []conversation.Message, stage Stage) string {
	text := strings.ToLower(message)

	switch {
	case containsAny(text, fallbackFinancialWords):
		return "Oh, I'm not sure about sharing that. Can you first tell me which account you will send the money from?"
	case containsAny(text, fallbackLinkWords):
		return "The link doesn't open on my phone. Can you send it again or tell me the website name?"
	case containsAny(text, fallbackUrgencyWords):
		return "Why is it so urgent? What happens if I do it tomorrow instead?"
	case containsAny(text, fallbackPrizeWords):
		return "Really, I won? How do I claim it, and who is giving the prize?"
	}

	if stage >= StageInformationGathering {
		return "Okay, I think I understand. What exactly do you need from me next?"
	}
	return NeutralProbe(conversation.AgentTurns(history))
}

// NeutralProbe is the low-commitment reply used for messages that do not
// clear the engagement bar. Deterministic in the agent-turn count so replays
// produce the same transcript.
func NeutralProbe(agentTurns int) string {
	return neutralProbes[agentTurns%len(neutralProbes)]
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

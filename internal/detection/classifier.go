package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/decoyops/honeytrap/internal/conversation"
	"github.com/decoyops/honeytrap/internal/llm"
	"github.com/decoyops/honeytrap/pkg/logging"
)

// ruleScoreThreshold is the rule score above which a message is treated as a
// scam regardless of the model's judgment.
const ruleScoreThreshold = 0.3

// contextTurns is how many trailing history turns are shown to the model.
const contextTurns = 3

const classifierPrompt = `You are a scam detection expert. Analyze the following message and conversation context to determine if it is a scam attempt. Not every sender is a scammer; some are friends or relatives making ordinary requests.

Conversation Context:
%s

Current Message:
%q

Common scam indicators:
- Requests for financial information (bank account, UPI ID, card details)
- Creates urgency or fear
- Impersonates authority (bank, government, company)
- Offers unrealistic rewards
- Contains phishing links
- Asks to bypass normal procedures

Respond with JSON only:
{"is_scam": true/false, "confidence": 0.0-1.0, "reasoning": "brief explanation"}`

// Classifier fuses the deterministic rule score with an external
// natural-language judgment into a single assessment.
type Classifier struct {
	scorer  *Scorer
	client  llm.Client
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

func NewClassifier(scorer *Scorer, client llm.Client, model string, timeout time.Duration, logger *logging.Logger) *Classifier {
	if scorer == nil {
		scorer = NewScorer()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{
		scorer:  scorer,
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Analyze scores the message and asks the external classifier for a judgment.
// A failed or timed-out external call degrades to the rule score with the
// conservative default judgment {is_scam: false, confidence: 0.5}.
func (c *Classifier) Analyze(ctx context.Context, conversationID, message string, history []conversation.Message) Assessment {
	rule := c.scorer.Score(message)
	judgment := c.judge(ctx, conversationID, message, history)

	confidence := rule.Score
	if judgment.Confidence > confidence {
		confidence = judgment.Confidence
	}

	return Assessment{
		IsScam:     rule.Score > ruleScoreThreshold || judgment.IsScam,
		Confidence: confidence,
		Type:       rule.Type,
		RuleScore:  rule.Score,
		ModelScore: judgment.Confidence,
		Reasoning:  judgment.Reasoning,
	}
}

func (c *Classifier) judge(ctx context.Context, conversationID, message string, history []conversation.Message) Judgment {
	fallback := Judgment{IsScam: false, Confidence: 0.5, Reasoning: "classifier unavailable"}
	if c.client == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(classifierPrompt, buildContext(history), message)
	resp, err := c.client.Complete(ctx, llm.Request{
		Model:       c.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   150,
		Temperature: 0.3,
	})
	if err != nil {
		c.logger.Warn("external classifier failed, using conservative default",
			"conversation_id", conversationID,
			"stage", "classify",
			"excerpt", excerpt(message),
			"error", err,
		)
		return fallback
	}

	judgment, ok := parseJudgment(resp.Text)
	if !ok {
		c.logger.Warn("classifier returned unparseable judgment",
			"conversation_id", conversationID,
			"stage", "classify",
			"excerpt", excerpt(resp.Text),
		)
		return fallback
	}
	return judgment
}

// buildContext renders the last few history turns for the model.
func buildContext(history []conversation.Message) string {
	if len(history) == 0 {
		return "No previous context"
	}

	recent := history
	if len(recent) > contextTurns {
		recent = recent[len(recent)-contextTurns:]
	}

	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

var confidencePattern = regexp.MustCompile(`"confidence"\s*:\s*(0\.\d+|1\.0|0|1)`)

// parseJudgment extracts the judgment JSON from the model's reply, tolerating
// surrounding prose. When the JSON is unrecoverable it falls back to scanning
// the text for the individual fields.
func parseJudgment(text string) (Judgment, bool) {
	content := strings.TrimSpace(text)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		var j Judgment
		if err := json.Unmarshal([]byte(content[start:end+1]), &j); err == nil {
			return clampJudgment(j), true
		}
	}

	if !strings.Contains(strings.ToLower(content), "is_scam") {
		return Judgment{}, false
	}

	j := Judgment{
		IsScam:     strings.Contains(strings.ToLower(content), "true"),
		Confidence: 0.5,
		Reasoning:  "parsed from text",
	}
	if m := confidencePattern.FindStringSubmatch(content); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			j.Confidence = v
		}
	}
	return clampJudgment(j), true
}

func clampJudgment(j Judgment) Judgment {
	if j.Confidence < 0 {
		j.Confidence = 0
	}
	if j.Confidence > 1 {
		j.Confidence = 1
	}
	return j
}

// excerpt truncates a message for failure logs; enough to replay the call
// without dumping the whole exchange.
func excerpt(s string) string {
	const max = 120
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

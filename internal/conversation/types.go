package conversation

import "time"

const (
	// RoleScammer marks turns authored by the counterpart under observation.
	RoleScammer = "scammer"
	// RoleAgent marks turns authored by the decoy persona.
	RoleAgent = "agent"
)

// Message is a single immutable turn in a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentTurns counts the decoy-authored turns in a history. The engagement
// stage is a pure function of this count.
func AgentTurns(history []Message) int {
	n := 0
	for _, m := range history {
		if m.Role == RoleAgent {
			n++
		}
	}
	return n
}

// Duration reports the elapsed seconds between the first and last message.
func Duration(history []Message) int {
	if len(history) < 2 {
		return 0
	}
	return int(history[len(history)-1].Timestamp.Sub(history[0].Timestamp).Seconds())
}

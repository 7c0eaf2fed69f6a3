package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when no history exists for a conversation id.
var ErrNotFound = errors.New("conversation: not found")

// Log is an append-only ordered message store keyed by conversation id.
type Log interface {
	Append(ctx context.Context, conversationID string, msgs ...Message) error
	History(ctx context.Context, conversationID string) ([]Message, error)
	Delete(ctx context.Context, conversationID string) error
}

// RedisLog persists conversation histories as JSON documents in Redis.
// Histories have no expiry: a conversation disappears only on explicit delete.
type RedisLog struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisLog(client *redis.Client, tracer trace.Tracer) *RedisLog {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("honeytrap.internal.conversation")
	}
	return &RedisLog{
		redis:  client,
		tracer: tracer,
	}
}

// Append loads the history for conversationID, appends msgs in order and
// writes the result back. Callers serialize per conversation id; see the
// honeypot service's keyed locks.
func (l *RedisLog) Append(ctx context.Context, conversationID string, msgs ...Message) error {
	ctx, span := l.tracer.Start(ctx, "conversation.append")
	defer span.End()

	history, err := l.History(ctx, conversationID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		return err
	}
	history = append(history, msgs...)

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal history: %w", err)
	}
	if err := l.redis.Set(ctx, conversationKey(conversationID), data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist history: %w", err)
	}
	return nil
}

// History returns the ordered messages for conversationID.
func (l *RedisLog) History(ctx context.Context, conversationID string) ([]Message, error) {
	ctx, span := l.tracer.Start(ctx, "conversation.history")
	defer span.End()

	data, err := l.redis.Get(ctx, conversationKey(conversationID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load history: %w", err)
	}

	var history []Message
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
	}
	return history, nil
}

// Delete removes the history for conversationID. Returns ErrNotFound when no
// history exists.
func (l *RedisLog) Delete(ctx context.Context, conversationID string) error {
	ctx, span := l.tracer.Start(ctx, "conversation.delete")
	defer span.End()

	removed, err := l.redis.Del(ctx, conversationKey(conversationID)).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to delete history: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

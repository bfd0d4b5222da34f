package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "sportssee:conv:"

// RedisRepository persists conversations in Redis. Each conversation is a
// sorted set of JSON-encoded turns scored by turn number, plus a flag key
// marking archived conversations.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration // 0 = keep forever
}

// NewRedisRepository connects to Redis and verifies the connection.
func NewRedisRepository(url string, ttl time.Duration) (*RedisRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisRepository{client: client, ttl: ttl}, nil
}

func turnsKey(conversationID string) string {
	return redisKeyPrefix + conversationID + ":turns"
}

func archivedKey(conversationID string) string {
	return redisKeyPrefix + conversationID + ":archived"
}

// AppendTurn stores a completed turn.
func (r *RedisRepository) AppendTurn(ctx context.Context, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encoding turn: %w", err)
	}

	key := turnsKey(turn.ConversationID)

	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(turn.TurnNumber),
		Member: string(data),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// TurnsBefore returns turns with TurnNumber < beforeTurn in chronological
// order, keeping only the most recent limit turns when limit > 0. Members
// that fail to decode are skipped.
func (r *RedisRepository) TurnsBefore(ctx context.Context, conversationID string, beforeTurn, limit int) ([]Turn, error) {
	max := "+inf"
	if beforeTurn > 0 {
		max = "(" + strconv.Itoa(beforeTurn)
	}

	members, err := r.client.ZRevRangeByScore(ctx, turnsKey(conversationID), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}

	// Newest first from Redis; rebuild in chronological order.
	turns := make([]Turn, 0, len(members))
	for i := len(members) - 1; i >= 0; i-- {
		var t Turn
		if err := json.Unmarshal([]byte(members[i]), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// LastTurn returns the most recent turn and whether one exists.
func (r *RedisRepository) LastTurn(ctx context.Context, conversationID string) (Turn, bool, error) {
	members, err := r.client.ZRevRange(ctx, turnsKey(conversationID), 0, 0).Result()
	if err != nil {
		return Turn{}, false, fmt.Errorf("loading last turn: %w", err)
	}
	if len(members) == 0 {
		return Turn{}, false, nil
	}

	var t Turn
	if err := json.Unmarshal([]byte(members[0]), &t); err != nil {
		return Turn{}, false, fmt.Errorf("decoding last turn: %w", err)
	}
	return t, true, nil
}

// State reports whether the conversation is archived.
func (r *RedisRepository) State(ctx context.Context, conversationID string) (State, error) {
	n, err := r.client.Exists(ctx, archivedKey(conversationID)).Result()
	if err != nil {
		return StateActive, fmt.Errorf("checking state: %w", err)
	}
	if n > 0 {
		return StateArchived, nil
	}
	return StateActive, nil
}

// Archive marks the conversation archived. Idempotent.
func (r *RedisRepository) Archive(ctx context.Context, conversationID string) error {
	if err := r.client.Set(ctx, archivedKey(conversationID), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("archiving conversation: %w", err)
	}
	return nil
}

// Delete removes all stored data for a conversation.
func (r *RedisRepository) Delete(ctx context.Context, conversationID string) error {
	if err := r.client.Del(ctx, turnsKey(conversationID), archivedKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable. Used by readiness probes.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rag-komite-audit/server/internal/agent/model"
	errx "github.com/rag-komite-audit/server/internal/core/error"
	logx "github.com/rag-komite-audit/server/pkg/logger"
)

// HistorySource loads persisted turns when the cache is cold, newest first.
type HistorySource interface {
	GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error)
}

// Cache keeps each session's recent turns in Redis so the orchestrator does
// not hit Postgres on every query. Entries are stored oldest first.
type Cache struct {
	rdb      redis.Cmdable
	source   HistorySource
	ttl      time.Duration
	maxTurns int
}

func NewCache(rdb redis.Cmdable, source HistorySource, ttl time.Duration, maxTurns int) *Cache {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Cache{rdb: rdb, source: source, ttl: ttl, maxTurns: maxTurns}
}

func (c *Cache) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:turns", sessionID)
}

// AppendTurn records a completed turn and trims the list to the retention
// window. TTL is extended on every touch.
func (c *Cache) AppendTurn(ctx context.Context, turn model.ConversationTurn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("session_id", turn.SessionID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := c.sessionKey(turn.SessionID)

	if err := c.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	if err := c.rdb.LTrim(ctx, key, int64(-c.maxTurns), -1).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to trim session history")
		return errx.WrapRedis(err)
	}
	if c.ttl > 0 {
		if ok, err := c.rdb.Expire(ctx, key, c.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", c.ttl).Msg("failed to set TTL on session key")
		}
	}
	return nil
}

// RecentTurns returns up to limit turns in chronological order. A cold cache
// reads through to the source and backfills.
func (c *Cache) RecentTurns(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error) {
	if limit <= 0 || limit > c.maxTurns {
		limit = c.maxTurns
	}
	key := c.sessionKey(sessionID)

	rows, err := c.rdb.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil && err != redis.Nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load session history from redis")
		return nil, errx.WrapRedis(err)
	}

	if len(rows) > 0 {
		turns := make([]model.ConversationTurn, 0, len(rows))
		for i, s := range rows {
			var t model.ConversationTurn
			if err := json.Unmarshal([]byte(s), &t); err != nil {
				logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal turn")
				return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
			}
			turns = append(turns, t)
		}
		return turns, nil
	}

	return c.backfill(ctx, sessionID, limit)
}

func (c *Cache) backfill(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error) {
	stored, err := c.source.GetConversationHistory(ctx, sessionID, c.maxTurns)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return []model.ConversationTurn{}, nil
	}

	// Source order is newest first; the cache holds chronological order.
	turns := make([]model.ConversationTurn, len(stored))
	for i, t := range stored {
		turns[len(stored)-1-i] = t
	}

	key := c.sessionKey(sessionID)
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshal turn: %w", err)
		}
		values = append(values, b)
	}
	if err := c.rdb.RPush(ctx, key, values...).Err(); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("failed to backfill session cache")
	} else if c.ttl > 0 {
		c.rdb.Expire(ctx, key, c.ttl)
	}

	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// Clear drops the cached history for a session.
func (c *Cache) Clear(ctx context.Context, sessionID string) error {
	key := c.sessionKey(sessionID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// TurnCount reports how many turns are cached for a session.
func (c *Cache) TurnCount(ctx context.Context, sessionID string) (int, error) {
	n, err := c.rdb.LLen(ctx, c.sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

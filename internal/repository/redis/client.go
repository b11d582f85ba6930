// Package redis stores the latest successful transcript of each problem in
// Redis, one JSON value per problem.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
	"github.com/thraizz/squeeze-server-go/internal/game/replay"
)

func transcriptKey(problemID string) string { return "squeeze:transcript:" + problemID }

// Client wraps the Redis client for transcript operations.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

var _ replay.TranscriptStore = (*Client)(nil)

// NewClient creates a Redis client from a connection URL.
func NewClient(ctx context.Context, redisURL string, logger *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewClientFromPool(rdb, logger), nil
}

// NewClientFromPool wraps an existing redis.Client.
func NewClientFromPool(rdb *redis.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{rdb: rdb, logger: logger}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Save replaces the stored transcript of t's problem.
func (c *Client) Save(ctx context.Context, t engine.Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := c.rdb.Set(ctx, transcriptKey(t.ProblemID), data, 0).Err(); err != nil {
		return fmt.Errorf("set transcript: %w", err)
	}
	c.logger.Debug("saved transcript",
		zap.String("problem_id", t.ProblemID),
		zap.String("transcript_id", t.ID),
	)
	return nil
}

// Latest returns the stored transcript of problemID, or replay.ErrNotFound.
func (c *Client) Latest(ctx context.Context, problemID string) (engine.Transcript, error) {
	data, err := c.rdb.Get(ctx, transcriptKey(problemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return engine.Transcript{}, fmt.Errorf("%w: problem %s", replay.ErrNotFound, problemID)
	}
	if err != nil {
		return engine.Transcript{}, fmt.Errorf("get transcript: %w", err)
	}
	var t engine.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return engine.Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	return t, nil
}

// Delete removes the stored transcript of problemID.
func (c *Client) Delete(ctx context.Context, problemID string) error {
	if err := c.rdb.Del(ctx, transcriptKey(problemID)).Err(); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

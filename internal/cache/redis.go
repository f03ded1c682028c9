// Package cache keeps listed upload summaries in Redis.
//
// Each project owns one hash: the field is the qualification object id (or
// "all" for the unfiltered list) and the value is the JSON-encoded summary
// slice. Invalidating a project drops the whole hash, so any upload or
// deletion in the project clears every cached view of it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/thermomap/internal/models"
)

const (
	keyPrefix = "thermomap:summaries:"
	allField  = "all"

	// DefaultTTL bounds staleness when an invalidation is lost.
	DefaultTTL = 10 * time.Minute
)

// SummaryCache implements core.SummaryCache on a Redis client.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis using a redis:// URL and verifies the connection.
func New(ctx context.Context, url string, ttl time.Duration) (*SummaryCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client. ttl <= 0 selects DefaultTTL.
func NewWithClient(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Close closes the Redis connection.
func (c *SummaryCache) Close() error {
	return c.client.Close()
}

func projectKey(projectID uuid.UUID) string {
	return keyPrefix + projectID.String()
}

func objectField(objectID uuid.UUID) string {
	if objectID == uuid.Nil {
		return allField
	}
	return objectID.String()
}

// GetSummaries returns the cached list; ok is false on a miss.
func (c *SummaryCache) GetSummaries(ctx context.Context, projectID, objectID uuid.UUID) ([]models.LoggerDataSummary, bool, error) {
	data, err := c.client.HGet(ctx, projectKey(projectID), objectField(objectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis hget: %w", err)
	}

	var summaries []models.LoggerDataSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, false, fmt.Errorf("decode cached summaries: %w", err)
	}
	return summaries, true, nil
}

// SetSummaries stores a list and refreshes the project hash expiry.
func (c *SummaryCache) SetSummaries(ctx context.Context, projectID, objectID uuid.UUID, summaries []models.LoggerDataSummary) error {
	if summaries == nil {
		summaries = []models.LoggerDataSummary{}
	}
	data, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}

	key := projectKey(projectID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, objectField(objectID), data)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// InvalidateProject drops every cached list of the project.
func (c *SummaryCache) InvalidateProject(ctx context.Context, projectID uuid.UUID) error {
	if err := c.client.Del(ctx, projectKey(projectID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/efootball-cup/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultBracketTTL = 60 * time.Second

// BracketCache holds rendered bracket views keyed by tournament.
type BracketCache interface {
	Get(ctx context.Context, tournamentID uuid.UUID) (*models.Bracket, bool)
	Set(ctx context.Context, tournamentID uuid.UUID, bracket *models.Bracket)
	Invalidate(ctx context.Context, tournamentID uuid.UUID)
}

type redisBracketCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBracketCache connects to redisURL and verifies the connection.
func NewRedisBracketCache(ctx context.Context, redisURL string, ttl time.Duration) (BracketCache, *redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultBracketTTL
	}
	return &redisBracketCache{client: client, ttl: ttl}, client, nil
}

func bracketKey(tournamentID uuid.UUID) string {
	return "bracket:" + tournamentID.String()
}

// Cache failures only cost a database round trip, so they are swallowed.
func (c *redisBracketCache) Get(ctx context.Context, tournamentID uuid.UUID) (*models.Bracket, bool) {
	data, err := c.client.Get(ctx, bracketKey(tournamentID)).Bytes()
	if err != nil {
		return nil, false
	}
	var bracket models.Bracket
	if err := json.Unmarshal(data, &bracket); err != nil {
		return nil, false
	}
	return &bracket, true
}

func (c *redisBracketCache) Set(ctx context.Context, tournamentID uuid.UUID, bracket *models.Bracket) {
	data, err := json.Marshal(bracket)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, bracketKey(tournamentID), data, c.ttl).Err()
}

func (c *redisBracketCache) Invalidate(ctx context.Context, tournamentID uuid.UUID) {
	_ = c.client.Del(ctx, bracketKey(tournamentID)).Err()
}

type noopBracketCache struct{}

// NewNoopBracketCache is used when Redis is not configured.
func NewNoopBracketCache() BracketCache {
	return noopBracketCache{}
}

func (noopBracketCache) Get(context.Context, uuid.UUID) (*models.Bracket, bool) { return nil, false }
func (noopBracketCache) Set(context.Context, uuid.UUID, *models.Bracket)        {}
func (noopBracketCache) Invalidate(context.Context, uuid.UUID)                  {}

package players

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wanderstone/xiuxian-bot/internal/domain/world"
)

const (
	playerKeyPrefix = "player:"

	// Players stick around; refresh on every write
	playerTTL = 30 * 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client    redis.UniversalClient
	PlayerTTL time.Duration
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client    redis.UniversalClient
	playerTTL time.Duration
}

// NewRedisRepository creates a new Redis-backed player repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.PlayerTTL
	if ttl == 0 {
		ttl = playerTTL
	}

	return &redisRepository{
		client:    cfg.Client,
		playerTTL: ttl,
	}
}

// Create stores a new player
func (r *redisRepository) Create(ctx context.Context, player *world.Player) error {
	if player == nil {
		return fmt.Errorf("player cannot be nil")
	}
	if player.ID == "" {
		return fmt.Errorf("player ID cannot be empty")
	}

	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to serialize player: %w", err)
	}

	key := playerKeyPrefix + player.ID
	ok, err := r.client.SetNX(ctx, key, data, r.playerTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	if !ok {
		return fmt.Errorf("player with ID %s already exists", player.ID)
	}

	return nil
}

// Get retrieves a player by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*world.Player, error) {
	if id == "" {
		return nil, fmt.Errorf("player ID cannot be empty")
	}

	data, err := r.client.Get(ctx, playerKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("player not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	var player world.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, fmt.Errorf("failed to deserialize player: %w", err)
	}

	return &player, nil
}

// Update persists changed player attributes
func (r *redisRepository) Update(ctx context.Context, player *world.Player) error {
	if player == nil {
		return fmt.Errorf("player cannot be nil")
	}
	if player.ID == "" {
		return fmt.Errorf("player ID cannot be empty")
	}

	player.UpdatedAt = time.Now()

	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to serialize player: %w", err)
	}

	if err := r.client.Set(ctx, playerKeyPrefix+player.ID, data, r.playerTTL).Err(); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

// Delete removes a player
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("player ID cannot be empty")
	}

	deleted, err := r.client.Del(ctx, playerKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("player not found: %s", id)
	}

	return nil
}

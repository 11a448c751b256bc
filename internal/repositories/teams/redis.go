package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wanderstone/xiuxian-bot/internal/domain/team"
)

const (
	teamKeyPrefix  = "team:"
	playerTeamsKey = "player:%s:teams"

	// Teams are short-lived; a day covers any realistic run
	teamTTL = 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client  redis.UniversalClient
	TeamTTL time.Duration
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client  redis.UniversalClient
	teamTTL time.Duration
}

// NewRedisRepository creates a new Redis-backed team repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.TeamTTL
	if ttl == 0 {
		ttl = teamTTL
	}

	return &redisRepository{
		client:  cfg.Client,
		teamTTL: ttl,
	}
}

// Create stores a new team
func (r *redisRepository) Create(ctx context.Context, t *team.Team) error {
	if t == nil {
		return fmt.Errorf("team cannot be nil")
	}
	if t.ID == "" {
		return fmt.Errorf("team ID cannot be empty")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to serialize team: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, teamKeyPrefix+t.ID, data, r.teamTTL)
	for playerID := range t.Members {
		pipe.SAdd(ctx, fmt.Sprintf(playerTeamsKey, playerID), t.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	return nil
}

// Get retrieves a team by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*team.Team, error) {
	if id == "" {
		return nil, fmt.Errorf("team ID cannot be empty")
	}

	data, err := r.client.Get(ctx, teamKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("team not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	var t team.Team
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to deserialize team: %w", err)
	}

	return &t, nil
}

// Update persists team changes, keeping the player index in step with
// membership churn.
func (r *redisRepository) Update(ctx context.Context, t *team.Team) error {
	if t == nil {
		return fmt.Errorf("team cannot be nil")
	}
	if t.ID == "" {
		return fmt.Errorf("team ID cannot be empty")
	}

	existing, err := r.Get(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("team not found: %s", t.ID)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to serialize team: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, teamKeyPrefix+t.ID, data, r.teamTTL)

	for playerID := range t.Members {
		if !existing.HasMember(playerID) {
			pipe.SAdd(ctx, fmt.Sprintf(playerTeamsKey, playerID), t.ID)
		}
	}
	for playerID := range existing.Members {
		if !t.HasMember(playerID) {
			pipe.SRem(ctx, fmt.Sprintf(playerTeamsKey, playerID), t.ID)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}

	return nil
}

// Delete removes a team
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	t, err := r.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("team not found: %s", id)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, teamKeyPrefix+id)
	for playerID := range t.Members {
		pipe.SRem(ctx, fmt.Sprintf(playerTeamsKey, playerID), id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return nil
}

// GetByPlayer retrieves all teams a player is invited to or joined
func (r *redisRepository) GetByPlayer(ctx context.Context, playerID string) ([]*team.Team, error) {
	if playerID == "" {
		return nil, fmt.Errorf("player ID cannot be empty")
	}

	teamIDs, err := r.client.SMembers(ctx, fmt.Sprintf(playerTeamsKey, playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get teams for player: %w", err)
	}

	result := make([]*team.Team, len(teamIDs))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range teamIDs {
		i, id := i, id
		g.Go(func() error {
			t, err := r.Get(ctx, id)
			if err != nil {
				// Index entry can outlive the team; skip stale entries
				return nil
			}
			result[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	teams := make([]*team.Team, 0, len(result))
	for _, t := range result {
		if t != nil {
			teams = append(teams, t)
		}
	}

	return teams, nil
}

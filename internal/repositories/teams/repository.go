package teams

//go:generate mockgen -destination=mock/mock_repository.go -package=mockteams -source=repository.go

import (
	"context"

	"github.com/wanderstone/xiuxian-bot/internal/domain/team"
)

// Repository defines the interface for exploration team storage
type Repository interface {
	// Create stores a new team
	Create(ctx context.Context, t *team.Team) error

	// Get retrieves a team by ID
	Get(ctx context.Context, id string) (*team.Team, error)

	// Update persists team changes
	Update(ctx context.Context, t *team.Team) error

	// Delete removes a team
	Delete(ctx context.Context, id string) error

	// GetByPlayer retrieves all teams a player is invited to or joined
	GetByPlayer(ctx context.Context, playerID string) ([]*team.Team, error)
}

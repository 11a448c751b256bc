package players

//go:generate mockgen -destination=mock/mock_repository.go -package=mockplayers -source=repository.go

import (
	"context"

	"github.com/wanderstone/xiuxian-bot/internal/domain/world"
)

// Repository defines the interface for player attribute storage. The
// exploration coordinator computes clamped attribute values; the repository
// only persists whole players.
type Repository interface {
	// Create stores a new player
	Create(ctx context.Context, player *world.Player) error

	// Get retrieves a player by ID
	Get(ctx context.Context, id string) (*world.Player, error)

	// Update persists changed player attributes
	Update(ctx context.Context, player *world.Player) error

	// Delete removes a player
	Delete(ctx context.Context, id string) error
}

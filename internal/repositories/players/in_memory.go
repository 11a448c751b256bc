package players

import (
	"context"
	"fmt"
	"sync"

	"github.com/wanderstone/xiuxian-bot/internal/domain/world"
)

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu      sync.RWMutex
	players map[string]*world.Player
}

// NewInMemoryRepository creates a new in-memory player repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		players: make(map[string]*world.Player),
	}
}

// Create stores a new player
func (r *inMemoryRepository) Create(ctx context.Context, player *world.Player) error {
	if player == nil {
		return fmt.Errorf("player cannot be nil")
	}
	if player.ID == "" {
		return fmt.Errorf("player ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[player.ID]; exists {
		return fmt.Errorf("player with ID %s already exists", player.ID)
	}

	// Store a copy to avoid external modifications
	playerCopy := *player
	r.players[player.ID] = &playerCopy

	return nil
}

// Get retrieves a player by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*world.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	player, exists := r.players[id]
	if !exists {
		return nil, fmt.Errorf("player not found: %s", id)
	}

	playerCopy := *player
	return &playerCopy, nil
}

// Update persists changed player attributes
func (r *inMemoryRepository) Update(ctx context.Context, player *world.Player) error {
	if player == nil {
		return fmt.Errorf("player cannot be nil")
	}
	if player.ID == "" {
		return fmt.Errorf("player ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[player.ID]; !exists {
		return fmt.Errorf("player not found: %s", player.ID)
	}

	playerCopy := *player
	r.players[player.ID] = &playerCopy

	return nil
}

// Delete removes a player
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[id]; !exists {
		return fmt.Errorf("player not found: %s", id)
	}

	delete(r.players, id)
	return nil
}

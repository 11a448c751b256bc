package teams

import (
	"context"
	"fmt"
	"sync"

	"github.com/wanderstone/xiuxian-bot/internal/domain/team"
)

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu    sync.RWMutex
	teams map[string]*team.Team
}

// NewInMemoryRepository creates a new in-memory team repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		teams: make(map[string]*team.Team),
	}
}

// Create stores a new team
func (r *inMemoryRepository) Create(ctx context.Context, t *team.Team) error {
	if t == nil {
		return fmt.Errorf("team cannot be nil")
	}
	if t.ID == "" {
		return fmt.Errorf("team ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[t.ID]; exists {
		return fmt.Errorf("team with ID %s already exists", t.ID)
	}

	r.teams[t.ID] = copyTeam(t)
	return nil
}

// Get retrieves a team by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.teams[id]
	if !exists {
		return nil, fmt.Errorf("team not found: %s", id)
	}

	return copyTeam(t), nil
}

// Update persists team changes
func (r *inMemoryRepository) Update(ctx context.Context, t *team.Team) error {
	if t == nil {
		return fmt.Errorf("team cannot be nil")
	}
	if t.ID == "" {
		return fmt.Errorf("team ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[t.ID]; !exists {
		return fmt.Errorf("team not found: %s", t.ID)
	}

	r.teams[t.ID] = copyTeam(t)
	return nil
}

// Delete removes a team
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[id]; !exists {
		return fmt.Errorf("team not found: %s", id)
	}

	delete(r.teams, id)
	return nil
}

// GetByPlayer retrieves all teams a player is invited to or joined
func (r *inMemoryRepository) GetByPlayer(ctx context.Context, playerID string) ([]*team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*team.Team
	for _, t := range r.teams {
		if t.HasMember(playerID) {
			result = append(result, copyTeam(t))
		}
	}

	return result, nil
}

// copyTeam deep-copies a team including its member map
func copyTeam(t *team.Team) *team.Team {
	teamCopy := *t
	teamCopy.Members = make(map[string]*team.Member, len(t.Members))
	for id, m := range t.Members {
		memberCopy := *m
		teamCopy.Members[id] = &memberCopy
	}
	return &teamCopy
}

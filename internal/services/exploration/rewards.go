package exploration

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/wanderstone/xiuxian-bot/internal/domain/exploration"
	"github.com/wanderstone/xiuxian-bot/internal/domain/world"
	"github.com/wanderstone/xiuxian-bot/internal/repositories/players"
)

// RewardApplier fans a resolution result out to every participant. The
// fan-out is best effort: one member's failed write never blocks the rest,
// failures are logged and the round proceeds.
type RewardApplier struct {
	playerRepo players.Repository
}

// NewRewardApplier creates a new reward applier
func NewRewardApplier(repo players.Repository) *RewardApplier {
	if repo == nil {
		panic("player repository is required")
	}
	return &RewardApplier{playerRepo: repo}
}

// Apply writes the result's deltas to each player. Resources clamp at zero,
// damage never drops a player below 1 HP.
func (a *RewardApplier) Apply(ctx context.Context, playerIDs []string, result *exploration.ResolutionResult) {
	if result == nil {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range playerIDs {
		id := id
		g.Go(func() error {
			if err := a.applyOne(ctx, id, result); err != nil {
				log.Printf("Failed to apply rewards to player %s: %v", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (a *RewardApplier) applyOne(ctx context.Context, playerID string, result *exploration.ResolutionResult) error {
	player, err := a.playerRepo.Get(ctx, playerID)
	if err != nil {
		return err
	}

	player.SpiritStone = max(0, player.SpiritStone+result.Rewards.SpiritStoneDelta)
	player.Cultivation = max(0, player.Cultivation+result.Rewards.CultivationDelta)
	if result.Damage > 0 {
		// Exploration never kills; it leaves you at death's door at worst
		player.HP = max(1, player.HP-result.Damage)
	}

	return a.playerRepo.Update(ctx, player)
}

// EnsurePlayer fetches the player, creating a fresh character on first
// contact.
func (a *RewardApplier) EnsurePlayer(ctx context.Context, playerID, name string) (*world.Player, error) {
	player, err := a.playerRepo.Get(ctx, playerID)
	if err == nil {
		return player, nil
	}

	fresh := world.NewPlayer(playerID, name)
	if createErr := a.playerRepo.Create(ctx, fresh); createErr != nil {
		// Lost a race with a concurrent create; read whoever won
		return a.playerRepo.Get(ctx, playerID)
	}
	return fresh, nil
}

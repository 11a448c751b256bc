package services

import (
	"github.com/wanderstone/xiuxian-bot/internal/config"
	"github.com/wanderstone/xiuxian-bot/internal/repositories/players"
	"github.com/wanderstone/xiuxian-bot/internal/repositories/teams"
	explorationService "github.com/wanderstone/xiuxian-bot/internal/services/exploration"
	teamService "github.com/wanderstone/xiuxian-bot/internal/services/team"
	worldService "github.com/wanderstone/xiuxian-bot/internal/services/world"
)

// Provider holds all service instances
type Provider struct {
	WorldService       worldService.Service
	TeamService        teamService.Service
	ExplorationService explorationService.Service
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Exploration      config.ExplorationConfig
	PlayerRepository players.Repository
	TeamRepository   teams.Repository
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	// Use in-memory repositories if none provided
	playerRepo := cfg.PlayerRepository
	if playerRepo == nil {
		playerRepo = players.NewInMemoryRepository()
	}

	teamRepo := cfg.TeamRepository
	if teamRepo == nil {
		teamRepo = teams.NewInMemoryRepository()
	}

	worldSvc := worldService.NewService(&worldService.ServiceConfig{
		MoveCooldown: cfg.Exploration.MoveCooldown,
	})

	teamSvc := teamService.NewService(&teamService.ServiceConfig{
		TeamRepository: teamRepo,
	})

	explorationSvc := explorationService.NewService(&explorationService.ServiceConfig{
		Store: explorationService.NewSessionStore(&explorationService.SessionStoreConfig{
			IdleTimeout: cfg.Exploration.IdleTimeout,
		}),
		WorldService:     worldSvc,
		TeamService:      teamSvc,
		PlayerRepository: playerRepo,
		MaxRounds:        cfg.Exploration.MaxRounds,
	})

	return &Provider{
		WorldService:       worldSvc,
		TeamService:        teamSvc,
		ExplorationService: explorationSvc,
	}
}

package world

import "time"

// Location is one node of the world graph
type Location struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	DangerLevel         int    `json:"danger_level"`          // 1-10
	SpiritEnergyDensity int    `json:"spirit_energy_density"` // percent
	RegionType          string `json:"region_type"`
	Connected           []int  `json:"connected"` // reachable location IDs
}

// PlayerPosition tracks where a player currently is in the world
type PlayerPosition struct {
	PlayerID          string    `json:"player_id"`
	CurrentLocationID int       `json:"current_location_id"`
	LastMoveTime      time.Time `json:"last_move_time"`
	TotalMoves        int       `json:"total_moves"`
}

package world

import "time"

// Player holds the attributes the exploration system reads and writes.
// SpiritStone and Cultivation never go below zero, HP never below one;
// the reward applier clamps before the repository persists.
type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Realm       string    `json:"realm"`
	SpiritStone int       `json:"spirit_stone"`
	Cultivation int       `json:"cultivation"`
	HP          int       `json:"hp"`
	MaxHP       int       `json:"max_hp"`
	Luck        int       `json:"luck"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewPlayer creates a starting player
func NewPlayer(id, name string) *Player {
	now := time.Now()
	return &Player{
		ID:        id,
		Name:      name,
		Realm:     "炼气期",
		HP:        100,
		MaxHP:     100,
		Luck:      5,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

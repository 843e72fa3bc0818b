package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus mirrors the ENUM 'game_status' in the database.
type GameStatus string

const (
	GameStatusPlaying   GameStatus = "playing"
	GameStatusCompleted GameStatus = "completed"
	GameStatusGameOver  GameStatus = "game_over"
)

// World identifiers. The world selects the stat-mapping rules, the starting
// kits and the fallback story content.
const (
	WorldDimensionalRift = "dimensional_rift"
	WorldCyberpunk       = "cyberpunk_2187"
	DefaultWorldID       = WorldDimensionalRift
)

// GameState is the per-character singleton tracking narrative progress.
// CurrentStage starts at 0 and advances by exactly 1 per accepted story
// event. WaitingForAPI is true only while a generation call is in flight.
type GameState struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	CharacterID   uuid.UUID  `json:"characterId" db:"character_id"`
	CurrentStage  int        `json:"currentStage" db:"current_stage"`
	GameStatus    GameStatus `json:"gameStatus" db:"game_status"`
	WaitingForAPI bool       `json:"waitingForApi" db:"waiting_for_api"`
	WorldID       string     `json:"worldId" db:"world_id"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

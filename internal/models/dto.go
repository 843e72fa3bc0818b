package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GenerateStoryRequest carries one progression turn. For guest users the
// Guest block supplies the character shape, since nothing is stored.
type GenerateStoryRequest struct {
	CharacterID  uuid.UUID          `json:"characterId"`
	Choice       string             `json:"choice"`
	WorldID      string             `json:"worldId,omitempty"`
	WorldContext *WorldContext      `json:"worldContext,omitempty"`
	AuxContext   *NarrativeContext  `json:"auxContext,omitempty"`
	Guest        *GuestCharacterSpec `json:"guest,omitempty"`
}

// WorldContext is the nested world selector some clients send instead of the
// top-level worldId. Resolution order: request worldId, then this, then the
// stored game state, then the default world.
type WorldContext struct {
	WorldID string `json:"worldId"`
}

// NarrativeContext is auxiliary story memory passed through to the generation
// capability opaquely. The service never interprets it.
type NarrativeContext struct {
	Memories           json.RawMessage `json:"memories,omitempty"`
	NPCRelationships   json.RawMessage `json:"npcRelationships,omitempty"`
	FactionReputations json.RawMessage `json:"factionReputations,omitempty"`
	SideQuests         json.RawMessage `json:"sideQuests,omitempty"`
}

// GuestCharacterSpec shapes the ephemeral guest character.
type GuestCharacterSpec struct {
	Name  string         `json:"name"`
	Job   string         `json:"job"`
	Stats map[string]any `json:"stats,omitempty"`
}

// CreateCharacterRequest shapes a new persisted character. Stats are the
// loosely-typed world-specific attributes; the world's preset resolver maps
// them onto the canonical stat set.
type CreateCharacterRequest struct {
	Name    string         `json:"name" binding:"required"`
	Job     string         `json:"job" binding:"required"`
	WorldID string         `json:"worldId,omitempty"`
	Stats   map[string]any `json:"stats,omitempty"`
}

// Credentials is the register/login payload.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"userId"`
}

// StoryGenerationResult is returned by a successful progression turn.
// Character is present only when the generated event carried a change delta.
type StoryGenerationResult struct {
	StoryEvent   *StoryEvent `json:"storyEvent"`
	Character    *Character  `json:"character,omitempty"`
	CurrentStage int         `json:"currentStage"`
}

// SaveGameStateRequest is the caller-supplied snapshot for SaveGameState.
// Missing fields fall back to playing / false / default world; stage and
// status are trusted as-is.
type SaveGameStateRequest struct {
	CurrentStage  int         `json:"currentStage"`
	GameStatus    *GameStatus `json:"gameStatus,omitempty"`
	WaitingForAPI *bool       `json:"waitingForApi,omitempty"`
	WorldID       string      `json:"worldId,omitempty"`
}

// SavedState acknowledges a SaveGameState call. Guest saves are acknowledged
// without touching storage.
type SavedState struct {
	CharacterID  uuid.UUID  `json:"characterId"`
	CurrentStage int        `json:"currentStage"`
	GameStatus   GameStatus `json:"gameStatus"`
	WorldID      string     `json:"worldId"`
	Persisted    bool       `json:"persisted"`
	SavedAt      time.Time  `json:"savedAt"`
}

// LoadedState is the full resumable view of a character's game.
type LoadedState struct {
	Character     *Character   `json:"character"`
	CurrentStage  int          `json:"currentStage"`
	GameStatus    GameStatus   `json:"gameStatus"`
	WaitingForAPI bool         `json:"waitingForApi"`
	StoryHistory  []StoryEvent `json:"storyHistory"`
	CurrentEvent  *StoryEvent  `json:"currentEvent,omitempty"`
	WorldID       string       `json:"worldId"`
}

// SubmitChoiceResult acknowledges a choice submission.
type SubmitChoiceResult struct {
	StoryEventID uuid.UUID `json:"storyEventId"`
	ChoiceID     string    `json:"choiceId"`
	Persisted    bool      `json:"persisted"`
}

// ClientUpdate is the payload published to the notification queue after a
// progression turn settles, so interactive clients can refresh without
// polling.
type ClientUpdate struct {
	CharacterID  string `json:"characterId"`
	UserID       string `json:"userId"`
	UpdateType   string `json:"updateType"`
	CurrentStage int    `json:"currentStage,omitempty"`
	Status       string `json:"status"`
	ErrorDetails string `json:"errorDetails,omitempty"`
}

const (
	UpdateTypeStoryEvent = "story_event"
	UpdateTypeGameState  = "game_state"

	UpdateStatusReady = "ready"
	UpdateStatusError = "error"
)

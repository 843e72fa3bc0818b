package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryEventType mirrors the ENUM 'story_event_type' in the database.
type StoryEventType string

const (
	EventTypeNarrative StoryEventType = "narrative"
	EventTypeCombat    StoryEventType = "combat"
	EventTypeTreasure  StoryEventType = "treasure"
	EventTypeShop      StoryEventType = "shop"
	EventTypeRest      StoryEventType = "rest"
)

// StoryChoice is one selectable option offered by a story event.
type StoryChoice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// StoryEvent is one generated stage of the narrative. Events are append-only
// and ordered by creation time; SelectedChoice is set exactly once when the
// player submits a choice.
type StoryEvent struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	GameStateID    uuid.UUID      `json:"gameStateId" db:"game_state_id"`
	StageNumber    int            `json:"stageNumber" db:"stage_number"`
	Content        string         `json:"content" db:"content"`
	Choices        []StoryChoice  `json:"choices" db:"choices"`
	EventType      StoryEventType `json:"eventType" db:"event_type"`
	EnemyID        *string        `json:"enemyId,omitempty" db:"enemy_id"`
	Result         *string        `json:"result,omitempty" db:"result"`
	SelectedChoice *string        `json:"selectedChoice,omitempty" db:"selected_choice"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

// ChoiceByID returns the event's own choice with the given id, or nil.
func (e *StoryEvent) ChoiceByID(id string) *StoryChoice {
	for i := range e.Choices {
		if e.Choices[i].ID == id {
			return &e.Choices[i]
		}
	}
	return nil
}

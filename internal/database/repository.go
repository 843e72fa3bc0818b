package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rpg-server/internal/models"
)

// CharacterRepository manages character records and their owned collections.
type CharacterRepository interface {
	Create(ctx context.Context, querier DBTX, ch *models.Character) error
	// GetByIDAndUser loads the base character record scoped to its owner.
	// The compound (id, userID) lookup is the ownership check; a mismatch is
	// indistinguishable from absence and returns models.ErrNotFound.
	GetByIDAndUser(ctx context.Context, querier DBTX, id, userID uuid.UUID) (*models.Character, error)
	UpdateStats(ctx context.Context, querier DBTX, ch *models.Character) error
	ListItems(ctx context.Context, querier DBTX, characterID uuid.UUID) ([]models.Item, error)
	ListSkills(ctx context.Context, querier DBTX, characterID uuid.UUID) ([]models.Skill, error)
	AddItems(ctx context.Context, querier DBTX, items []models.Item) error
	AddSkills(ctx context.Context, querier DBTX, skills []models.Skill) error
}

// GameStateRepository manages the per-character singleton game state.
type GameStateRepository interface {
	Create(ctx context.Context, querier DBTX, gs *models.GameState) error
	GetByCharacterID(ctx context.Context, querier DBTX, characterID uuid.UUID) (*models.GameState, error)
	// Upsert writes the singleton keyed by character id.
	Upsert(ctx context.Context, querier DBTX, gs *models.GameState) error
	// SetWaiting flips only the waiting_for_api flag.
	SetWaiting(ctx context.Context, querier DBTX, id uuid.UUID, waiting bool) error
	// AdvanceStage sets the new stage and clears waiting_for_api in the same
	// update, so a committed event can never leave the flag stuck.
	AdvanceStage(ctx context.Context, querier DBTX, id uuid.UUID, newStage int) error
	// MarkStaleWaiting clears waiting_for_api on states stuck longer than the
	// threshold and returns how many were cleared.
	MarkStaleWaiting(ctx context.Context, querier DBTX, threshold time.Duration) (int64, error)
}

// StoryEventRepository manages the append-only story history.
type StoryEventRepository interface {
	Create(ctx context.Context, querier DBTX, ev *models.StoryEvent) error
	// ListByGameState returns the full history ordered by creation time.
	ListByGameState(ctx context.Context, querier DBTX, gameStateID uuid.UUID) ([]models.StoryEvent, error)
	// GetByIDAndUser loads an event scoped to the owning user via its game
	// state's character.
	GetByIDAndUser(ctx context.Context, querier DBTX, id, userID uuid.UUID) (*models.StoryEvent, error)
	SetSelectedChoice(ctx context.Context, querier DBTX, id uuid.UUID, choiceID string) error
}

// UserRepository manages account records for the thin auth layer.
type UserRepository interface {
	Create(ctx context.Context, querier DBTX, u *models.User) error
	GetByUsername(ctx context.Context, querier DBTX, username string) (*models.User, error)
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.User, error)
}

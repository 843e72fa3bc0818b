package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"rpg-server/internal/database"
	"rpg-server/internal/models"
)

// Mock CharacterRepository
type CharacterRepository struct {
	mock.Mock
}

func (m *CharacterRepository) Create(ctx context.Context, querier database.DBTX, ch *models.Character) error {
	args := m.Called(ctx, querier, ch)
	return args.Error(0)
}
func (m *CharacterRepository) GetByIDAndUser(ctx context.Context, querier database.DBTX, id, userID uuid.UUID) (*models.Character, error) {
	args := m.Called(ctx, querier, id, userID)
	ch, _ := args.Get(0).(*models.Character)
	return ch, args.Error(1)
}
func (m *CharacterRepository) UpdateStats(ctx context.Context, querier database.DBTX, ch *models.Character) error {
	args := m.Called(ctx, querier, ch)
	return args.Error(0)
}
func (m *CharacterRepository) ListItems(ctx context.Context, querier database.DBTX, characterID uuid.UUID) ([]models.Item, error) {
	args := m.Called(ctx, querier, characterID)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}
func (m *CharacterRepository) ListSkills(ctx context.Context, querier database.DBTX, characterID uuid.UUID) ([]models.Skill, error) {
	args := m.Called(ctx, querier, characterID)
	skills, _ := args.Get(0).([]models.Skill)
	return skills, args.Error(1)
}
func (m *CharacterRepository) AddItems(ctx context.Context, querier database.DBTX, items []models.Item) error {
	args := m.Called(ctx, querier, items)
	return args.Error(0)
}
func (m *CharacterRepository) AddSkills(ctx context.Context, querier database.DBTX, skills []models.Skill) error {
	args := m.Called(ctx, querier, skills)
	return args.Error(0)
}

// Mock GameStateRepository
type GameStateRepository struct {
	mock.Mock
}

func (m *GameStateRepository) Create(ctx context.Context, querier database.DBTX, gs *models.GameState) error {
	args := m.Called(ctx, querier, gs)
	return args.Error(0)
}
func (m *GameStateRepository) GetByCharacterID(ctx context.Context, querier database.DBTX, characterID uuid.UUID) (*models.GameState, error) {
	args := m.Called(ctx, querier, characterID)
	gs, _ := args.Get(0).(*models.GameState)
	return gs, args.Error(1)
}
func (m *GameStateRepository) Upsert(ctx context.Context, querier database.DBTX, gs *models.GameState) error {
	args := m.Called(ctx, querier, gs)
	return args.Error(0)
}
func (m *GameStateRepository) SetWaiting(ctx context.Context, querier database.DBTX, id uuid.UUID, waiting bool) error {
	args := m.Called(ctx, querier, id, waiting)
	return args.Error(0)
}
func (m *GameStateRepository) AdvanceStage(ctx context.Context, querier database.DBTX, id uuid.UUID, newStage int) error {
	args := m.Called(ctx, querier, id, newStage)
	return args.Error(0)
}
func (m *GameStateRepository) MarkStaleWaiting(ctx context.Context, querier database.DBTX, threshold time.Duration) (int64, error) {
	args := m.Called(ctx, querier, threshold)
	return args.Get(0).(int64), args.Error(1)
}

// Mock StoryEventRepository
type StoryEventRepository struct {
	mock.Mock
}

func (m *StoryEventRepository) Create(ctx context.Context, querier database.DBTX, ev *models.StoryEvent) error {
	args := m.Called(ctx, querier, ev)
	return args.Error(0)
}
func (m *StoryEventRepository) ListByGameState(ctx context.Context, querier database.DBTX, gameStateID uuid.UUID) ([]models.StoryEvent, error) {
	args := m.Called(ctx, querier, gameStateID)
	events, _ := args.Get(0).([]models.StoryEvent)
	return events, args.Error(1)
}
func (m *StoryEventRepository) GetByIDAndUser(ctx context.Context, querier database.DBTX, id, userID uuid.UUID) (*models.StoryEvent, error) {
	args := m.Called(ctx, querier, id, userID)
	ev, _ := args.Get(0).(*models.StoryEvent)
	return ev, args.Error(1)
}
func (m *StoryEventRepository) SetSelectedChoice(ctx context.Context, querier database.DBTX, id uuid.UUID, choiceID string) error {
	args := m.Called(ctx, querier, id, choiceID)
	return args.Error(0)
}

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, querier database.DBTX, u *models.User) error {
	args := m.Called(ctx, querier, u)
	return args.Error(0)
}
func (m *UserRepository) GetByUsername(ctx context.Context, querier database.DBTX, username string) (*models.User, error) {
	args := m.Called(ctx, querier, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetByID(ctx context.Context, querier database.DBTX, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, querier, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

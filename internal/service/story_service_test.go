package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rpg-server/internal/ai"
	aimocks "rpg-server/internal/ai/mocks"
	dbmocks "rpg-server/internal/database/mocks"
	lockmocks "rpg-server/internal/lock/mocks"
	msgmocks "rpg-server/internal/messaging/mocks"
	"rpg-server/internal/models"
)

type storyServiceFixture struct {
	charRepo  *dbmocks.CharacterRepository
	stateRepo *dbmocks.GameStateRepository
	eventRepo *dbmocks.StoryEventRepository
	generator *aimocks.StoryGenerator
	genLock   *lockmocks.GenerationLock
	publisher *msgmocks.ClientUpdatePublisher
	svc       StoryService
}

func newStoryServiceFixture() *storyServiceFixture {
	f := &storyServiceFixture{
		charRepo:  new(dbmocks.CharacterRepository),
		stateRepo: new(dbmocks.GameStateRepository),
		eventRepo: new(dbmocks.StoryEventRepository),
		generator: new(aimocks.StoryGenerator),
		genLock:   new(lockmocks.GenerationLock),
		publisher: new(msgmocks.ClientUpdatePublisher),
	}
	f.svc = NewStoryService(
		nil, f.charRepo, f.stateRepo, f.eventRepo,
		f.generator, f.genLock, f.publisher,
		NewGuestSessionAdapter(zap.NewNop()), zap.NewNop())
	return f
}

func (f *storyServiceFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.charRepo.AssertExpectations(t)
	f.stateRepo.AssertExpectations(t)
	f.eventRepo.AssertExpectations(t)
	f.generator.AssertExpectations(t)
	f.genLock.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func testCharacter(userID uuid.UUID) *models.Character {
	return &models.Character{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         "아린",
		Job:          "⚔️ 전사",
		Level:        1,
		Health:       100,
		MaxHealth:    100,
		Mana:         50,
		MaxMana:      50,
		Strength:     10,
		Intelligence: 10,
		Dexterity:    10,
		Constitution: 10,
	}
}

func testGameState(characterID uuid.UUID, stage int) *models.GameState {
	return &models.GameState{
		ID:           uuid.New(),
		CharacterID:  characterID,
		CurrentStage: stage,
		GameStatus:   models.GameStatusPlaying,
		WorldID:      models.WorldDimensionalRift,
	}
}

func generatedStory() *ai.GeneratedStory {
	return &ai.GeneratedStory{
		Content: "던전의 문이 열린다.",
		Choices: []models.StoryChoice{
			{ID: "choice_1", Text: "들어간다"},
			{ID: "choice_2", Text: "물러난다"},
		},
		EventType: models.EventTypeNarrative,
	}
}

func TestGenerateStory_Persisted(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("happy path advances the stage", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)
		gs := testGameState(ch.ID, 3)

		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.charRepo.On("ListItems", ctx, nil, ch.ID).Return([]models.Item{}, nil)
		f.charRepo.On("ListSkills", ctx, nil, ch.ID).Return([]models.Skill{}, nil)
		f.stateRepo.On("GetByCharacterID", ctx, nil, ch.ID).Return(gs, nil)
		f.genLock.On("Acquire", ctx, ch.ID).Return(true, nil)
		f.genLock.On("Release", mock.Anything, ch.ID).Return(nil)
		f.eventRepo.On("ListByGameState", ctx, nil, gs.ID).Return([]models.StoryEvent{}, nil)
		f.stateRepo.On("SetWaiting", ctx, nil, gs.ID, true).Return(nil)
		f.generator.On("Generate", ctx, mock.MatchedBy(func(in ai.GenerationInput) bool {
			return in.Stage == 3 && in.WorldID == models.WorldDimensionalRift
		})).Return(generatedStory(), nil)
		f.eventRepo.On("Create", ctx, nil, mock.MatchedBy(func(ev *models.StoryEvent) bool {
			return ev.StageNumber == 4 && ev.GameStateID == gs.ID
		})).Return(nil)
		f.stateRepo.On("AdvanceStage", ctx, nil, gs.ID, 4).Return(nil)
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.MatchedBy(func(u models.ClientUpdate) bool {
			return u.Status == models.UpdateStatusReady && u.CurrentStage == 4
		})).Return(nil)

		result, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{CharacterID: ch.ID}, userID)
		require.NoError(t, err)
		assert.Equal(t, 4, result.CurrentStage)
		assert.Equal(t, 4, result.StoryEvent.StageNumber)
		assert.Nil(t, result.Character, "no delta means no character payload")
		f.assertExpectations(t)
		// SetWaiting(false) must not fire: AdvanceStage cleared the flag.
		f.stateRepo.AssertNotCalled(t, "SetWaiting", mock.Anything, mock.Anything, gs.ID, false)
	})

	t.Run("unknown character never touches the waiting flag", func(t *testing.T) {
		f := newStoryServiceFixture()
		characterID := uuid.New()
		f.charRepo.On("GetByIDAndUser", ctx, nil, characterID, userID).Return(nil, models.ErrNotFound)

		_, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{CharacterID: characterID}, userID)
		assert.ErrorIs(t, err, models.ErrCharacterNotFound)
		f.stateRepo.AssertNotCalled(t, "SetWaiting", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("generation failure clears the flag and keeps the stage", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)
		gs := testGameState(ch.ID, 5)

		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.charRepo.On("ListItems", ctx, nil, ch.ID).Return([]models.Item{}, nil)
		f.charRepo.On("ListSkills", ctx, nil, ch.ID).Return([]models.Skill{}, nil)
		f.stateRepo.On("GetByCharacterID", ctx, nil, ch.ID).Return(gs, nil)
		f.genLock.On("Acquire", ctx, ch.ID).Return(true, nil)
		f.genLock.On("Release", mock.Anything, ch.ID).Return(nil)
		f.eventRepo.On("ListByGameState", ctx, nil, gs.ID).Return([]models.StoryEvent{}, nil)
		f.stateRepo.On("SetWaiting", ctx, nil, gs.ID, true).Return(nil)
		f.generator.On("Generate", ctx, mock.Anything).Return(nil, errors.New("provider down"))
		f.stateRepo.On("SetWaiting", mock.Anything, nil, gs.ID, false).Return(nil)
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.MatchedBy(func(u models.ClientUpdate) bool {
			return u.Status == models.UpdateStatusError
		})).Return(nil)

		_, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{CharacterID: ch.ID}, userID)
		assert.ErrorIs(t, err, models.ErrExternalService)
		f.stateRepo.AssertNotCalled(t, "AdvanceStage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("held lock rejects the turn", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)
		gs := testGameState(ch.ID, 2)

		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.charRepo.On("ListItems", ctx, nil, ch.ID).Return([]models.Item{}, nil)
		f.charRepo.On("ListSkills", ctx, nil, ch.ID).Return([]models.Skill{}, nil)
		f.stateRepo.On("GetByCharacterID", ctx, nil, ch.ID).Return(gs, nil)
		f.genLock.On("Acquire", ctx, ch.ID).Return(false, nil)

		_, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{CharacterID: ch.ID}, userID)
		assert.ErrorIs(t, err, models.ErrGenerationInProgress)
		f.stateRepo.AssertNotCalled(t, "SetWaiting", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.genLock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("delta persists the updated character", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)
		gs := testGameState(ch.ID, 0)

		exp := 250
		story := generatedStory()
		story.CharacterChanges = &models.CharacterChangeDelta{
			Experience: &exp,
			NewItems:   []string{"낡은 지도"},
		}

		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.charRepo.On("ListItems", ctx, nil, ch.ID).Return([]models.Item{}, nil)
		f.charRepo.On("ListSkills", ctx, nil, ch.ID).Return([]models.Skill{}, nil)
		f.stateRepo.On("GetByCharacterID", ctx, nil, ch.ID).Return(gs, nil)
		f.genLock.On("Acquire", ctx, ch.ID).Return(true, nil)
		f.genLock.On("Release", mock.Anything, ch.ID).Return(nil)
		f.eventRepo.On("ListByGameState", ctx, nil, gs.ID).Return([]models.StoryEvent{}, nil)
		f.stateRepo.On("SetWaiting", ctx, nil, gs.ID, true).Return(nil)
		f.generator.On("Generate", ctx, mock.Anything).Return(story, nil)
		f.charRepo.On("UpdateStats", ctx, nil, mock.MatchedBy(func(c *models.Character) bool {
			return c.Level == 3 && c.Experience == 50 && c.MaxHealth == 140
		})).Return(nil)
		f.charRepo.On("AddItems", ctx, nil, mock.MatchedBy(func(items []models.Item) bool {
			return len(items) == 1 && items[0].Name == "낡은 지도"
		})).Return(nil)
		f.eventRepo.On("Create", ctx, nil, mock.Anything).Return(nil)
		f.stateRepo.On("AdvanceStage", ctx, nil, gs.ID, 1).Return(nil)
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		result, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{CharacterID: ch.ID}, userID)
		require.NoError(t, err)
		require.NotNil(t, result.Character)
		assert.Equal(t, 3, result.Character.Level)
		f.assertExpectations(t)
	})

	t.Run("first turn creates the game state", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)

		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.charRepo.On("ListItems", ctx, nil, ch.ID).Return([]models.Item{}, nil)
		f.charRepo.On("ListSkills", ctx, nil, ch.ID).Return([]models.Skill{}, nil)
		f.stateRepo.On("GetByCharacterID", ctx, nil, ch.ID).Return(nil, models.ErrGameStateNotFound)
		f.stateRepo.On("Upsert", ctx, nil, mock.MatchedBy(func(gs *models.GameState) bool {
			return gs.CharacterID == ch.ID && gs.CurrentStage == 0 &&
				gs.WorldID == models.WorldDimensionalRift
		})).Return(nil)
		f.genLock.On("Acquire", ctx, ch.ID).Return(true, nil)
		f.genLock.On("Release", mock.Anything, ch.ID).Return(nil)
		f.eventRepo.On("ListByGameState", ctx, nil, mock.Anything).Return([]models.StoryEvent{}, nil)
		f.stateRepo.On("SetWaiting", ctx, nil, mock.Anything, true).Return(nil)
		f.generator.On("Generate", ctx, mock.Anything).Return(generatedStory(), nil)
		f.eventRepo.On("Create", ctx, nil, mock.Anything).Return(nil)
		f.stateRepo.On("AdvanceStage", ctx, nil, mock.Anything, 1).Return(nil)
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		result, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{CharacterID: ch.ID}, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.CurrentStage)
		f.assertExpectations(t)
	})
}

func TestGenerateStory_Guest(t *testing.T) {
	ctx := context.Background()

	t.Run("successful generation", func(t *testing.T) {
		f := newStoryServiceFixture()
		f.generator.On("Generate", ctx, mock.MatchedBy(func(in ai.GenerationInput) bool {
			return in.Character.ID == models.GuestCharacterID && in.Stage == 0
		})).Return(generatedStory(), nil)

		result, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{
			Guest: &models.GuestCharacterSpec{Name: "방랑자", Job: "⚔️ 전사"},
		}, models.GuestUserID)
		require.NoError(t, err)
		assert.Equal(t, 1, result.CurrentStage)
		assert.Equal(t, models.GuestGameStateID, result.StoryEvent.GameStateID)
		// Storage is never touched on the guest path.
		f.charRepo.AssertNotCalled(t, "GetByIDAndUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.stateRepo.AssertNotCalled(t, "SetWaiting", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.eventRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("generation failure serves the fallback story", func(t *testing.T) {
		f := newStoryServiceFixture()
		f.generator.On("Generate", ctx, mock.Anything).Return(nil, errors.New("provider down"))

		result, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{
			WorldID: models.WorldCyberpunk,
			Guest:   &models.GuestCharacterSpec{Name: "ghost", Job: "netrunner"},
		}, models.GuestUserID)
		require.NoError(t, err, "fallback is a success path for guests")
		assert.NotEmpty(t, result.StoryEvent.Content)
		assert.NotEmpty(t, result.StoryEvent.Choices)
		assert.Equal(t, 1, result.CurrentStage)
	})

	t.Run("delta applies to the in-memory character", func(t *testing.T) {
		f := newStoryServiceFixture()
		gold := 200
		story := generatedStory()
		story.CharacterChanges = &models.CharacterChangeDelta{Gold: &gold}
		f.generator.On("Generate", ctx, mock.Anything).Return(story, nil)

		result, err := f.svc.GenerateStory(ctx, models.GenerateStoryRequest{
			Guest: &models.GuestCharacterSpec{Name: "방랑자", Job: "⚔️ 전사"},
		}, models.GuestUserID)
		require.NoError(t, err)
		require.NotNil(t, result.Character)
		assert.Equal(t, 200, result.Character.Gold)
	})
}

func TestSaveGameState(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("guest save is an unpersisted ack", func(t *testing.T) {
		f := newStoryServiceFixture()
		saved, err := f.svc.SaveGameState(ctx, models.GuestCharacterID, models.GuestUserID,
			models.SaveGameStateRequest{CurrentStage: 7})
		require.NoError(t, err)
		assert.False(t, saved.Persisted)
		assert.Equal(t, 7, saved.CurrentStage)
		assert.Equal(t, models.GameStatusPlaying, saved.GameStatus)
		assert.Equal(t, models.DefaultWorldID, saved.WorldID)
		f.stateRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("persisted save upserts with defaults", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)
		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.stateRepo.On("Upsert", ctx, nil, mock.MatchedBy(func(gs *models.GameState) bool {
			return gs.CharacterID == ch.ID && gs.CurrentStage == 12 &&
				gs.GameStatus == models.GameStatusPlaying &&
				!gs.WaitingForAPI && gs.WorldID == models.DefaultWorldID
		})).Return(nil)

		saved, err := f.svc.SaveGameState(ctx, ch.ID, userID, models.SaveGameStateRequest{CurrentStage: 12})
		require.NoError(t, err)
		assert.True(t, saved.Persisted)
		f.assertExpectations(t)
	})

	t.Run("foreign character is not found", func(t *testing.T) {
		f := newStoryServiceFixture()
		characterID := uuid.New()
		f.charRepo.On("GetByIDAndUser", ctx, nil, characterID, userID).Return(nil, models.ErrNotFound)

		_, err := f.svc.SaveGameState(ctx, characterID, userID, models.SaveGameStateRequest{})
		assert.ErrorIs(t, err, models.ErrCharacterNotFound)
	})
}

func TestLoadGameState(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("guest load returns nothing", func(t *testing.T) {
		f := newStoryServiceFixture()
		state, err := f.svc.LoadGameState(ctx, models.GuestCharacterID, models.GuestUserID)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("persisted load returns the full view", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)
		gs := testGameState(ch.ID, 2)
		history := []models.StoryEvent{
			{ID: uuid.New(), GameStateID: gs.ID, StageNumber: 1, Content: "첫 번째"},
			{ID: uuid.New(), GameStateID: gs.ID, StageNumber: 2, Content: "두 번째"},
		}

		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.charRepo.On("ListItems", ctx, nil, ch.ID).Return([]models.Item{}, nil)
		f.charRepo.On("ListSkills", ctx, nil, ch.ID).Return([]models.Skill{}, nil)
		f.stateRepo.On("GetByCharacterID", ctx, nil, ch.ID).Return(gs, nil)
		f.eventRepo.On("ListByGameState", ctx, nil, gs.ID).Return(history, nil)

		state, err := f.svc.LoadGameState(ctx, ch.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, state.CurrentStage)
		assert.Len(t, state.StoryHistory, 2)
		require.NotNil(t, state.CurrentEvent)
		assert.Equal(t, "두 번째", state.CurrentEvent.Content)
		assert.Equal(t, models.WorldDimensionalRift, state.WorldID)

		// Loading is read-only: a second call returns the same view.
		again, err := f.svc.LoadGameState(ctx, ch.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, state.CurrentStage, again.CurrentStage)
		assert.Len(t, again.StoryHistory, 2)
	})

	t.Run("missing state is not found", func(t *testing.T) {
		f := newStoryServiceFixture()
		ch := testCharacter(userID)
		f.charRepo.On("GetByIDAndUser", ctx, nil, ch.ID, userID).Return(ch, nil)
		f.charRepo.On("ListItems", ctx, nil, ch.ID).Return([]models.Item{}, nil)
		f.charRepo.On("ListSkills", ctx, nil, ch.ID).Return([]models.Skill{}, nil)
		f.stateRepo.On("GetByCharacterID", ctx, nil, ch.ID).Return(nil, models.ErrGameStateNotFound)

		_, err := f.svc.LoadGameState(ctx, ch.ID, userID)
		assert.ErrorIs(t, err, models.ErrGameStateNotFound)
	})
}

func TestSubmitChoice(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("guest submission echoes without storage", func(t *testing.T) {
		f := newStoryServiceFixture()
		eventID := uuid.New()
		result, err := f.svc.SubmitChoice(ctx, eventID, models.GuestUserID, "choice_1")
		require.NoError(t, err)
		assert.False(t, result.Persisted)
		assert.Equal(t, "choice_1", result.ChoiceID)
		f.eventRepo.AssertNotCalled(t, "SetSelectedChoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("valid choice is recorded", func(t *testing.T) {
		f := newStoryServiceFixture()
		event := &models.StoryEvent{
			ID:      uuid.New(),
			Choices: []models.StoryChoice{{ID: "choice_1", Text: "간다"}},
		}
		f.eventRepo.On("GetByIDAndUser", ctx, nil, event.ID, userID).Return(event, nil)
		f.eventRepo.On("SetSelectedChoice", ctx, nil, event.ID, "choice_1").Return(nil)

		result, err := f.svc.SubmitChoice(ctx, event.ID, userID, "choice_1")
		require.NoError(t, err)
		assert.True(t, result.Persisted)
		f.assertExpectations(t)
	})

	t.Run("unknown choice id is rejected", func(t *testing.T) {
		f := newStoryServiceFixture()
		event := &models.StoryEvent{
			ID:      uuid.New(),
			Choices: []models.StoryChoice{{ID: "choice_1", Text: "간다"}},
		}
		f.eventRepo.On("GetByIDAndUser", ctx, nil, event.ID, userID).Return(event, nil)

		_, err := f.svc.SubmitChoice(ctx, event.ID, userID, "choice_99")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		f.eventRepo.AssertNotCalled(t, "SetSelectedChoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty choice id is rejected up front", func(t *testing.T) {
		f := newStoryServiceFixture()
		_, err := f.svc.SubmitChoice(ctx, uuid.New(), userID, "")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

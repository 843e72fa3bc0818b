package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rpg-server/internal/ai"
	"rpg-server/internal/database"
	"rpg-server/internal/game"
	"rpg-server/internal/lock"
	"rpg-server/internal/messaging"
	"rpg-server/internal/models"
	"rpg-server/internal/worlds"
)

// StoryService drives the narrative progression loop: generating the next
// story event, persisting game state snapshots, resuming saved games and
// recording the player's choices.
type StoryService interface {
	GenerateStory(ctx context.Context, req models.GenerateStoryRequest, userID uuid.UUID) (*models.StoryGenerationResult, error)
	SaveGameState(ctx context.Context, characterID, userID uuid.UUID, req models.SaveGameStateRequest) (*models.SavedState, error)
	LoadGameState(ctx context.Context, characterID, userID uuid.UUID) (*models.LoadedState, error)
	SubmitChoice(ctx context.Context, storyEventID, userID uuid.UUID, choiceID string) (*models.SubmitChoiceResult, error)
}

type storyServiceImpl struct {
	db        database.DBTX
	charRepo  database.CharacterRepository
	stateRepo database.GameStateRepository
	eventRepo database.StoryEventRepository
	generator ai.StoryGenerator
	genLock   lock.GenerationLock
	publisher messaging.ClientUpdatePublisher
	guest     *GuestSessionAdapter
	logger    *zap.Logger
}

// NewStoryService creates the progression service.
func NewStoryService(
	db database.DBTX,
	charRepo database.CharacterRepository,
	stateRepo database.GameStateRepository,
	eventRepo database.StoryEventRepository,
	generator ai.StoryGenerator,
	genLock lock.GenerationLock,
	publisher messaging.ClientUpdatePublisher,
	guest *GuestSessionAdapter,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		db:        db,
		charRepo:  charRepo,
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		generator: generator,
		genLock:   genLock,
		publisher: publisher,
		guest:     guest,
		logger:    logger.Named("StoryService"),
	}
}

// resolveWorldID applies the resolution order: explicit request field, nested
// world context, stored state, default.
func resolveWorldID(req *models.GenerateStoryRequest, stored string) string {
	if req.WorldID != "" {
		return req.WorldID
	}
	if req.WorldContext != nil && req.WorldContext.WorldID != "" {
		return req.WorldContext.WorldID
	}
	if stored != "" {
		return stored
	}
	return models.DefaultWorldID
}

func (s *storyServiceImpl) GenerateStory(ctx context.Context, req models.GenerateStoryRequest, userID uuid.UUID) (*models.StoryGenerationResult, error) {
	if models.IsGuest(userID) {
		return s.generateGuestStory(ctx, req)
	}
	return s.generatePersistedStory(ctx, req, userID)
}

// generateGuestStory runs a turn entirely in memory. A generation failure is
// absorbed by the canned fallback story; guests never see ErrExternalService.
func (s *storyServiceImpl) generateGuestStory(ctx context.Context, req models.GenerateStoryRequest) (*models.StoryGenerationResult, error) {
	worldID := resolveWorldID(&req, "")
	ch := s.guest.BuildCharacter(req.Guest, worldID)
	stage := 1

	event := &models.StoryEvent{
		ID:          uuid.New(),
		GameStateID: models.GuestGameStateID,
		StageNumber: stage,
		CreatedAt:   time.Now().UTC(),
	}

	var updated *models.Character
	story, err := s.generator.Generate(ctx, ai.GenerationInput{
		Character:  ch,
		Stage:      0,
		Choice:     req.Choice,
		WorldID:    worldID,
		AuxContext: req.AuxContext,
	})
	if err != nil {
		s.logger.Warn("Guest generation failed, serving fallback story",
			zap.String("worldID", worldID), zap.Error(err))
		fallback := worlds.FallbackFor(worldID)
		event.Content = fallback.Content
		event.Choices = fallback.Choices
		event.EventType = fallback.EventType
	} else {
		event.Content = story.Content
		event.Choices = story.Choices
		event.EventType = story.EventType
		event.EnemyID = story.EnemyID
		if story.CharacterChanges != nil {
			res := game.ApplyDelta(*ch, story.CharacterChanges)
			updated = &res.Character
		}
	}

	return &models.StoryGenerationResult{
		StoryEvent:   event,
		Character:    updated,
		CurrentStage: stage,
	}, nil
}

func (s *storyServiceImpl) generatePersistedStory(ctx context.Context, req models.GenerateStoryRequest, userID uuid.UUID) (*models.StoryGenerationResult, error) {
	log := s.logger.With(zap.Stringer("characterID", req.CharacterID), zap.Stringer("userID", userID))

	ch, err := s.loadCharacterAggregate(ctx, req.CharacterID, userID)
	if err != nil {
		return nil, err
	}

	gs, err := s.stateRepo.GetByCharacterID(ctx, s.db, req.CharacterID)
	if err != nil {
		if !errors.Is(err, models.ErrGameStateNotFound) {
			return nil, err
		}
		// First turn for this character: start at stage 0 in the resolved world.
		gs = &models.GameState{
			CharacterID:  req.CharacterID,
			CurrentStage: 0,
			GameStatus:   models.GameStatusPlaying,
			WorldID:      resolveWorldID(&req, ""),
		}
		if err := s.stateRepo.Upsert(ctx, s.db, gs); err != nil {
			return nil, err
		}
	}
	worldID := resolveWorldID(&req, gs.WorldID)

	acquired, err := s.genLock.Acquire(ctx, req.CharacterID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, models.ErrGenerationInProgress
	}
	defer func() {
		if err := s.genLock.Release(context.WithoutCancel(ctx), req.CharacterID); err != nil {
			log.Warn("Failed to release generation lock", zap.Error(err))
		}
	}()

	history, err := s.eventRepo.ListByGameState(ctx, s.db, gs.ID)
	if err != nil {
		return nil, err
	}

	if err := s.stateRepo.SetWaiting(ctx, s.db, gs.ID, true); err != nil {
		return nil, err
	}
	// Whatever happens next, the flag must not stay stuck. AdvanceStage clears
	// it on the success path; every other exit clears it here.
	waitingSet := true
	defer func() {
		if waitingSet {
			if err := s.stateRepo.SetWaiting(context.WithoutCancel(ctx), s.db, gs.ID, false); err != nil {
				log.Error("Failed to clear waiting flag after failure", zap.Error(err))
			}
		}
	}()

	story, err := s.generator.Generate(ctx, ai.GenerationInput{
		Character:  ch,
		Stage:      gs.CurrentStage,
		History:    history,
		Choice:     req.Choice,
		WorldID:    worldID,
		AuxContext: req.AuxContext,
	})
	if err != nil {
		log.Error("Story generation failed", zap.Error(err))
		s.publishUpdate(ctx, ch, gs.CurrentStage, models.UpdateStatusError, err.Error())
		return nil, fmt.Errorf("%w: %v", models.ErrExternalService, err)
	}

	newStage := gs.CurrentStage + 1
	event := &models.StoryEvent{
		ID:          uuid.New(),
		GameStateID: gs.ID,
		StageNumber: newStage,
		Content:     story.Content,
		Choices:     story.Choices,
		EventType:   story.EventType,
		EnemyID:     story.EnemyID,
		CreatedAt:   time.Now().UTC(),
	}

	var updated *models.Character
	if story.CharacterChanges != nil {
		res := game.ApplyDelta(*ch, story.CharacterChanges)
		if err := s.charRepo.UpdateStats(ctx, s.db, &res.Character); err != nil {
			return nil, err
		}
		if len(res.AddedItems) > 0 {
			if err := s.charRepo.AddItems(ctx, s.db, res.AddedItems); err != nil {
				return nil, err
			}
		}
		if len(res.AddedSkills) > 0 {
			if err := s.charRepo.AddSkills(ctx, s.db, res.AddedSkills); err != nil {
				return nil, err
			}
		}
		updated = &res.Character
		if res.LevelsGained > 0 {
			log.Info("Character leveled up",
				zap.Int("levelsGained", res.LevelsGained), zap.Int("newLevel", res.Character.Level))
		}
	}

	if err := s.eventRepo.Create(ctx, s.db, event); err != nil {
		return nil, err
	}
	if err := s.stateRepo.AdvanceStage(ctx, s.db, gs.ID, newStage); err != nil {
		return nil, err
	}
	waitingSet = false

	s.publishUpdate(ctx, ch, newStage, models.UpdateStatusReady, "")
	log.Info("Story event committed",
		zap.Int("stage", newStage), zap.String("eventType", string(event.EventType)))

	return &models.StoryGenerationResult{
		StoryEvent:   event,
		Character:    updated,
		CurrentStage: newStage,
	}, nil
}

func (s *storyServiceImpl) SaveGameState(ctx context.Context, characterID, userID uuid.UUID, req models.SaveGameStateRequest) (*models.SavedState, error) {
	status := models.GameStatusPlaying
	if req.GameStatus != nil {
		status = *req.GameStatus
	}
	worldID := req.WorldID
	if worldID == "" {
		worldID = models.DefaultWorldID
	}

	if models.IsGuest(userID) {
		// Guests get an acknowledgement; nothing is stored.
		return &models.SavedState{
			CharacterID:  characterID,
			CurrentStage: req.CurrentStage,
			GameStatus:   status,
			WorldID:      worldID,
			Persisted:    false,
			SavedAt:      time.Now().UTC(),
		}, nil
	}

	if _, err := s.charRepo.GetByIDAndUser(ctx, s.db, characterID, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrCharacterNotFound
		}
		return nil, err
	}

	waiting := false
	if req.WaitingForAPI != nil {
		waiting = *req.WaitingForAPI
	}
	gs := &models.GameState{
		CharacterID:   characterID,
		CurrentStage:  req.CurrentStage,
		GameStatus:    status,
		WaitingForAPI: waiting,
		WorldID:       worldID,
	}
	if err := s.stateRepo.Upsert(ctx, s.db, gs); err != nil {
		return nil, err
	}

	return &models.SavedState{
		CharacterID:  characterID,
		CurrentStage: gs.CurrentStage,
		GameStatus:   gs.GameStatus,
		WorldID:      gs.WorldID,
		Persisted:    true,
		SavedAt:      gs.UpdatedAt,
	}, nil
}

func (s *storyServiceImpl) LoadGameState(ctx context.Context, characterID, userID uuid.UUID) (*models.LoadedState, error) {
	if models.IsGuest(userID) {
		// Guests have nothing stored to resume.
		return nil, nil
	}

	ch, err := s.loadCharacterAggregate(ctx, characterID, userID)
	if err != nil {
		return nil, err
	}
	gs, err := s.stateRepo.GetByCharacterID(ctx, s.db, characterID)
	if err != nil {
		return nil, err
	}
	history, err := s.eventRepo.ListByGameState(ctx, s.db, gs.ID)
	if err != nil {
		return nil, err
	}

	var current *models.StoryEvent
	if len(history) > 0 {
		current = &history[len(history)-1]
	}

	return &models.LoadedState{
		Character:     ch,
		CurrentStage:  gs.CurrentStage,
		GameStatus:    gs.GameStatus,
		WaitingForAPI: gs.WaitingForAPI,
		StoryHistory:  history,
		CurrentEvent:  current,
		WorldID:       gs.WorldID,
	}, nil
}

func (s *storyServiceImpl) SubmitChoice(ctx context.Context, storyEventID, userID uuid.UUID, choiceID string) (*models.SubmitChoiceResult, error) {
	if choiceID == "" {
		return nil, fmt.Errorf("%w: empty choice id", models.ErrInvalidInput)
	}

	if models.IsGuest(userID) {
		// Echo acknowledgement; guest events are not stored.
		return &models.SubmitChoiceResult{
			StoryEventID: storyEventID,
			ChoiceID:     choiceID,
			Persisted:    false,
		}, nil
	}

	event, err := s.eventRepo.GetByIDAndUser(ctx, s.db, storyEventID, userID)
	if err != nil {
		return nil, err
	}
	if event.ChoiceByID(choiceID) == nil {
		return nil, fmt.Errorf("%w: choice %q is not offered by this event", models.ErrInvalidInput, choiceID)
	}
	if err := s.eventRepo.SetSelectedChoice(ctx, s.db, storyEventID, choiceID); err != nil {
		return nil, err
	}

	return &models.SubmitChoiceResult{
		StoryEventID: storyEventID,
		ChoiceID:     choiceID,
		Persisted:    true,
	}, nil
}

// loadCharacterAggregate loads the character with its items and skills, scoped
// to the owner.
func (s *storyServiceImpl) loadCharacterAggregate(ctx context.Context, characterID, userID uuid.UUID) (*models.Character, error) {
	ch, err := s.charRepo.GetByIDAndUser(ctx, s.db, characterID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrCharacterNotFound
		}
		return nil, err
	}
	if ch.Items, err = s.charRepo.ListItems(ctx, s.db, characterID); err != nil {
		return nil, err
	}
	if ch.Skills, err = s.charRepo.ListSkills(ctx, s.db, characterID); err != nil {
		return nil, err
	}
	return ch, nil
}

// publishUpdate notifies interactive clients about a settled turn. Best
// effort: failures are logged, never surfaced.
func (s *storyServiceImpl) publishUpdate(ctx context.Context, ch *models.Character, stage int, status, errDetails string) {
	update := models.ClientUpdate{
		CharacterID:  ch.ID.String(),
		UserID:       ch.UserID.String(),
		UpdateType:   models.UpdateTypeStoryEvent,
		CurrentStage: stage,
		Status:       status,
		ErrorDetails: errDetails,
	}
	if err := s.publisher.PublishClientUpdate(context.WithoutCancel(ctx), update); err != nil {
		s.logger.Warn("Failed to publish client update",
			zap.String("characterID", update.CharacterID), zap.Error(err))
	}
}

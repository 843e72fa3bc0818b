package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rpg-server/internal/database"
	"rpg-server/internal/game"
	"rpg-server/internal/models"
	"rpg-server/internal/worlds"
)

// CharacterService creates and loads characters. Creation writes the
// character, its starting kit and the initial game state in one transaction.
type CharacterService interface {
	CreateCharacter(ctx context.Context, userID uuid.UUID, req models.CreateCharacterRequest) (*models.Character, error)
	GetCharacter(ctx context.Context, characterID, userID uuid.UUID) (*models.Character, error)
}

type characterServiceImpl struct {
	db        database.DBTX
	tx        database.TxRunner
	charRepo  database.CharacterRepository
	stateRepo database.GameStateRepository
	guest     *GuestSessionAdapter
	logger    *zap.Logger
}

// NewCharacterService creates the character service.
func NewCharacterService(
	db database.DBTX,
	tx database.TxRunner,
	charRepo database.CharacterRepository,
	stateRepo database.GameStateRepository,
	guest *GuestSessionAdapter,
	logger *zap.Logger,
) CharacterService {
	return &characterServiceImpl{
		db:        db,
		tx:        tx,
		charRepo:  charRepo,
		stateRepo: stateRepo,
		guest:     guest,
		logger:    logger.Named("CharacterService"),
	}
}

func (s *characterServiceImpl) CreateCharacter(ctx context.Context, userID uuid.UUID, req models.CreateCharacterRequest) (*models.Character, error) {
	name := strings.TrimSpace(req.Name)
	job := strings.TrimSpace(req.Job)
	if name == "" || job == "" {
		return nil, fmt.Errorf("%w: name and job are required", models.ErrInvalidInput)
	}
	worldID := req.WorldID
	if worldID == "" {
		worldID = models.DefaultWorldID
	}

	if models.IsGuest(userID) {
		// Guest characters are built in memory, never stored.
		return s.guest.BuildCharacter(&models.GuestCharacterSpec{
			Name: name, Job: job, Stats: req.Stats,
		}, worldID), nil
	}

	stats := worlds.MapStatsToWorld(req.Stats, worldID)
	now := time.Now().UTC()
	ch := &models.Character{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		Job:          job,
		Level:        1,
		Health:       stats.Health,
		MaxHealth:    stats.Health,
		Mana:         stats.Mana,
		MaxMana:      stats.Mana,
		Strength:     stats.Strength,
		Intelligence: stats.Intelligence,
		Dexterity:    stats.Dexterity,
		Constitution: stats.Constitution,
		Gold:         0,
		Experience:   0,
		Items:        []models.Item{},
		Skills:       []models.Skill{},
	}
	for _, itemName := range worlds.StartingItems(job, worldID) {
		ch.Items = append(ch.Items, models.Item{
			ID:          uuid.New(),
			CharacterID: ch.ID,
			Name:        itemName,
			Quantity:    1,
			CreatedAt:   now,
		})
	}
	for _, skillName := range worlds.StartingSkills(job, worldID) {
		ch.Skills = append(ch.Skills, game.BuildSkill(ch.ID, models.SkillGrant{Name: skillName}))
	}

	err := s.tx.RunTx(ctx, func(q database.DBTX) error {
		if err := s.charRepo.Create(ctx, q, ch); err != nil {
			return err
		}
		if len(ch.Items) > 0 {
			if err := s.charRepo.AddItems(ctx, q, ch.Items); err != nil {
				return err
			}
		}
		if len(ch.Skills) > 0 {
			if err := s.charRepo.AddSkills(ctx, q, ch.Skills); err != nil {
				return err
			}
		}
		return s.stateRepo.Create(ctx, q, &models.GameState{
			CharacterID:  ch.ID,
			CurrentStage: 0,
			GameStatus:   models.GameStatusPlaying,
			WorldID:      worldID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}

	s.logger.Info("Character created",
		zap.Stringer("characterID", ch.ID), zap.Stringer("userID", userID),
		zap.String("job", job), zap.String("worldID", worldID),
		zap.Int("items", len(ch.Items)), zap.Int("skills", len(ch.Skills)))
	return ch, nil
}

func (s *characterServiceImpl) GetCharacter(ctx context.Context, characterID, userID uuid.UUID) (*models.Character, error) {
	if models.IsGuest(userID) {
		return nil, models.ErrCharacterNotFound
	}
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

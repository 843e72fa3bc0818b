package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rpg-server/internal/game"
	"rpg-server/internal/models"
	"rpg-server/internal/worlds"
)

// GuestSessionAdapter builds fully-shaped in-memory character and game state
// graphs for guest turns. Nothing it produces ever touches storage; identities
// are the fixed guest sentinels plus deterministic synthetic ids for owned
// records.
type GuestSessionAdapter struct {
	logger *zap.Logger
}

// NewGuestSessionAdapter creates the adapter.
func NewGuestSessionAdapter(logger *zap.Logger) *GuestSessionAdapter {
	return &GuestSessionAdapter{logger: logger.Named("GuestSessionAdapter")}
}

// guestEntityID yields the nth synthetic id under the guest namespace. Ids are
// stable across calls so a rebuilt guest character looks identical.
func guestEntityID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0001-%012x", n))
}

// BuildCharacter shapes the ephemeral guest character from the request spec.
// A nil spec yields a nameless default-stat character, which is still playable.
func (a *GuestSessionAdapter) BuildCharacter(spec *models.GuestCharacterSpec, worldID string) *models.Character {
	name, job := "Guest", ""
	var raw worlds.RawStats
	if spec != nil {
		if spec.Name != "" {
			name = spec.Name
		}
		job = spec.Job
		raw = spec.Stats
	}

	stats := worlds.MapStatsToWorld(raw, worldID)
	now := time.Now().UTC()
	ch := &models.Character{
		ID:           models.GuestCharacterID,
		UserID:       models.GuestUserID,
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
		CreatedAt:    now,
		UpdatedAt:    now,
		Items:        []models.Item{},
		Skills:       []models.Skill{},
	}

	nextID := 1
	for _, itemName := range worlds.StartingItems(job, worldID) {
		ch.Items = append(ch.Items, models.Item{
			ID:          guestEntityID(nextID),
			CharacterID: ch.ID,
			Name:        itemName,
			Quantity:    1,
			CreatedAt:   now,
		})
		nextID++
	}
	for _, skillName := range worlds.StartingSkills(job, worldID) {
		skill := game.BuildSkill(ch.ID, models.SkillGrant{Name: skillName})
		skill.ID = guestEntityID(nextID)
		ch.Skills = append(ch.Skills, skill)
		nextID++
	}

	a.logger.Debug("Built guest character",
		zap.String("job", job), zap.String("worldID", worldID),
		zap.Int("items", len(ch.Items)), zap.Int("skills", len(ch.Skills)))
	return ch
}

// BuildGameState shapes the ephemeral guest game state.
func (a *GuestSessionAdapter) BuildGameState(worldID string, stage int) *models.GameState {
	now := time.Now().UTC()
	return &models.GameState{
		ID:           models.GuestGameStateID,
		CharacterID:  models.GuestCharacterID,
		CurrentStage: stage,
		GameStatus:   models.GameStatusPlaying,
		WorldID:      worldID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

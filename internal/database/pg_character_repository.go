package database

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"rpg-server/internal/models"
)

const (
	characterFields = `id, user_id, name, job, level, health, max_health, mana, max_mana,
		strength, intelligence, dexterity, constitution, gold, experience, created_at, updated_at`

	insertCharacterQuery = `
		INSERT INTO characters
			(id, user_id, name, job, level, health, max_health, mana, max_mana,
			 strength, intelligence, dexterity, constitution, gold, experience, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	getCharacterByIDAndUserQuery = `
		SELECT ` + characterFields + `
		FROM characters
		WHERE id = $1 AND user_id = $2`

	updateCharacterStatsQuery = `
		UPDATE characters SET
			level = $2, health = $3, max_health = $4, mana = $5, max_mana = $6,
			strength = $7, intelligence = $8, dexterity = $9, constitution = $10,
			gold = $11, experience = $12, updated_at = $13
		WHERE id = $1`

	listItemsQuery = `
		SELECT id, character_id, name, description, quantity, created_at
		FROM items
		WHERE character_id = $1
		ORDER BY created_at`

	listSkillsQuery = `
		SELECT id, character_id, name, description, mana_cost, damage, healing, effects, created_at
		FROM skills
		WHERE character_id = $1
		ORDER BY created_at`

	insertItemQuery = `
		INSERT INTO items (id, character_id, name, description, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (character_id, name) DO NOTHING`

	insertSkillQuery = `
		INSERT INTO skills (id, character_id, name, description, mana_cost, damage, healing, effects, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

var _ CharacterRepository = (*pgCharacterRepository)(nil)

type pgCharacterRepository struct {
	logger *zap.Logger
}

// NewPgCharacterRepository creates the PostgreSQL character repository.
func NewPgCharacterRepository(logger *zap.Logger) CharacterRepository {
	return &pgCharacterRepository{logger: logger.Named("PgCharacterRepo")}
}

func (r *pgCharacterRepository) Create(ctx context.Context, querier DBTX, ch *models.Character) error {
	now := time.Now().UTC()
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	ch.CreatedAt = now
	ch.UpdatedAt = now

	_, err := querier.Exec(ctx, insertCharacterQuery,
		ch.ID, ch.UserID, ch.Name, ch.Job, ch.Level,
		ch.Health, ch.MaxHealth, ch.Mana, ch.MaxMana,
		ch.Strength, ch.Intelligence, ch.Dexterity, ch.Constitution,
		ch.Gold, ch.Experience, ch.CreatedAt, ch.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert character",
			zap.Stringer("characterID", ch.ID), zap.Error(err))
		return fmt.Errorf("failed to insert character: %w", err)
	}
	return nil
}

func (r *pgCharacterRepository) GetByIDAndUser(ctx context.Context, querier DBTX, id, userID uuid.UUID) (*models.Character, error) {
	ch := &models.Character{}
	err := pgxscan.Get(ctx, querier, ch, getCharacterByIDAndUserQuery, id, userID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get character",
			zap.Stringer("characterID", id), zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return ch, nil
}

func (r *pgCharacterRepository) UpdateStats(ctx context.Context, querier DBTX, ch *models.Character) error {
	ch.UpdatedAt = time.Now().UTC()
	tag, err := querier.Exec(ctx, updateCharacterStatsQuery,
		ch.ID, ch.Level, ch.Health, ch.MaxHealth, ch.Mana, ch.MaxMana,
		ch.Strength, ch.Intelligence, ch.Dexterity, ch.Constitution,
		ch.Gold, ch.Experience, ch.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update character stats",
			zap.Stringer("characterID", ch.ID), zap.Error(err))
		return fmt.Errorf("failed to update character stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgCharacterRepository) ListItems(ctx context.Context, querier DBTX, characterID uuid.UUID) ([]models.Item, error) {
	items := make([]models.Item, 0)
	if err := pgxscan.Select(ctx, querier, &items, listItemsQuery, characterID); err != nil {
		r.logger.Error("Failed to list items", zap.Stringer("characterID", characterID), zap.Error(err))
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *pgCharacterRepository) ListSkills(ctx context.Context, querier DBTX, characterID uuid.UUID) ([]models.Skill, error) {
	skills := make([]models.Skill, 0)
	if err := pgxscan.Select(ctx, querier, &skills, listSkillsQuery, characterID); err != nil {
		r.logger.Error("Failed to list skills", zap.Stringer("characterID", characterID), zap.Error(err))
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

func (r *pgCharacterRepository) AddItems(ctx context.Context, querier DBTX, items []models.Item) error {
	for i := range items {
		item := &items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		// ON CONFLICT keeps the per-character name uniqueness a silent no-op.
		_, err := querier.Exec(ctx, insertItemQuery,
			item.ID, item.CharacterID, item.Name, item.Description, item.Quantity, item.CreatedAt)
		if err != nil {
			r.logger.Error("Failed to insert item",
				zap.Stringer("characterID", item.CharacterID), zap.String("name", item.Name), zap.Error(err))
			return fmt.Errorf("failed to insert item %q: %w", item.Name, err)
		}
	}
	return nil
}

func (r *pgCharacterRepository) AddSkills(ctx context.Context, querier DBTX, skills []models.Skill) error {
	for i := range skills {
		sk := &skills[i]
		if sk.ID == uuid.Nil {
			sk.ID = uuid.New()
		}
		if sk.CreatedAt.IsZero() {
			sk.CreatedAt = time.Now().UTC()
		}
		effects := sk.Effects
		if effects == nil {
			effects = []string{}
		}
		_, err := querier.Exec(ctx, insertSkillQuery,
			sk.ID, sk.CharacterID, sk.Name, sk.Description, sk.ManaCost,
			sk.Damage, sk.Healing, pq.Array(effects), sk.CreatedAt)
		if err != nil {
			r.logger.Error("Failed to insert skill",
				zap.Stringer("characterID", sk.CharacterID), zap.String("name", sk.Name), zap.Error(err))
			return fmt.Errorf("failed to insert skill %q: %w", sk.Name, err)
		}
	}
	return nil
}

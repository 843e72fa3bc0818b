package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"rpg-server/internal/models"
)

const (
	storyEventFields = `id, game_state_id, stage_number, content, choices, event_type, enemy_id, result, selected_choice, created_at`

	insertStoryEventQuery = `
		INSERT INTO story_events
			(id, game_state_id, stage_number, content, choices, event_type, enemy_id, result, selected_choice, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	listStoryEventsQuery = `
		SELECT ` + storyEventFields + `
		FROM story_events
		WHERE game_state_id = $1
		ORDER BY created_at, stage_number`

	getStoryEventByIDAndUserQuery = `
		SELECT se.id, se.game_state_id, se.stage_number, se.content, se.choices,
		       se.event_type, se.enemy_id, se.result, se.selected_choice, se.created_at
		FROM story_events se
		JOIN game_states gs ON gs.id = se.game_state_id
		JOIN characters c ON c.id = gs.character_id
		WHERE se.id = $1 AND c.user_id = $2`

	setSelectedChoiceQuery = `
		UPDATE story_events SET selected_choice = $2
		WHERE id = $1`
)

var _ StoryEventRepository = (*pgStoryEventRepository)(nil)

type pgStoryEventRepository struct {
	logger *zap.Logger
}

// NewPgStoryEventRepository creates the PostgreSQL story event repository.
func NewPgStoryEventRepository(logger *zap.Logger) StoryEventRepository {
	return &pgStoryEventRepository{logger: logger.Named("PgStoryEventRepo")}
}

func (r *pgStoryEventRepository) Create(ctx context.Context, querier DBTX, ev *models.StoryEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	choices := ev.Choices
	if choices == nil {
		choices = []models.StoryChoice{}
	}
	choicesJSON, err := json.Marshal(choices)
	if err != nil {
		return fmt.Errorf("failed to marshal choices: %w", err)
	}

	_, err = querier.Exec(ctx, insertStoryEventQuery,
		ev.ID, ev.GameStateID, ev.StageNumber, ev.Content, choicesJSON,
		ev.EventType, ev.EnemyID, ev.Result, ev.SelectedChoice, ev.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert story event",
			zap.Stringer("gameStateID", ev.GameStateID), zap.Int("stage", ev.StageNumber), zap.Error(err))
		return fmt.Errorf("failed to insert story event: %w", err)
	}
	return nil
}

func (r *pgStoryEventRepository) ListByGameState(ctx context.Context, querier DBTX, gameStateID uuid.UUID) ([]models.StoryEvent, error) {
	rows, err := querier.Query(ctx, listStoryEventsQuery, gameStateID)
	if err != nil {
		r.logger.Error("Failed to list story events",
			zap.Stringer("gameStateID", gameStateID), zap.Error(err))
		return nil, fmt.Errorf("failed to list story events: %w", err)
	}
	defer rows.Close()

	events := make([]models.StoryEvent, 0)
	for rows.Next() {
		ev, err := scanStoryEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate story events: %w", err)
	}
	return events, nil
}

func (r *pgStoryEventRepository) GetByIDAndUser(ctx context.Context, querier DBTX, id, userID uuid.UUID) (*models.StoryEvent, error) {
	row := querier.QueryRow(ctx, getStoryEventByIDAndUserQuery, id, userID)
	ev, err := scanStoryEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryEventNotFound
		}
		r.logger.Error("Failed to get story event",
			zap.Stringer("storyEventID", id), zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get story event: %w", err)
	}
	return ev, nil
}

func (r *pgStoryEventRepository) SetSelectedChoice(ctx context.Context, querier DBTX, id uuid.UUID, choiceID string) error {
	tag, err := querier.Exec(ctx, setSelectedChoiceQuery, id, choiceID)
	if err != nil {
		r.logger.Error("Failed to set selected choice",
			zap.Stringer("storyEventID", id), zap.Error(err))
		return fmt.Errorf("failed to set selected choice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryEventNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoryEvent(row rowScanner) (*models.StoryEvent, error) {
	ev := &models.StoryEvent{}
	var choicesJSON []byte
	err := row.Scan(
		&ev.ID, &ev.GameStateID, &ev.StageNumber, &ev.Content, &choicesJSON,
		&ev.EventType, &ev.EnemyID, &ev.Result, &ev.SelectedChoice, &ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(choicesJSON) > 0 {
		if err := json.Unmarshal(choicesJSON, &ev.Choices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
		}
	}
	if ev.Choices == nil {
		ev.Choices = []models.StoryChoice{}
	}
	return ev, nil
}

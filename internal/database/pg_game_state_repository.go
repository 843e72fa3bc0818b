package database

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rpg-server/internal/models"
)

const (
	gameStateFields = `id, character_id, current_stage, game_status, waiting_for_api, world_id, created_at, updated_at`

	insertGameStateQuery = `
		INSERT INTO game_states (id, character_id, current_stage, game_status, waiting_for_api, world_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getGameStateByCharacterQuery = `
		SELECT ` + gameStateFields + `
		FROM game_states
		WHERE character_id = $1`

	upsertGameStateQuery = `
		INSERT INTO game_states (id, character_id, current_stage, game_status, waiting_for_api, world_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (character_id) DO UPDATE SET
			current_stage   = EXCLUDED.current_stage,
			game_status     = EXCLUDED.game_status,
			waiting_for_api = EXCLUDED.waiting_for_api,
			world_id        = EXCLUDED.world_id,
			updated_at      = EXCLUDED.updated_at
		RETURNING id, created_at`

	setWaitingQuery = `
		UPDATE game_states SET waiting_for_api = $2, updated_at = now()
		WHERE id = $1`

	advanceStageQuery = `
		UPDATE game_states SET current_stage = $2, waiting_for_api = FALSE, updated_at = now()
		WHERE id = $1`

	markStaleWaitingQuery = `
		UPDATE game_states SET waiting_for_api = FALSE, updated_at = now()
		WHERE waiting_for_api = TRUE AND updated_at < $1`
)

var _ GameStateRepository = (*pgGameStateRepository)(nil)

type pgGameStateRepository struct {
	logger *zap.Logger
}

// NewPgGameStateRepository creates the PostgreSQL game state repository.
func NewPgGameStateRepository(logger *zap.Logger) GameStateRepository {
	return &pgGameStateRepository{logger: logger.Named("PgGameStateRepo")}
}

func (r *pgGameStateRepository) Create(ctx context.Context, querier DBTX, gs *models.GameState) error {
	now := time.Now().UTC()
	if gs.ID == uuid.Nil {
		gs.ID = uuid.New()
	}
	gs.CreatedAt = now
	gs.UpdatedAt = now

	_, err := querier.Exec(ctx, insertGameStateQuery,
		gs.ID, gs.CharacterID, gs.CurrentStage, gs.GameStatus, gs.WaitingForAPI, gs.WorldID,
		gs.CreatedAt, gs.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert game state",
			zap.Stringer("characterID", gs.CharacterID), zap.Error(err))
		return fmt.Errorf("failed to insert game state: %w", err)
	}
	return nil
}

func (r *pgGameStateRepository) GetByCharacterID(ctx context.Context, querier DBTX, characterID uuid.UUID) (*models.GameState, error) {
	gs := &models.GameState{}
	err := pgxscan.Get(ctx, querier, gs, getGameStateByCharacterQuery, characterID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrGameStateNotFound
		}
		r.logger.Error("Failed to get game state",
			zap.Stringer("characterID", characterID), zap.Error(err))
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}
	return gs, nil
}

func (r *pgGameStateRepository) Upsert(ctx context.Context, querier DBTX, gs *models.GameState) error {
	if gs.ID == uuid.Nil {
		gs.ID = uuid.New()
	}
	if gs.CreatedAt.IsZero() {
		gs.CreatedAt = time.Now().UTC()
	}
	gs.UpdatedAt = time.Now().UTC()

	// RETURNING reports the surviving row's identity when the conflict path
	// kept a previously created state.
	err := querier.QueryRow(ctx, upsertGameStateQuery,
		gs.ID, gs.CharacterID, gs.CurrentStage, gs.GameStatus, gs.WaitingForAPI, gs.WorldID,
		gs.CreatedAt, gs.UpdatedAt,
	).Scan(&gs.ID, &gs.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert game state",
			zap.Stringer("characterID", gs.CharacterID), zap.Error(err))
		return fmt.Errorf("failed to upsert game state: %w", err)
	}
	return nil
}

func (r *pgGameStateRepository) SetWaiting(ctx context.Context, querier DBTX, id uuid.UUID, waiting bool) error {
	tag, err := querier.Exec(ctx, setWaitingQuery, id, waiting)
	if err != nil {
		r.logger.Error("Failed to set waiting flag",
			zap.Stringer("gameStateID", id), zap.Bool("waiting", waiting), zap.Error(err))
		return fmt.Errorf("failed to set waiting flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrGameStateNotFound
	}
	return nil
}

func (r *pgGameStateRepository) AdvanceStage(ctx context.Context, querier DBTX, id uuid.UUID, newStage int) error {
	tag, err := querier.Exec(ctx, advanceStageQuery, id, newStage)
	if err != nil {
		r.logger.Error("Failed to advance stage",
			zap.Stringer("gameStateID", id), zap.Int("newStage", newStage), zap.Error(err))
		return fmt.Errorf("failed to advance stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrGameStateNotFound
	}
	return nil
}

func (r *pgGameStateRepository) MarkStaleWaiting(ctx context.Context, querier DBTX, threshold time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-threshold)
	tag, err := querier.Exec(ctx, markStaleWaitingQuery, cutoff)
	if err != nil {
		r.logger.Error("Failed to clear stale waiting flags", zap.Error(err))
		return 0, fmt.Errorf("failed to clear stale waiting flags: %w", err)
	}
	return tag.RowsAffected(), nil
}

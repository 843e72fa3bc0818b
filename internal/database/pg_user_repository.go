package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"rpg-server/internal/models"
)

const (
	insertUserQuery = `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	getUserByUsernameQuery = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1`

	getUserByIDQuery = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

var _ UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	logger *zap.Logger
}

// NewPgUserRepository creates the PostgreSQL user repository.
func NewPgUserRepository(logger *zap.Logger) UserRepository {
	return &pgUserRepository{logger: logger.Named("PgUserRepo")}
}

func (r *pgUserRepository) Create(ctx context.Context, querier DBTX, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := querier.Exec(ctx, insertUserQuery, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to insert user", zap.String("username", u.Username), zap.Error(err))
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *pgUserRepository) GetByUsername(ctx context.Context, querier DBTX, username string) (*models.User, error) {
	u := &models.User{}
	err := pgxscan.Get(ctx, querier, u, getUserByUsernameQuery, username)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return u, nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.User, error) {
	u := &models.User{}
	err := pgxscan.Get(ctx, querier, u, getUserByIDQuery, id)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user by id", zap.Stringer("userID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

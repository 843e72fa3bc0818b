package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rpg-server/internal/database"
	"rpg-server/internal/models"
)

const tokenTTL = 24 * time.Hour

// AuthService is the deliberately thin account layer: bcrypt-hashed
// credentials, JWT issuance and a guest token carrying the sentinel identity.
type AuthService interface {
	Register(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	GuestToken() (*models.AuthResponse, error)
	ParseToken(tokenString string) (uuid.UUID, error)
}

type authServiceImpl struct {
	db       database.DBTX
	userRepo database.UserRepository
	secret   []byte
	logger   *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(db database.DBTX, userRepo database.UserRepository, jwtSecret string, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		db:       db,
		userRepo: userRepo,
		secret:   []byte(jwtSecret),
		logger:   logger.Named("AuthService"),
	}
}

func (s *authServiceImpl) Register(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	if creds.Username == "" || len(creds.Password) < 8 {
		return nil, fmt.Errorf("%w: username required and password must be at least 8 characters", models.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     creds.Username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, s.db, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Stringer("userID", user.ID), zap.String("username", user.Username))
	return s.issueToken(user.ID)
}

func (s *authServiceImpl) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, s.db, creds.Username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return s.issueToken(user.ID)
}

// GuestToken issues a token bound to the fixed guest identity, so guest turns
// flow through the same middleware as authenticated ones.
func (s *authServiceImpl) GuestToken() (*models.AuthResponse, error) {
	return s.issueToken(models.GuestUserID)
}

func (s *authServiceImpl) issueToken(userID uuid.UUID) (*models.AuthResponse, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.AuthResponse{Token: token, UserID: userID}, nil
}

// ParseToken validates the token signature and expiry and returns the user id.
func (s *authServiceImpl) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, models.ErrUnauthorized
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, models.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, models.ErrUnauthorized
	}
	return userID, nil
}

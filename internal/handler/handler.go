// Package handler exposes the HTTP API over gin.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rpg-server/internal/middleware"
	"rpg-server/internal/models"
	"rpg-server/internal/service"
)

// Handler bundles the services behind the HTTP API.
type Handler struct {
	story     service.StoryService
	character service.CharacterService
	auth      service.AuthService
	logger    *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(story service.StoryService, character service.CharacterService, auth service.AuthService, logger *zap.Logger) *Handler {
	return &Handler{
		story:     story,
		character: character,
		auth:      auth,
		logger:    logger.Named("Handler"),
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/guest", h.guestSession)
	}

	api := router.Group("/api", middleware.Auth(h.auth.ParseToken, h.logger))
	{
		api.POST("/characters", h.createCharacter)
		api.GET("/characters/:id", h.getCharacter)
		api.POST("/characters/:id/state", h.saveGameState)
		api.GET("/characters/:id/state", h.loadGameState)
		api.POST("/story/generate", h.generateStory)
		api.POST("/story/events/:id/choice", h.submitChoice)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrCharacterNotFound),
		errors.Is(err, models.ErrGameStateNotFound),
		errors.Is(err, models.ErrStoryEventNotFound),
		errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUserAlreadyExists), errors.Is(err, models.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrExternalService):
		c.JSON(http.StatusBadGateway, gin.H{"error": models.ErrExternalService.Error()})
	default:
		h.logger.Error("Unhandled service error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": models.ErrInternalServer.Error()})
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rpg-server/internal/middleware"
	"rpg-server/internal/models"
)

func (h *Handler) generateStory(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": models.ErrUnauthorized.Error()})
		return
	}

	var req models.GenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.CharacterID == uuid.Nil && !models.IsGuest(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "characterId is required"})
		return
	}

	result, err := h.story.GenerateStory(c.Request.Context(), req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) saveGameState(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": models.ErrUnauthorized.Error()})
		return
	}
	characterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	var req models.SaveGameStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	saved, err := h.story.SaveGameState(c.Request.Context(), characterID, userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) loadGameState(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": models.ErrUnauthorized.Error()})
		return
	}
	characterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	state, err := h.story.LoadGameState(c.Request.Context(), characterID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if state == nil {
		// Guests have no stored state to resume.
		c.JSON(http.StatusNoContent, nil)
		return
	}
	c.JSON(http.StatusOK, state)
}

type submitChoiceRequest struct {
	ChoiceID string `json:"choiceId" binding:"required"`
}

func (h *Handler) submitChoice(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": models.ErrUnauthorized.Error()})
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story event id"})
		return
	}

	var req submitChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choiceId is required"})
		return
	}

	result, err := h.story.SubmitChoice(c.Request.Context(), eventID, userID, req.ChoiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

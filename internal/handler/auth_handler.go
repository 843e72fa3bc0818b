package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rpg-server/internal/models"
)

func (h *Handler) register(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	resp, err := h.auth.Register(c.Request.Context(), creds)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), creds)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) guestSession(c *gin.Context) {
	resp, err := h.auth.GuestToken()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services"
)

type SessionHandler struct {
	jwtService *services.JWTService
	arbiterKey string
}

type JoinRequest struct {
	Name       string `json:"name" binding:"required"`
	ArbiterKey string `json:"arbiter_key,omitempty"`
}

func NewSessionHandler(jwtService *services.JWTService, arbiterKey string) *SessionHandler {
	return &SessionHandler{
		jwtService: jwtService,
		arbiterKey: arbiterKey,
	}
}

// Join issues a session token. Presenting the arbiter key grants the
// GM role; everyone else joins as a player.
func (h *SessionHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	gm := false
	if req.ArbiterKey != "" {
		if h.arbiterKey == "" || req.ArbiterKey != h.arbiterKey {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid arbiter key"})
			return
		}
		gm = true
	}

	participantID := models.GenerateParticipantID()

	token, err := h.jwtService.GenerateToken(participantID, req.Name, gm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"participant": gin.H{
			"id":   participantID,
			"name": req.Name,
			"gm":   gm,
		},
	})
}

func (h *SessionHandler) Me(c *gin.Context) {
	p := participantFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"participant": gin.H{
			"id":   p.ID,
			"name": p.Name,
			"gm":   p.GM,
		},
	})
}

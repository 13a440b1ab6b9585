package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services"
)

type ActorHandler struct {
	actors services.ActorStore
}

type CreateActorRequest struct {
	Name     string           `json:"name" binding:"required"`
	Kind     models.ActorKind `json:"kind" binding:"required"`
	Stats    map[string]int   `json:"stats"`
	OwnerIDs []string         `json:"owner_ids"`
}

func NewActorHandler(actors services.ActorStore) *ActorHandler {
	return &ActorHandler{actors: actors}
}

// Create registers an actor in the session. GM only.
func (h *ActorHandler) Create(c *gin.Context) {
	var req CreateActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if req.Kind != models.ActorKindCharacter && req.Kind != models.ActorKindNPC {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown actor kind"})
		return
	}

	now := time.Now()
	actor := &models.Actor{
		ID:              models.GenerateActorID(),
		Name:            req.Name,
		Kind:            req.Kind,
		Stats:           req.Stats,
		AdversityTokens: 0,
		OwnerIDs:        req.OwnerIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.actors.SaveActor(c.Request.Context(), actor); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save actor"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"actor":   actor,
	})
}

func (h *ActorHandler) List(c *gin.Context) {
	actors, err := h.actors.ListActors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list actors"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actors": actors,
		"count":  len(actors),
	})
}

func (h *ActorHandler) Get(c *gin.Context) {
	actor, err := h.actors.GetActor(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"actor": actor})
}

// AddOwner grants a participant ownership rights over an actor. GM
// only.
func (h *ActorHandler) AddOwner(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participant_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	actor, err := h.actors.GetActor(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if !actor.OwnedBy(req.ParticipantID) {
		actor.OwnerIDs = append(actor.OwnerIDs, req.ParticipantID)
		if err := h.actors.SaveActor(c.Request.Context(), actor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save actor"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"actor":   actor,
	})
}

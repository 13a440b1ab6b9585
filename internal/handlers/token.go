package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services"
)

type TokenHandler struct {
	gate         *services.ConsentGate
	relay        *services.AuthorityRelay
	redisService *services.RedisService
}

func NewTokenHandler(gate *services.ConsentGate, relay *services.AuthorityRelay, redisService *services.RedisService) *TokenHandler {
	return &TokenHandler{
		gate:         gate,
		relay:        relay,
		redisService: redisService,
	}
}

func (h *TokenHandler) Claim(c *gin.Context) {
	p := participantFromContext(c)

	var req models.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(p.ID, "claim", services.DefaultRateLimitClaims, 1*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many claims. Please wait."})
		return
	}

	result, err := h.gate.ProposeClaim(c.Request.Context(), p, req.ActorID, req.MessageID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"claim":   result,
	})
}

func (h *TokenHandler) Spend(c *gin.Context) {
	p := participantFromContext(c)

	var req models.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(p.ID, "spend", services.DefaultRateLimitSpends, 1*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many spend proposals. Please wait."})
		return
	}

	result, err := h.gate.ProposeSpend(c.Request.Context(), p, req.SpendingActorID, req.RollMessageID, req.Amount)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"spend":   result,
	})
}

// PendingRequests lists spend requests awaiting the arbiter. GM only.
func (h *TokenHandler) PendingRequests(c *gin.Context) {
	requests, err := h.relay.PendingRequests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pending requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

type ResolveRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// Resolve applies the arbiter's verdict to a pending request. GM only.
func (h *TokenHandler) Resolve(c *gin.Context) {
	requestID := c.Param("id")

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	resolved, err := h.relay.Resolve(c.Request.Context(), requestID, *req.Approved)
	if err != nil && resolved == nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"request": resolved,
	})
}

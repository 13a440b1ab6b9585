package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services"
)

type RollHandler struct {
	rollService  *services.RollService
	ledger       *services.TokenLedger
	redisService *services.RedisService
}

func NewRollHandler(rollService *services.RollService, ledger *services.TokenLedger, redisService *services.RedisService) *RollHandler {
	return &RollHandler{
		rollService:  rollService,
		ledger:       ledger,
		redisService: redisService,
	}
}

func (h *RollHandler) Roll(c *gin.Context) {
	p := participantFromContext(c)

	var req models.RollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(p.ID, "roll", services.DefaultRateLimitRolls, 1*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many rolls. Please wait."})
		return
	}

	msg, err := h.rollService.Roll(c.Request.Context(), p, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msg,
	})
}

// Messages returns the recent roll history with per-message adversity
// flags, so clients can re-render controls after a reload.
func (h *RollHandler) Messages(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	messages, err := h.rollService.Messages(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

func (h *RollHandler) Balance(c *gin.Context) {
	actorID := c.Param("id")

	balance, err := h.ledger.Balance(c.Request.Context(), actorID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actor_id":        actorID,
		"adversityTokens": balance,
	})
}

func (h *RollHandler) History(c *gin.Context) {
	actorID := c.Param("id")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	transactions, err := h.ledger.History(c.Request.Context(), actorID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load token history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actor_id":     actorID,
		"transactions": transactions,
	})
}

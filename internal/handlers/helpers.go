package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tabletop-session-backend/internal/models"
)

func participantFromContext(c *gin.Context) models.Participant {
	return models.Participant{
		ID:   c.GetString("participant_id"),
		Name: c.GetString("participant_name"),
		GM:   c.GetBool("is_gm"),
	}
}

// noticeForError maps error kinds to the user-visible notice text.
func noticeForError(err error) string {
	switch {
	case errors.Is(err, models.ErrNotOwner):
		return "You don't own this character and cannot take adversity tokens."
	case errors.Is(err, models.ErrAlreadyClaimed):
		return "This adversity token has already been claimed."
	case errors.Is(err, models.ErrInsufficientTokens):
		return "You do not have enough adversity tokens."
	case errors.Is(err, models.ErrUnknownActorType):
		return "This actor cannot roll: unknown actor type."
	default:
		return err.Error()
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrRequestResolved):
		return http.StatusConflict
	case errors.Is(err, models.ErrActorNotFound),
		errors.Is(err, models.ErrMessageNotFound),
		errors.Is(err, models.ErrRequestNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{
		"error":  noticeForError(err),
		"reason": err.Error(),
	})
}

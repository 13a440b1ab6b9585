package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tabletop-session-backend/internal/services"
)

func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				c.Abort()
				return
			}
			tokenString = parts[1]
		} else {
			// Websocket dials can't set headers; accept ?token=
			tokenString = c.Query("token")
			if tokenString == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("participant_id", claims.ParticipantID)
		c.Set("participant_name", claims.Name)
		c.Set("is_gm", claims.GM)

		c.Next()
	}
}

// RequireGM guards arbiter-only routes.
func RequireGM() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_gm") {
			c.JSON(http.StatusForbidden, gin.H{"error": "GM role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

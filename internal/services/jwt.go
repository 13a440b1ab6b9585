package services

import (
	"fmt"
	"time"

	"tabletop-session-backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

type SessionClaims struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	GM            bool   `json:"gm"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret  []byte
	session string
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		secret:  []byte(cfg.JWTSecret),
		session: cfg.SessionName,
	}
}

func (s *JWTService) GenerateToken(participantID, name string, gm bool) (string, error) {
	claims := &SessionClaims{
		ParticipantID: participantID,
		Name:          name,
		GM:            gm,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.session,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateMessageID() string {
	return fmt.Sprintf("msg_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateActorID() string {
	return fmt.Sprintf("actor_%d", uuid.New().ID())
}

func GenerateParticipantID() string {
	return fmt.Sprintf("user_%d", uuid.New().ID())
}

func GenerateRequestID() string {
	return fmt.Sprintf("req_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func (r *RollRequest) Validate() error {
	if r.DiceCount < 1 {
		return fmt.Errorf("dice count must be at least 1")
	}
	if r.DiceSides < 2 {
		return fmt.Errorf("dice must have at least 2 sides")
	}
	return nil
}

func (r *SpendRequest) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidSpendAmount
	}
	return nil
}

// FormatFormula renders a roll request as the familiar NdS+stat string
// shown in chat.
func FormatFormula(count, sides int, stat string) string {
	if stat == "" {
		return fmt.Sprintf("%dd%d", count, sides)
	}
	return fmt.Sprintf("%dd%d + @%s", count, sides, stat)
}

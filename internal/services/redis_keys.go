package services

import "time"

const (
	KeyActor             = "actor:%s"
	KeyActorIndex        = "actors"
	KeyRollMessage       = "message:%s"
	KeyMessageTimeline   = "messages:timeline"
	KeyPendingRequest    = "request:%s"
	KeyPendingIndex      = "requests:pending"
	KeyTransaction       = "transaction:%s"
	KeyActorTransactions = "actor:%s:transactions"
	KeyRateLimit         = "ratelimit:%s:%s"

	TTLRollMessage = 30 * 24 * time.Hour
	TTLTransaction = 30 * 24 * time.Hour

	// Timelines and audit trails keep the most recent entries only.
	MaxTimelineEntries = 500
	MaxAuditEntries    = 100

	DefaultRateLimitClaims = 30 // max claims per minute
	DefaultRateLimitSpends = 30 // max spend proposals per minute
	DefaultRateLimitRolls  = 60 // max rolls per minute
)

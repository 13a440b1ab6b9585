package services

import "tabletop-session-backend/internal/models"

// Broadcaster publishes authoritative state and advisory notices back
// to connected clients.
type Broadcaster interface {
	BroadcastMessageCreated(msg *models.RollMessage)
	BroadcastMessageUpdated(msg *models.RollMessage)
	BroadcastBalance(actorID string, balance int)
	NotifyParticipant(participantID, text string)
	NotifyAll(text string)
	SendApprovalRequest(req *models.PendingRequest)
}

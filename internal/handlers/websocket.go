package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"tabletop-session-backend/internal/models"
	"tabletop-session-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub  *WebSocketHub
	gate *services.ConsentGate
}

type WebSocketHub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	ParticipantID string
	Name          string
	GM            bool
	Conn          *websocket.Conn
}

type Message struct {
	Type          string      `json:"type"`
	ParticipantID string      `json:"participant_id,omitempty"`
	GMOnly        bool        `json:"-"`
	Data          interface{} `json:"data"`
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub}
}

// AttachConsentGate wires the gate after construction; the gate itself
// broadcasts through this handler.
func (h *WebSocketHandler) AttachConsentGate(gate *services.ConsentGate) {
	h.gate = gate
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	participant := participantFromContext(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		ParticipantID: participant.ID,
		Name:          participant.Name,
		GM:            participant.GM,
		Conn:          conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(c, client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(c *gin.Context, client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	case "TOKEN_INTENT":
		h.handleIntent(c, client, msg)
	}
}

// handleIntent accepts a token intent envelope over the channel and
// runs it through the consent gate, mirroring the HTTP endpoints.
func (h *WebSocketHandler) handleIntent(c *gin.Context, client *Client, msg *Message) {
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		return
	}

	var intent models.TokenIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		h.NotifyParticipant(client.ParticipantID, "Malformed token intent.")
		return
	}

	p := models.Participant{ID: client.ParticipantID, Name: client.Name, GM: client.GM}
	ctx := c.Request.Context()

	switch intent.Action {
	case models.ActionTakeToken:
		_, err = h.gate.ProposeClaim(ctx, p, intent.ActorID, intent.MessageID)
	case models.ActionSpendTokens:
		_, err = h.gate.ProposeSpend(ctx, p, intent.SpendingActorID, intent.RollMessageID, intent.TokensToSpend)
	default:
		h.NotifyParticipant(client.ParticipantID, "Unknown token intent action.")
		return
	}

	if err != nil {
		h.NotifyParticipant(client.ParticipantID, noticeForError(err))
	}
}

// sendPong goes through the hub so the run loop stays the only writer
// on each connection.
func (h *WebSocketHandler) sendPong(client *Client) {
	h.hub.broadcast <- &Message{
		Type:          "PONG",
		ParticipantID: client.ParticipantID,
		Data: gin.H{
			"timestamp": time.Now().Unix(),
		},
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.ParticipantID] = client
			log.Infof("Client registered: %s (gm=%v)", client.ParticipantID, client.GM)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.ParticipantID]; ok {
				delete(hub.clients, client.ParticipantID)
				log.Infof("Client unregistered: %s", client.ParticipantID)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.ParticipantID != "" {
		if client, ok := hub.clients[message.ParticipantID]; ok {
			client.Conn.WriteJSON(message)
		}
		return
	}

	for _, client := range hub.clients {
		if message.GMOnly && !client.GM {
			continue
		}
		client.Conn.WriteJSON(message)
	}
}

// Broadcaster implementation: these feed authoritative state back to
// every connected client.

func (h *WebSocketHandler) BroadcastMessageCreated(msg *models.RollMessage) {
	h.hub.broadcast <- &Message{
		Type: "MESSAGE_CREATED",
		Data: msg,
	}
}

func (h *WebSocketHandler) BroadcastMessageUpdated(msg *models.RollMessage) {
	h.hub.broadcast <- &Message{
		Type: "MESSAGE_UPDATED",
		Data: msg,
	}
}

func (h *WebSocketHandler) BroadcastBalance(actorID string, balance int) {
	h.hub.broadcast <- &Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{
			"actor_id":        actorID,
			"adversityTokens": balance,
			"timestamp":       time.Now().Unix(),
		},
	}
}

func (h *WebSocketHandler) NotifyParticipant(participantID, text string) {
	h.hub.broadcast <- &Message{
		Type:          "NOTICE",
		ParticipantID: participantID,
		Data:          gin.H{"text": text},
	}
}

func (h *WebSocketHandler) NotifyAll(text string) {
	h.hub.broadcast <- &Message{
		Type: "NOTICE",
		Data: gin.H{"text": text},
	}
}

func (h *WebSocketHandler) SendApprovalRequest(req *models.PendingRequest) {
	h.hub.broadcast <- &Message{
		Type:   "APPROVAL_REQUEST",
		GMOnly: true,
		Data:   req,
	}
}

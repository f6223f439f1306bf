package handler

import (
	"context"
	"time"

	appboard "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound buffer per client
	clientSendBuffer = 16
)

// PresenceClient represents a member's websocket connection to a board
type PresenceClient struct {
	hub       *PresenceHub
	conn      *websocket.Conn
	send      chan []byte
	actor     appboard.Actor
	projectID uuid.UUID
}

type presenceBroadcast struct {
	projectID uuid.UUID
	payload   []byte
}

// PresenceHub maintains the set of presence connections grouped by
// board and fans roster updates out to each board's peers
type PresenceHub struct {
	rooms      map[uuid.UUID]map[*PresenceClient]bool
	broadcast  chan presenceBroadcast
	register   chan *PresenceClient
	unregister chan *PresenceClient
	logger     *zap.Logger
}

// NewPresenceHub creates a new presence hub
func NewPresenceHub(logger *zap.Logger) *PresenceHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PresenceHub{
		rooms:      make(map[uuid.UUID]map[*PresenceClient]bool),
		broadcast:  make(chan presenceBroadcast),
		register:   make(chan *PresenceClient),
		unregister: make(chan *PresenceClient),
		logger:     logger,
	}
}

// Register adds a client to its board's room
func (h *PresenceHub) Register(client *PresenceClient) {
	h.register <- client
}

// Unregister removes a client from its board's room
func (h *PresenceHub) Unregister(client *PresenceClient) {
	h.unregister <- client
}

// BroadcastToProject sends a payload to every connection on the board
func (h *PresenceHub) BroadcastToProject(projectID uuid.UUID, payload []byte) {
	h.broadcast <- presenceBroadcast{projectID: projectID, payload: payload}
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
func (h *PresenceHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			h.rooms = make(map[uuid.UUID]map[*PresenceClient]bool)
			return
		case client := <-h.register:
			room := h.rooms[client.projectID]
			if room == nil {
				room = make(map[*PresenceClient]bool)
				h.rooms[client.projectID] = room
			}
			room[client] = true
			h.logger.Info("presence client connected",
				zap.String("project_id", client.projectID.String()),
				zap.String("user_id", client.actor.UserID.String()))
		case client := <-h.unregister:
			if room, ok := h.rooms[client.projectID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.projectID)
					}
					h.logger.Info("presence client disconnected",
						zap.String("project_id", client.projectID.String()),
						zap.String("user_id", client.actor.UserID.String()))
				}
			}
		case msg := <-h.broadcast:
			room := h.rooms[msg.projectID]
			for client := range room {
				select {
				case client.send <- msg.payload:
				default:
					// Send buffer full, assume the peer is gone
					h.logger.Warn("presence client send buffer full, dropping client",
						zap.String("project_id", client.projectID.String()),
						zap.String("user_id", client.actor.UserID.String()))
					close(client.send)
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, msg.projectID)
					}
				}
			}
		}
	}
}

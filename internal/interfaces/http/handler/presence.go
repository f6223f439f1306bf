package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apppresence "github.com/ShanyuJung/GoalKit-sub000/internal/application/presence"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// presenceMessage is the inbound message format on the presence socket.
// Any well formed message refreshes the sender's lease; "heartbeat" is
// the type clients are expected to send.
type presenceMessage struct {
	Type string `json:"type"`
}

// rosterEvent is the outbound roster update pushed to every peer
type rosterEvent struct {
	Event string                       `json:"event"`
	Users []apppresence.StatusResponse `json:"users"`
}

// PresenceHandler handles the per-board presence websocket and roster
// queries. A dropped connection marks the user offline and releases
// their drag markers.
type PresenceHandler struct {
	BaseHandler
	presenceService *apppresence.Service
	hub             *PresenceHub
	upgrader        websocket.Upgrader
	logger          *zap.Logger
}

// NewPresenceHandler creates a new presence handler. allowedOrigins
// restricts websocket upgrades; empty means any origin.
func NewPresenceHandler(presenceService *apppresence.Service, hub *PresenceHub, allowedOrigins []string, logger *zap.Logger) *PresenceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PresenceHandler{
		presenceService: presenceService,
		hub:             hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// Connect upgrades the request to a websocket and tracks the caller as
// online on the board until the connection drops
func (h *PresenceHandler) Connect(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	// Membership check happens before the upgrade so a rejection is
	// still a regular HTTP response
	if err := h.presenceService.Connect(c.Request.Context(), actor, projectID); err != nil {
		h.HandleError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written its own error response
		h.logger.Warn("websocket upgrade failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
		return
	}

	client := &PresenceClient{
		hub:       h.hub,
		conn:      conn,
		send:      make(chan []byte, clientSendBuffer),
		actor:     actor,
		projectID: projectID,
	}
	h.hub.Register(client)
	h.broadcastRoster(c.Request.Context(), client)

	go h.writePump(client)
	h.readPump(client)
}

// Roster returns the presence roster of the board
func (h *PresenceHandler) Roster(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	users, err := h.presenceService.List(c.Request.Context(), actor, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"users": users})
}

// readPump pumps heartbeats from the connection into the presence
// store. It owns the disconnect path: when reading fails for any
// reason the user is marked offline and their markers released.
func (h *PresenceHandler) readPump(client *PresenceClient) {
	defer func() {
		h.hub.Unregister(client)
		client.conn.Close()

		// The request context is gone by now
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.presenceService.Disconnect(ctx, client.actor, client.projectID); err != nil {
			h.logger.Error("presence disconnect cleanup failed",
				zap.String("project_id", client.projectID.String()),
				zap.String("user_id", client.actor.UserID.String()),
				zap.Error(err))
		}
		h.broadcastRoster(ctx, client)
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("presence socket error",
					zap.String("user_id", client.actor.UserID.String()),
					zap.Error(err))
			}
			break
		}

		var msg presenceMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if err := h.presenceService.Heartbeat(context.Background(), client.actor, client.projectID); err != nil {
			h.logger.Warn("heartbeat failed",
				zap.String("project_id", client.projectID.String()),
				zap.String("user_id", client.actor.UserID.String()),
				zap.Error(err))
		}
	}
}

// writePump pumps roster updates from the hub to the connection and
// keeps it alive with pings
func (h *PresenceHandler) writePump(client *PresenceClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// broadcastRoster pushes the current roster to every peer on the board
func (h *PresenceHandler) broadcastRoster(ctx context.Context, client *PresenceClient) {
	users, err := h.presenceService.List(ctx, client.actor, client.projectID)
	if err != nil {
		h.logger.Warn("failed to load roster for broadcast",
			zap.String("project_id", client.projectID.String()),
			zap.Error(err))
		return
	}

	payload, err := json.Marshal(rosterEvent{Event: "presence", Users: users})
	if err != nil {
		h.logger.Error("failed to marshal roster event", zap.Error(err))
		return
	}

	h.hub.BroadcastToProject(client.projectID, payload)
}

// originChecker builds a websocket origin check from a whitelist
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	appboard "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/event"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSEMessage represents a message sent to stream clients
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// StreamHandler serves the per-project board snapshot stream over SSE.
// Every committed board change pushes a fresh full snapshot to all
// subscribed members, so clients never have to reconcile deltas.
type StreamHandler struct {
	BaseHandler
	projectService *appboard.ProjectService
	hub            *event.SnapshotHub
	logger         *zap.Logger
	heartbeat      time.Duration
	maxClients     int
	clients        sync.Map // map[string]struct{}
	ctx            context.Context
	cancel         context.CancelFunc
}

// StreamOption is a functional option for configuring the handler
type StreamOption func(*StreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) StreamOption {
	return func(h *StreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the keepalive interval
func WithStreamHeartbeat(interval time.Duration) StreamOption {
	return func(h *StreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients caps concurrent subscribers on this instance
func WithStreamMaxClients(max int) StreamOption {
	return func(h *StreamHandler) {
		h.maxClients = max
	}
}

// NewStreamHandler creates a new board snapshot stream handler
func NewStreamHandler(projectService *appboard.ProjectService, hub *event.SnapshotHub, opts ...StreamOption) *StreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &StreamHandler{
		projectService: projectService,
		hub:            hub,
		logger:         zap.NewNop(),
		heartbeat:      30 * time.Second,
		maxClients:     1000,
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Stop disconnects every stream client
func (h *StreamHandler) Stop() {
	h.cancel()
	h.logger.Info("Board snapshot stream handler stopped")
}

// Stream subscribes the caller to the project's snapshot stream
func (h *StreamHandler) Stream(c *gin.Context) {
	actor, projectID, ok := h.actorAndProject(c)
	if !ok {
		return
	}

	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		h.Error(c, http.StatusServiceUnavailable, "MAX_CONNECTIONS_REACHED",
			"Maximum number of stream connections reached")
		return
	}

	// Membership is checked by the initial snapshot fetch
	snapshot, err := h.projectService.GetProject(c.Request.Context(), actor, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	clientID := uuid.New().String()
	h.clients.Store(clientID, struct{}{})
	defer h.clients.Delete(clientID)

	notifyCh, unsubscribe := h.hub.Subscribe(projectID)
	defer unsubscribe()

	h.logger.Info("Stream client connected",
		zap.String("client_id", clientID),
		zap.String("project_id", projectID.String()),
		zap.String("user_id", actor.UserID.String()))

	h.sendSnapshot(c, snapshot)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("Stream client disconnected",
				zap.String("client_id", clientID))
			return
		case <-h.ctx.Done():
			h.logger.Info("Stream handler stopped, disconnecting client",
				zap.String("client_id", clientID))
			return
		case <-ticker.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case _, chOpen := <-notifyCh:
			if !chOpen {
				return
			}
			snapshot, err := h.projectService.GetProject(reqCtx, actor, projectID)
			if err != nil {
				// The board may be gone or the member removed; tell the
				// client and close the stream
				h.sendEvent(c.Writer, SSEMessage{
					Event: "closed",
					Data:  `{"reason":"board_unavailable"}`,
				})
				c.Writer.Flush()
				return
			}
			h.sendSnapshot(c, snapshot)
			c.Writer.Flush()
		}
	}
}

// ClientCount returns the number of connected stream clients
func (h *StreamHandler) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (h *StreamHandler) sendSnapshot(c *gin.Context, snapshot *appboard.ProjectResponse) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Error("Failed to marshal board snapshot", zap.Error(err))
		return
	}
	h.sendEvent(c.Writer, SSEMessage{
		Event: "snapshot",
		Data:  string(data),
		ID:    fmt.Sprintf("%d", snapshot.Version),
	})
}

// sendEvent writes an SSE event to the response writer
func (h *StreamHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

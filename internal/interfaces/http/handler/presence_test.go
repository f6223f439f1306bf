package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appboard "github.com/ShanyuJung/GoalKit-sub000/internal/application/board"
	apppresence "github.com/ShanyuJung/GoalKit-sub000/internal/application/presence"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/event"
	infrapresence "github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/presence"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type presenceTestEnv struct {
	server         *httptest.Server
	projectRepo    *fakeProjectRepo
	projectService *appboard.ProjectService
	dragService    *appboard.DragService
	handler        *PresenceHandler
}

func newPresenceTestEnv(t *testing.T) *presenceTestEnv {
	t.Helper()

	projectRepo := newFakeProjectRepo()
	userRepo := newFakeUserRepo()
	bus := event.NewInMemoryEventBus(zap.NewNop())
	hub := event.NewSnapshotHub()
	leaseTTL := 45 * time.Second

	projectService := appboard.NewProjectService(projectRepo, userRepo, bus, hub, leaseTTL, zap.NewNop())
	dragService := appboard.NewDragService(projectRepo, bus, hub, leaseTTL, zap.NewNop())
	store := infrapresence.NewInMemoryStore(30 * time.Second)
	presenceService := apppresence.NewService(store, projectRepo, dragService, zap.NewNop())

	wsHub := NewPresenceHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go wsHub.Run(ctx)
	t.Cleanup(cancel)

	handler := NewPresenceHandler(presenceService, wsHub, nil, zap.NewNop())

	router := gin.New()
	router.Use(testAuth())
	router.GET("/api/v1/projects/:id/presence", handler.Roster)
	router.GET("/api/v1/projects/:id/presence/ws", handler.Connect)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &presenceTestEnv{
		server:         server,
		projectRepo:    projectRepo,
		projectService: projectService,
		dragService:    dragService,
		handler:        handler,
	}
}

func (e *presenceTestEnv) createBoard(t *testing.T, actor testActor, title string) *appboard.ProjectResponse {
	t.Helper()
	project, err := e.projectService.CreateProject(context.Background(),
		appboard.Actor{UserID: actor.id, DisplayName: actor.name},
		appboard.CreateProjectRequest{Title: title})
	require.NoError(t, err)
	return project
}

func (e *presenceTestEnv) dial(t *testing.T, actor testActor, projectID uuid.UUID) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.server.URL, "http") +
		"/api/v1/projects/" + projectID.String() + "/presence/ws"
	header := http.Header{}
	header.Set("X-Test-User", actor.id.String())
	header.Set("X-Test-Name", actor.name)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn
}

func readRosterEvent(t *testing.T, conn *websocket.Conn) rosterEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt rosterEvent
	require.NoError(t, json.Unmarshal(payload, &evt))
	return evt
}

func TestPresenceConnectBroadcastsRoster(t *testing.T) {
	env := newPresenceTestEnv(t)
	alice := testActor{id: uuid.New(), name: "Alice"}
	project := env.createBoard(t, alice, "Roadmap")

	conn := env.dial(t, alice, project.ID)
	defer conn.Close()

	evt := readRosterEvent(t, conn)
	assert.Equal(t, "presence", evt.Event)
	require.Len(t, evt.Users, 1)
	assert.Equal(t, alice.id, evt.Users[0].UserID)
	assert.Equal(t, "online", evt.Users[0].State)
}

func TestPresenceConnectRejectsNonMember(t *testing.T) {
	env := newPresenceTestEnv(t)
	alice := testActor{id: uuid.New(), name: "Alice"}
	mallory := testActor{id: uuid.New(), name: "Mallory"}
	project := env.createBoard(t, alice, "Roadmap")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") +
		"/api/v1/projects/" + project.ID.String() + "/presence/ws"
	header := http.Header{}
	header.Set("X-Test-User", mallory.id.String())
	header.Set("X-Test-Name", mallory.name)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPresenceDisconnectClearsMarkers(t *testing.T) {
	env := newPresenceTestEnv(t)
	alice := testActor{id: uuid.New(), name: "Alice"}
	project := env.createBoard(t, alice, "Roadmap")

	actor := appboard.Actor{UserID: alice.id, DisplayName: alice.name}
	withList, err := env.projectService.AddList(context.Background(), actor, project.ID,
		appboard.AddListRequest{Title: "Todo"})
	require.NoError(t, err)
	listID := withList.Lists[0].ID

	conn := env.dial(t, alice, project.ID)
	readRosterEvent(t, conn)

	// Alice grabs a list, then her connection drops
	_, err = env.dragService.BeginDrag(context.Background(), actor, project.ID,
		appboard.BeginDragRequest{Kind: string(board.DragKindList), ItemID: listID})
	require.NoError(t, err)

	conn.Close()

	// The disconnect path releases her marker
	require.Eventually(t, func() bool {
		stored, err := env.projectRepo.FindByID(context.Background(), project.ID)
		if err != nil {
			return false
		}
		return len(stored.DraggingLists) == 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestPresenceRoster(t *testing.T) {
	env := newPresenceTestEnv(t)
	alice := testActor{id: uuid.New(), name: "Alice"}
	project := env.createBoard(t, alice, "Roadmap")

	conn := env.dial(t, alice, project.ID)
	defer conn.Close()
	readRosterEvent(t, conn)

	req, err := http.NewRequest(http.MethodGet,
		env.server.URL+"/api/v1/projects/"+project.ID.String()+"/presence", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test-User", alice.id.String())
	req.Header.Set("X-Test-Name", alice.name)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Users []apppresence.StatusResponse `json:"users"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Users, 1)
	assert.Equal(t, "online", body.Data.Users[0].State)
}

func TestPresenceHeartbeatMessageAccepted(t *testing.T) {
	env := newPresenceTestEnv(t)
	alice := testActor{id: uuid.New(), name: "Alice"}
	project := env.createBoard(t, alice, "Roadmap")

	conn := env.dial(t, alice, project.ID)
	defer conn.Close()
	readRosterEvent(t, conn)

	err := conn.WriteJSON(presenceMessage{Type: "heartbeat"})
	require.NoError(t, err)

	// The connection stays healthy after the heartbeat
	err = conn.WriteJSON(presenceMessage{Type: "heartbeat"})
	assert.NoError(t, err)
}

package router

import (
	"github.com/ShanyuJung/GoalKit-sub000/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// AuthRoutes registers the authentication endpoints
type AuthRoutes struct {
	Auth *handler.AuthHandler
	// RateLimit is applied to credential endpoints when set
	RateLimit gin.HandlerFunc
}

// RegisterRoutes implements RouteRegistrar
func (r *AuthRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	credential := auth.Group("")
	if r.RateLimit != nil {
		credential.Use(r.RateLimit)
	}
	credential.POST("/register", r.Auth.Register)
	credential.POST("/login", r.Auth.Login)
	credential.POST("/refresh", r.Auth.RefreshToken)

	auth.POST("/logout", r.Auth.Logout)
	auth.GET("/me", r.Auth.GetCurrentUser)
	auth.PUT("/profile", r.Auth.UpdateProfile)
	auth.PUT("/password", r.Auth.ChangePassword)
}

// ProjectRoutes registers the board endpoints: project lifecycle,
// list/card/tag mutations, drag coordination, the snapshot stream and
// the presence socket
type ProjectRoutes struct {
	Project  *handler.ProjectHandler
	Board    *handler.BoardHandler
	Stream   *handler.StreamHandler
	Presence *handler.PresenceHandler
}

// RegisterRoutes implements RouteRegistrar
func (r *ProjectRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")

	projects.POST("", r.Project.Create)
	projects.GET("", r.Project.List)
	projects.GET("/:id", r.Project.Get)
	projects.PUT("/:id", r.Project.Rename)
	projects.DELETE("/:id", r.Project.Delete)
	projects.POST("/:id/members", r.Project.AddMember)

	projects.POST("/:id/lists", r.Board.AddList)
	projects.PUT("/:id/lists/:listId", r.Board.RenameList)
	projects.DELETE("/:id/lists/:listId", r.Board.RemoveList)
	projects.POST("/:id/lists/:listId/cards", r.Board.AddCard)
	projects.PUT("/:id/cards/:cardId", r.Board.UpdateCard)
	projects.DELETE("/:id/cards/:cardId", r.Board.RemoveCard)
	projects.POST("/:id/tags", r.Board.AddTag)
	projects.DELETE("/:id/tags/:tagId", r.Board.RemoveTag)

	projects.POST("/:id/drag/begin", r.Board.BeginDrag)
	projects.POST("/:id/drag/end", r.Board.EndDrag)
	projects.POST("/:id/lists/move", r.Board.MoveList)
	projects.POST("/:id/cards/move", r.Board.MoveCard)
	projects.POST("/:id/cards/move-all", r.Board.MoveAllCards)

	projects.GET("/:id/stream", r.Stream.Stream)
	projects.GET("/:id/presence", r.Presence.Roster)
	projects.GET("/:id/presence/ws", r.Presence.Connect)
}

// SystemRoutes registers health and system information endpoints
type SystemRoutes struct {
	System *handler.SystemHandler
}

// RegisterRoutes implements RouteRegistrar
func (r *SystemRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", r.System.Health)

	system := rg.Group("/system")
	system.GET("/info", r.System.GetSystemInfo)
	system.GET("/ping", r.System.Ping)
}

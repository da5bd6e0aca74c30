package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teamsphere/teamsphere-server/internal/auth"
	"github.com/teamsphere/teamsphere-server/internal/config"
	"github.com/teamsphere/teamsphere-server/internal/relay"
	"github.com/teamsphere/teamsphere-server/internal/service"
)

// Deps collects everything the HTTP layer needs.
type Deps struct {
	Relay         *relay.Relay
	Auth          *auth.Service
	Projects      *service.Projects
	Tasks         *service.Tasks
	Milestones    *service.Milestones
	Notifications *service.Notifications
	Activities    *service.Activities
}

// NewServer builds the HTTP server with the REST API and the WebSocket
// relay endpoint.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", healthHandler)
	r.GET("/ws", gin.WrapH(NewWSHandler(deps.Relay, deps.Auth, cfg.Relay, logger)))

	apiHandlers := NewAPIHandlers(deps.Auth, logger)
	projectHandlers := NewProjectHandlers(deps.Projects, logger)
	taskHandlers := NewTaskHandlers(deps.Tasks, logger)
	milestoneHandlers := NewMilestoneHandlers(deps.Milestones, logger)
	notificationHandlers := NewNotificationHandlers(deps.Notifications, logger)
	activityHandlers := NewActivityHandlers(deps.Activities, logger)

	api := r.Group("/api")
	api.POST("/auth/register", apiHandlers.Register)
	api.POST("/auth/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(deps.Auth, logger))
	authed.GET("/auth/me", apiHandlers.Me)

	authed.GET("/projects", projectHandlers.List)
	authed.POST("/projects", projectHandlers.Create)
	authed.GET("/projects/:id", projectHandlers.Get)
	authed.PUT("/projects/:id", projectHandlers.Update)
	authed.DELETE("/projects/:id", projectHandlers.Delete)
	authed.POST("/projects/:id/members", projectHandlers.AddMember)

	authed.GET("/tasks/project/:projectId", taskHandlers.ListByProject)
	authed.POST("/tasks", taskHandlers.Create)
	authed.GET("/tasks/:id", taskHandlers.Get)
	authed.PUT("/tasks/:id", taskHandlers.Update)
	authed.DELETE("/tasks/:id", taskHandlers.Delete)
	authed.POST("/tasks/:id/comments", taskHandlers.AddComment)

	authed.GET("/milestones/project/:projectId", milestoneHandlers.ListByProject)
	authed.POST("/milestones", milestoneHandlers.Create)
	authed.PUT("/milestones/:id", milestoneHandlers.Update)
	authed.DELETE("/milestones/:id", milestoneHandlers.Delete)
	authed.POST("/milestones/:id/tasks", milestoneHandlers.AddTask)

	authed.GET("/notes/project/:projectId", projectHandlers.GetNotes)
	authed.PUT("/notes/project/:projectId", projectHandlers.UpdateNotes)

	authed.GET("/notifications", notificationHandlers.List)
	authed.GET("/notifications/unread-count", notificationHandlers.UnreadCount)
	authed.PUT("/notifications/:id/read", notificationHandlers.MarkRead)
	authed.PUT("/notifications/read-all", notificationHandlers.MarkAllRead)

	authed.GET("/activities/project/:projectId", activityHandlers.ListByProject)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}

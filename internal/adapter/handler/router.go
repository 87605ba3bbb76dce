package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/focus-group-bot/docs"
	"github.com/johnquangdev/focus-group-bot/internal/adapter/dto/common"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg         *config.Config
	auth        echo.MiddlewareFunc
	focusGroups *FocusGroup
	sessions    *Session
	webhooks    *Webhook
	logger      *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, auth echo.MiddlewareFunc, focusGroups *FocusGroup, sessions *Session, webhooks *Webhook, logger *zap.Logger) *Router {
	return &Router{
		cfg:         cfg,
		auth:        auth,
		focusGroups: focusGroups,
		sessions:    sessions,
		webhooks:    webhooks,
		logger:      logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler(rt.logger)

	e.GET("/health", rt.healthCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")
	rt.setupFocusGroupRoutes(v1)
	rt.setupSessionRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

func (rt *Router) setupFocusGroupRoutes(g *echo.Group) {
	fg := g.Group("/focus-groups", rt.auth)
	fg.POST("", rt.focusGroups.Create)
	fg.GET("", rt.focusGroups.List)
	fg.GET("/:id", rt.focusGroups.Get)
	fg.POST("/:id/start", rt.sessions.Start)
	fg.GET("/:id/session", rt.sessions.Status)
}

func (rt *Router) setupSessionRoutes(g *echo.Group) {
	sessions := g.Group("/sessions", rt.auth)
	sessions.POST("/:id/stop", rt.sessions.Stop)
}

// setupWebhookRoutes is unauthenticated; events carry their own signature
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	if rt.webhooks == nil {
		return
	}
	g.POST("/webhooks/livekit", rt.webhooks.HandleLiveKit)
}

// healthCheck returns health status
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  common.HealthResponse
// @Router       /health [get]
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, common.HealthResponse{
		Status:      "ok",
		Environment: rt.cfg.Server.Environment,
	})
}

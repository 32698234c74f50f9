package routes

import (
	"tribe-service/internal/api/handlers"
	"tribe-service/internal/api/middleware"
	"tribe-service/internal/auth"
	"tribe-service/internal/realtime"

	"github.com/gin-gonic/gin"
)

type Router struct {
	engine        *gin.Engine
	wsHandler     *realtime.Handler
	messages      *handlers.MessageHandler
	health        *handlers.HealthHandler
	authenticator *auth.Authenticator
}

func NewRouter(wsHandler *realtime.Handler, messages *handlers.MessageHandler,
	health *handlers.HealthHandler, authenticator *auth.Authenticator) *Router {
	return &Router{
		engine:        gin.New(),
		wsHandler:     wsHandler,
		messages:      messages,
		health:        health,
		authenticator: authenticator,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.LogAPI())
	r.engine.Use(middleware.CORS())

	r.engine.GET("/healthz", r.health.Health)

	api := r.engine.Group("/api/v1")
	{
		// The websocket handshake authenticates via the token query
		// parameter inside the handler, not the bearer middleware.
		api.GET("/ws", r.wsHandler.ServeWS)

		authed := api.Group("", middleware.Auth(r.authenticator))
		{
			authed.POST("/conversations/:id/messages", r.messages.SendMessage)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

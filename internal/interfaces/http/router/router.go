// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shortscript-api/internal/config"
	"shortscript-api/internal/interfaces/http/handler"
	"shortscript-api/internal/interfaces/http/middleware"
)

// Handlers 路由依赖的处理器集合
type Handlers struct {
	Health *handler.HealthHandler
	Script *handler.ScriptHandler
	User   *handler.UserHandler
}

// Router HTTP 路由器
type Router struct {
	engine    *gin.Engine
	cfg       *config.Config
	handlers  Handlers
	rateLimit gin.HandlerFunc
}

// New 创建路由器。rateLimit 为 nil 时不限流。
func New(cfg *config.Config, handlers Handlers, rateLimit gin.HandlerFunc) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:    gin.New(),
		cfg:       cfg,
		handlers:  handlers,
		rateLimit: rateLimit,
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
	r.engine.Use(middleware.AccessLog(middleware.DefaultSkipPaths...))
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.handlers.Health.Health)
	r.engine.GET("/ready", r.handlers.Health.Ready)
	r.engine.GET("/live", r.handlers.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.engine.Group("/v1")
	v1.GET("/durations", r.handlers.Script.Durations)

	authed := v1.Group("")
	authed.Use(middleware.Auth(middleware.AuthConfig{
		Secret:  r.cfg.Security.JWT.Secret,
		Issuer:  r.cfg.Security.JWT.Issuer,
		Enabled: r.cfg.Security.AuthEnabled,
	}))
	authed.Use(middleware.RequireUser())
	if r.rateLimit != nil {
		authed.Use(r.rateLimit)
	}
	RegisterV1Routes(authed, r.handlers.Script, r.handlers.User)
}

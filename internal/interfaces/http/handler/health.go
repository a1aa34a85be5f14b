// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shortscript-api/internal/infrastructure/persistence/postgres"
	"shortscript-api/internal/infrastructure/persistence/redis"
)

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type dependency struct {
	name    string
	checker healthChecker
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
	deps    []dependency
}

// NewHealthHandler 创建健康检查处理器。未配置的客户端（nil）在就绪检查中标记为 disabled。
func NewHealthHandler(version string, pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{version: version}
	if pg != nil {
		h.deps = append(h.deps, dependency{name: "postgres", checker: pg})
	} else {
		h.deps = append(h.deps, dependency{name: "postgres"})
	}
	if redisClient != nil {
		h.deps = append(h.deps, dependency{name: "redis", checker: redisClient})
	} else {
		h.deps = append(h.deps, dependency{name: "redis"})
	}
	return h
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口，任一已配置依赖不可用即返回 503
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ready := true
	checks := make(map[string]*readinessCheck, len(h.deps))
	for _, dep := range h.deps {
		if dep.checker == nil {
			checks[dep.name] = &readinessCheck{Status: "disabled"}
			continue
		}
		start := time.Now()
		err := dep.checker.HealthCheck(ctx)
		check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			check.Status = "error"
			check.Error = err.Error()
			ready = false
		}
		checks[dep.name] = check
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shortscript-api/internal/interfaces/http/dto"
	"shortscript-api/pkg/logger"
	"shortscript-api/pkg/utils"
)

// UserIDHeader 未启用认证时用于识别调用方的请求头
const UserIDHeader = "X-User-ID"

type userContextKey struct{}

// AuthConfig 认证配置
type AuthConfig struct {
	// Secret JWT 密钥
	Secret string
	// Issuer JWT 签发者
	Issuer string
	// SkipPaths 跳过认证的路径（前缀匹配）
	SkipPaths []string
	// Enabled 为 false 时从 X-User-ID 读取用户
	Enabled bool
}

// Auth 认证中间件
func Auth(cfg AuthConfig) gin.HandlerFunc {
	jwtManager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	return func(c *gin.Context) {
		for _, p := range cfg.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		if !cfg.Enabled {
			if userID := strings.TrimSpace(c.GetHeader(UserIDHeader)); userID != "" {
				setUser(c, userID, "")
			}
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			dto.AbortWithError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			dto.AbortWithError(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		claims, err := jwtManager.ParseToken(parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, utils.ErrExpiredToken) {
				msg = "token expired"
			}
			dto.AbortWithError(c, http.StatusUnauthorized, msg)
			return
		}
		if claims.Type != utils.TokenTypeAccess {
			dto.AbortWithError(c, http.StatusUnauthorized, "invalid token type")
			return
		}

		setUser(c, claims.UserID, claims.Plan)
		c.Next()
	}
}

// RequireUser 要求请求已识别出用户
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserIDFromGin(c) == "" {
			dto.AbortWithError(c, http.StatusUnauthorized, "user identity required")
			return
		}
		c.Next()
	}
}

func setUser(c *gin.Context, userID, plan string) {
	c.Set("user_id", userID)
	if plan != "" {
		c.Set("plan", plan)
	}
	ctx := context.WithValue(c.Request.Context(), userContextKey{}, userID)
	ctx = logger.WithContext(ctx, logger.UserIDKey, userID)
	c.Request = c.Request.WithContext(ctx)
}

// GetUserID 从 context 中获取用户 ID
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(userContextKey{}).(string); ok {
		return v
	}
	return ""
}

// GetUserIDFromGin 从 Gin Context 中获取用户 ID
func GetUserIDFromGin(c *gin.Context) string {
	return c.GetString("user_id")
}

// DefaultSkipPaths 默认跳过认证的路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}

package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"shortscript-api/internal/application/script"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/interfaces/http/dto"
	"shortscript-api/internal/interfaces/http/middleware"
	"shortscript-api/pkg/logger"
)

// ContextService 用户上下文读取与缓存失效
type ContextService interface {
	LoadContext(ctx context.Context, userID string) (*entity.ScriptContext, error)
	InvalidateUserCache(ctx context.Context, userID string) error
}

// ProfileUpdater 档案写入
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, userID string, upd script.ProfileUpdate) (*entity.UserProfile, error)
}

// UserHandler 用户上下文处理器
type UserHandler struct {
	contexts ContextService
	profiles ProfileUpdater
}

// NewUserHandler 创建用户处理器
func NewUserHandler(svc *script.Service, profiles *script.ProfileService) *UserHandler {
	return &UserHandler{contexts: svc, profiles: profiles}
}

// GetContext 获取当前用户的脚本上下文
// @Summary 获取脚本上下文
// @Description 返回档案、口吻与负面关键词（可能来自缓存）
// @Tags Users
// @Produce json
// @Success 200 {object} dto.Response[entity.ScriptContext]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/users/me/context [get]
func (h *UserHandler) GetContext(c *gin.Context) {
	sc, err := h.contexts.LoadContext(c.Request.Context(), middleware.GetUserIDFromGin(c))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, sc)
}

// UpdateProfile 更新当前用户档案
// @Summary 更新档案
// @Tags Users
// @Accept json
// @Produce json
// @Param body body dto.UpdateProfileRequest true "更新内容"
// @Success 200 {object} dto.Response[entity.UserProfile]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/users/me/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	profile, err := h.profiles.UpdateProfile(ctx, middleware.GetUserIDFromGin(c), req.ToProfileUpdate())
	if err != nil {
		logger.Error(ctx, "failed to update profile", err)
		dto.AppError(c, err)
		return
	}
	dto.Success(c, profile)
}

// ClearContextCache 失效当前用户的上下文缓存
// @Summary 清除上下文缓存
// @Tags Users
// @Success 204
// @Router /v1/users/me/context/cache [delete]
func (h *UserHandler) ClearContextCache(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.contexts.InvalidateUserCache(ctx, middleware.GetUserIDFromGin(c)); err != nil {
		logger.Error(ctx, "failed to invalidate context cache", err)
		dto.AppError(c, err)
		return
	}
	dto.NoContent(c)
}

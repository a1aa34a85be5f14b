package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"shortscript-api/internal/application/script"
	"shortscript-api/internal/application/script/budget"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	"shortscript-api/internal/interfaces/http/dto"
	"shortscript-api/internal/interfaces/http/middleware"
	"shortscript-api/pkg/logger"
)

// ScriptService script.Service 的 HTTP 依赖面
type ScriptService interface {
	GenerateScript(ctx context.Context, req entity.ScriptRequest, userID string) (*entity.GeneratedScript, error)
	GenerateVariations(ctx context.Context, req entity.ScriptRequest, userID string, count int) ([]*entity.GeneratedScript, error)
	SaveScript(ctx context.Context, userID string, req entity.ScriptRequest, s *entity.GeneratedScript) (*entity.ScriptRecord, error)
	ListScripts(ctx context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.ScriptRecord], error)
}

var _ ScriptService = (*script.Service)(nil)

// ScriptHandler 脚本生成处理器
type ScriptHandler struct {
	svc ScriptService
}

// NewScriptHandler 创建脚本处理器
func NewScriptHandler(svc *script.Service) *ScriptHandler {
	return &ScriptHandler{svc: svc}
}

// GenerateScript 生成单份脚本
// @Summary 生成短视频脚本
// @Description 校验输入、加载用户上下文并生成四段式脚本；save=true 时保存结果
// @Tags Scripts
// @Accept json
// @Produce json
// @Param body body dto.GenerateScriptRequest true "生成请求"
// @Success 200 {object} dto.Response[dto.GenerateScriptResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/scripts/generate [post]
func (h *ScriptHandler) GenerateScript(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)

	var req dto.GenerateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	generated, err := h.svc.GenerateScript(ctx, req.ScriptRequest, userID)
	if err != nil {
		dto.AppError(c, err)
		return
	}

	resp := dto.GenerateScriptResponse{Script: generated}
	if req.Save {
		rec, err := h.svc.SaveScript(ctx, userID, req.ScriptRequest, generated)
		if err != nil {
			logger.Error(ctx, "failed to save generated script", err)
			generated.Metadata.Warnings = append(generated.Metadata.Warnings, "script was generated but could not be saved")
		} else {
			resp.RecordID = rec.ID
		}
	}
	dto.Success(c, resp)
}

// GenerateVariations 并行生成多份变体，任一失败整批失败
// @Summary 生成脚本变体
// @Tags Scripts
// @Accept json
// @Produce json
// @Param body body dto.GenerateVariationsRequest true "变体请求"
// @Success 200 {object} dto.Response[dto.GenerateVariationsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/scripts/variations [post]
func (h *ScriptHandler) GenerateVariations(c *gin.Context) {
	var req dto.GenerateVariationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	scripts, err := h.svc.GenerateVariations(c.Request.Context(), req.Request, middleware.GetUserIDFromGin(c), req.Count)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.GenerateVariationsResponse{Scripts: scripts, Count: len(scripts)})
}

// ListScripts 分页列出已保存脚本
// @Summary 已保存脚本列表
// @Tags Scripts
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[[]dto.ScriptRecordResponse]
// @Router /v1/scripts [get]
func (h *ScriptHandler) ListScripts(c *gin.Context) {
	ctx := c.Request.Context()
	page := dto.BindPage(c)

	res, err := h.svc.ListScripts(ctx, middleware.GetUserIDFromGin(c), page.Pagination())
	if err != nil {
		logger.Error(ctx, "failed to list scripts", err)
		dto.AppError(c, err)
		return
	}

	items, meta := dto.ToScriptListResponse(res)
	dto.SuccessWithPage(c, items, meta)
}

// Durations 返回时长预算表
// @Summary 时长预算表
// @Tags Scripts
// @Produce json
// @Success 200 {object} dto.Response[dto.DurationsResponse]
// @Router /v1/durations [get]
func (h *ScriptHandler) Durations(c *gin.Context) {
	dto.Success(c, dto.DurationsResponse{
		WordsPerSecond: budget.WordsPerSecond,
		Durations:      budget.All(),
	})
}

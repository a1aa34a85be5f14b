package dto

import (
	"time"

	"shortscript-api/internal/application/script"
	"shortscript-api/internal/application/script/budget"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
)

// GenerateScriptRequest 生成脚本请求，save 为 true 时保存结果
type GenerateScriptRequest struct {
	entity.ScriptRequest
	Save bool `json:"save,omitempty"`
}

// GenerateScriptResponse 生成脚本响应
type GenerateScriptResponse struct {
	Script   *entity.GeneratedScript `json:"script"`
	RecordID string                  `json:"record_id,omitempty"`
}

// GenerateVariationsRequest 批量变体请求
type GenerateVariationsRequest struct {
	Request entity.ScriptRequest `json:"request"`
	Count   int                  `json:"count" binding:"required"`
}

// GenerateVariationsResponse 批量变体响应
type GenerateVariationsResponse struct {
	Scripts []*entity.GeneratedScript `json:"scripts"`
	Count   int                       `json:"count"`
}

// ScriptRecordResponse 已保存脚本
type ScriptRecordResponse struct {
	ID        string                 `json:"id"`
	Idea      string                 `json:"idea"`
	Script    entity.GeneratedScript `json:"script"`
	CreatedAt string                 `json:"created_at"`
}

// ToScriptRecordResponse 实体转响应
func ToScriptRecordResponse(r *entity.ScriptRecord) *ScriptRecordResponse {
	return &ScriptRecordResponse{
		ID:        r.ID,
		Idea:      r.Idea,
		Script:    r.Script,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

// ToScriptListResponse 分页结果转响应
func ToScriptListResponse(res *repository.PagedResult[*entity.ScriptRecord]) ([]*ScriptRecordResponse, *PageMeta) {
	items := make([]*ScriptRecordResponse, 0, len(res.Items))
	for _, r := range res.Items {
		items = append(items, ToScriptRecordResponse(r))
	}
	return items, NewPageMeta(res.Page, res.PageSize, res.Total)
}

// DurationsResponse 时长预算表
type DurationsResponse struct {
	WordsPerSecond float64                  `json:"words_per_second"`
	Durations      []budget.DurationMetrics `json:"durations"`
}

// UpdateProfileRequest 档案更新，缺省字段保持不变；
// negative_keywords 出现时（含空数组）整体替换
type UpdateProfileRequest struct {
	DisplayName      *string   `json:"display_name" binding:"omitempty,max=100"`
	Niche            *string   `json:"niche" binding:"omitempty,max=200"`
	Audience         *string   `json:"audience" binding:"omitempty,max=200"`
	Platform         *string   `json:"platform" binding:"omitempty,max=50"`
	Bio              *string   `json:"bio" binding:"omitempty,max=1000"`
	NegativeKeywords *[]string `json:"negative_keywords" binding:"omitempty,max=100"`
}

// ToProfileUpdate 转换为应用层更新
func (r *UpdateProfileRequest) ToProfileUpdate() script.ProfileUpdate {
	upd := script.ProfileUpdate{
		DisplayName: r.DisplayName,
		Niche:       r.Niche,
		Audience:    r.Audience,
		Platform:    r.Platform,
		Bio:         r.Bio,
	}
	if r.NegativeKeywords != nil {
		upd.NegativeKeywords = *r.NegativeKeywords
		upd.ReplaceKeywords = true
	}
	return upd
}

package repository

import (
	"context"

	"shortscript-api/internal/domain/entity"
)

// ProfileRepository 用户档案仓储接口
type ProfileRepository interface {
	// GetByUserID 获取用户档案，不存在时返回 nil, nil
	GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error)

	// Upsert 创建或更新用户档案
	Upsert(ctx context.Context, profile *entity.UserProfile) error
}

// VoiceRepository 口吻画像仓储接口
type VoiceRepository interface {
	// GetActiveByUser 获取用户当前启用的自定义口吻，不存在时返回 nil, nil
	GetActiveByUser(ctx context.Context, userID string) (*entity.VoicePersona, error)

	// GetDefault 获取共享默认口吻，不存在时返回 nil, nil
	GetDefault(ctx context.Context) (*entity.VoicePersona, error)
}

// NegativeKeywordRepository 负面关键词仓储接口
type NegativeKeywordRepository interface {
	// ListByUser 获取用户的负面关键词
	ListByUser(ctx context.Context, userID string) ([]string, error)

	// Replace 整体替换用户的负面关键词
	Replace(ctx context.Context, userID string, keywords []string) error
}

// ScriptRepository 已保存脚本仓储接口
type ScriptRepository interface {
	// Create 保存脚本
	Create(ctx context.Context, record *entity.ScriptRecord) error

	// ListByUser 分页获取用户脚本
	ListByUser(ctx context.Context, userID string, pagination Pagination) (*PagedResult[*entity.ScriptRecord], error)
}

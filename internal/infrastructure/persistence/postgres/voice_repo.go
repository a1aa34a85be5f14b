package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
)

// VoiceRepository 口吻画像仓储实现
type VoiceRepository struct {
	client *Client
}

var _ repository.VoiceRepository = (*VoiceRepository)(nil)

func NewVoiceRepository(client *Client) *VoiceRepository {
	return &VoiceRepository{client: client}
}

// GetActiveByUser 获取用户启用的自定义口吻，多条时取最近更新
func (r *VoiceRepository) GetActiveByUser(ctx context.Context, userID string) (*entity.VoicePersona, error) {
	ctx, span := tracer.Start(ctx, "postgres.VoiceRepository.GetActiveByUser")
	defer span.End()

	var m VoiceModel
	err := getDB(ctx, r.client.db).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get active voice: %w", err)
	}
	return m.toEntity(), nil
}

// GetDefault 获取共享默认口吻
func (r *VoiceRepository) GetDefault(ctx context.Context) (*entity.VoicePersona, error) {
	ctx, span := tracer.Start(ctx, "postgres.VoiceRepository.GetDefault")
	defer span.End()

	var m VoiceModel
	err := getDB(ctx, r.client.db).
		Where("user_id IS NULL AND is_default = ?", true).
		Order("updated_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get default voice: %w", err)
	}
	return m.toEntity(), nil
}

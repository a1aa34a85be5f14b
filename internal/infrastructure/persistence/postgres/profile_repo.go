package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
)

// ProfileRepository 用户档案仓储实现
type ProfileRepository struct {
	client *Client
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository(client *Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// GetByUserID 获取用户档案
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.GetByUserID")
	defer span.End()

	var m ProfileModel
	if err := getDB(ctx, r.client.db).First(&m, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return m.toEntity(), nil
}

// Upsert 按 user_id 创建或覆盖
func (r *ProfileRepository) Upsert(ctx context.Context, profile *entity.UserProfile) error {
	ctx, span := tracer.Start(ctx, "postgres.ProfileRepository.Upsert")
	defer span.End()

	m := profileFromEntity(profile)
	err := getDB(ctx, r.client.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "niche", "audience", "platform", "bio", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
)

// ScriptRepository 已保存脚本仓储实现
type ScriptRepository struct {
	client *Client
}

var _ repository.ScriptRepository = (*ScriptRepository)(nil)

func NewScriptRepository(client *Client) *ScriptRepository {
	return &ScriptRepository{client: client}
}

// Create 保存脚本
func (r *ScriptRepository) Create(ctx context.Context, record *entity.ScriptRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.ScriptRepository.Create")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(scriptFromEntity(record)).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create script: %w", err)
	}
	return nil
}

// ListByUser 按创建时间倒序分页
func (r *ScriptRepository) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ScriptRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.ScriptRepository.ListByUser")
	defer span.End()

	query := getDB(ctx, r.client.db).Model(&ScriptModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count scripts: %w", err)
	}

	var models []*ScriptModel
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	items := make([]*entity.ScriptRecord, 0, len(models))
	for _, m := range models {
		items = append(items, m.toEntity())
	}
	return repository.NewPagedResult(items, total, pagination), nil
}

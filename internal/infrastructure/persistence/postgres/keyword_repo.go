package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"shortscript-api/internal/domain/repository"
)

// NegativeKeywordRepository 负面关键词仓储实现
type NegativeKeywordRepository struct {
	client *Client
}

var _ repository.NegativeKeywordRepository = (*NegativeKeywordRepository)(nil)

func NewNegativeKeywordRepository(client *Client) *NegativeKeywordRepository {
	return &NegativeKeywordRepository{client: client}
}

// ListByUser 按写入顺序返回关键词
func (r *NegativeKeywordRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.NegativeKeywordRepository.ListByUser")
	defer span.End()

	keywords := []string{}
	err := getDB(ctx, r.client.db).
		Model(&NegativeKeywordModel{}).
		Where("user_id = ?", userID).
		Order("position ASC").
		Pluck("keyword", &keywords).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list negative keywords: %w", err)
	}
	return keywords, nil
}

// Replace 删除旧关键词后批量写入，调用方未开启事务时自行开启
func (r *NegativeKeywordRepository) Replace(ctx context.Context, userID string, keywords []string) error {
	ctx, span := tracer.Start(ctx, "postgres.NegativeKeywordRepository.Replace")
	defer span.End()

	now := time.Now().UTC()
	rows := make([]NegativeKeywordModel, 0, len(keywords))
	for i, k := range keywords {
		rows = append(rows, NegativeKeywordModel{UserID: userID, Keyword: k, Position: i, CreatedAt: now})
	}

	err := getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&NegativeKeywordModel{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace negative keywords: %w", err)
	}
	return nil
}

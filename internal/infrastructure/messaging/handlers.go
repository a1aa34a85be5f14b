package messaging

import (
	"context"
	"fmt"
	"strings"

	"shortscript-api/internal/domain/entity"
	"shortscript-api/pkg/logger"
)

// CacheInvalidator 失效单个用户的上下文缓存
type CacheInvalidator interface {
	InvalidateUserCache(ctx context.Context, userID string) error
}

// ProfileUpdatedHandler 收到 profile.updated 后失效该用户的上下文缓存。
// 失效失败返回错误，由消费者按退避重试。
func ProfileUpdatedHandler(invalidator CacheInvalidator) MessageHandler {
	return func(ctx context.Context, msg *Message) error {
		var evt entity.ProfileUpdatedEvent
		if err := msg.UnmarshalPayload(&evt); err != nil {
			logger.Warn(ctx, "malformed profile.updated payload, skipping", "message_id", msg.ID, "error", err.Error())
			return nil
		}

		userID := strings.TrimSpace(evt.UserID)
		if userID == "" {
			userID = strings.TrimSpace(msg.UserID)
		}
		if userID == "" {
			logger.Warn(ctx, "profile.updated without user id, skipping", "message_id", msg.ID)
			return nil
		}

		if err := invalidator.InvalidateUserCache(ctx, userID); err != nil {
			return fmt.Errorf("invalidate context cache for %s: %w", userID, err)
		}
		logger.Debug(ctx, "context cache invalidated from event", "user_id", userID)
		return nil
	}
}

// NewProfileUpdatedConsumer 创建订阅 stream:profile:updated 的消费者并注册处理器
func NewProfileUpdatedConsumer(c *Consumer, invalidator CacheInvalidator) *Consumer {
	c.RegisterHandler(entity.EventProfileUpdated, ProfileUpdatedHandler(invalidator))
	return c
}

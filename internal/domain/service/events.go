package service

import (
	"context"

	"shortscript-api/internal/domain/entity"
)

// EventPublisher 领域事件发布端口。发布失败不影响主流程。
type EventPublisher interface {
	PublishScriptGenerated(ctx context.Context, evt *entity.ScriptGeneratedEvent) error
	PublishProfileUpdated(ctx context.Context, evt *entity.ProfileUpdatedEvent) error
}

// NopPublisher 消息功能关闭时使用
type NopPublisher struct{}

func (NopPublisher) PublishScriptGenerated(context.Context, *entity.ScriptGeneratedEvent) error {
	return nil
}

func (NopPublisher) PublishProfileUpdated(context.Context, *entity.ProfileUpdatedEvent) error {
	return nil
}

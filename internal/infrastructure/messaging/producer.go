package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/service"
	"shortscript-api/pkg/logger"
	"shortscript-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// streamAdder *redis.Client 的发布子集
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Producer 消息生产者，实现 service.EventPublisher
type Producer struct {
	client streamAdder
	maxLen int64
}

var _ service.EventPublisher = (*Producer)(nil)

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	return newProducer(client, maxLen)
}

func newProducer(client streamAdder, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(string(stream), "error").Inc()
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(string(stream), "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(string(stream), "success").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishScriptGenerated 发布脚本生成完成事件
func (p *Producer) PublishScriptGenerated(ctx context.Context, evt *entity.ScriptGeneratedEvent) error {
	msg, err := NewMessage(evt.RequestID, entity.EventScriptGenerated, evt.UserID, evt)
	if err != nil {
		return err
	}
	stampMetadata(ctx, msg)
	msg.SetMetadata("request_id", evt.RequestID)

	_, err = p.Publish(ctx, StreamScriptGenerated, msg)
	return err
}

// PublishProfileUpdated 发布档案变更事件
func (p *Producer) PublishProfileUpdated(ctx context.Context, evt *entity.ProfileUpdatedEvent) error {
	id := fmt.Sprintf("%s-%d", evt.UserID, evt.UpdatedAt.UnixNano())
	msg, err := NewMessage(id, entity.EventProfileUpdated, evt.UserID, evt)
	if err != nil {
		return err
	}
	stampMetadata(ctx, msg)

	_, err = p.Publish(ctx, StreamProfileUpdated, msg)
	return err
}

// stampMetadata 透传 request_id / trace_id，便于消费端关联日志
func stampMetadata(ctx context.Context, msg *Message) {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok && reqID != "" {
		msg.SetMetadata("request_id", reqID)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.SetMetadata("trace_id", sc.TraceID().String())
	}
}

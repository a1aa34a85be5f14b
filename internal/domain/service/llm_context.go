// Package service 定义跨层共享的 LLM 调用上下文约定。
package service

import (
	"context"
	"strings"
)

// Unknown 未设置工作流或 provider 时的指标标签
const Unknown = "unknown"

type llmCallKey struct{}

// LLMCall 一次模型调用的归属信息，供 callbacks 打指标与 span
type LLMCall struct {
	Workflow string
	Provider string
	// Attempt 从 1 开始，0 表示未记录
	Attempt int
}

// WithLLMCall 写入调用归属，空字段沿用已有值
func WithLLMCall(ctx context.Context, call LLMCall) context.Context {
	cur := LLMCallFromContext(ctx)
	if w := strings.TrimSpace(call.Workflow); w != "" {
		cur.Workflow = w
	}
	if p := strings.TrimSpace(call.Provider); p != "" {
		cur.Provider = p
	}
	if call.Attempt > 0 {
		cur.Attempt = call.Attempt
	}
	return context.WithValue(ctx, llmCallKey{}, cur)
}

// WithWorkflowProvider 便捷写入工作流和 provider
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return WithLLMCall(ctx, LLMCall{Workflow: workflow, Provider: provider})
}

// LLMCallFromContext 读取调用归属，缺失字段为空串
func LLMCallFromContext(ctx context.Context) LLMCall {
	if ctx == nil {
		return LLMCall{}
	}
	call, _ := ctx.Value(llmCallKey{}).(LLMCall)
	return call
}

func WorkflowFromContext(ctx context.Context) string {
	if w := LLMCallFromContext(ctx).Workflow; w != "" {
		return w
	}
	return Unknown
}

func ProviderFromContext(ctx context.Context) string {
	if p := LLMCallFromContext(ctx).Provider; p != "" {
		return p
	}
	return Unknown
}

// Package llm 按配置构建并缓存 Eino ChatModel 实例。
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"shortscript-api/internal/config"
)

const (
	ProviderTypeOpenAI = "openai"
	ProviderTypeGemini = "gemini"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，未指定时返回默认 provider
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	chatModel, err := newChatModel(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// Default 返回默认 ChatModel
func (f *EinoFactory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

// Providers 返回已配置的 provider 名称
func (f *EinoFactory) Providers() []string {
	names := make([]string, 0, len(f.config.Providers))
	for name := range f.config.Providers {
		names = append(names, name)
	}
	return names
}

func newChatModel(ctx context.Context, p config.ProviderConfig) (model.BaseChatModel, error) {
	temperature := float32(p.Temperature)

	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "", ProviderTypeOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      p.APIKey,
			BaseURL:     p.BaseURL,
			Model:       p.Model,
			MaxTokens:   &p.MaxTokens,
			Temperature: &temperature,
			Timeout:     p.Timeout,
		})
	case ProviderTypeGemini:
		return NewGeminiChatModel(ctx, p.APIKey, GeminiConfig{
			Model:       p.Model,
			MaxTokens:   p.MaxTokens,
			Temperature: &temperature,
			JSONMode:    true,
		})
	default:
		return nil, fmt.Errorf("unsupported provider type %q", p.Type)
	}
}

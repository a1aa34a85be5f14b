package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const geminiType = "Gemini"

// contentGenerator genai.Models 的最小子集
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig Gemini ChatModel 配置
type GeminiConfig struct {
	Model       string
	MaxTokens   int
	Temperature *float32
	// JSONMode 要求模型输出 application/json
	JSONMode bool
}

// GeminiChatModel 基于 google.golang.org/genai 的 Eino ChatModel 实现
type GeminiChatModel struct {
	gen contentGenerator
	cfg GeminiConfig
}

// NewGeminiChatModel 使用 API Key 创建 Gemini 客户端
func NewGeminiChatModel(ctx context.Context, apiKey string, cfg GeminiConfig) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newGeminiChatModel(client.Models, cfg), nil
}

func newGeminiChatModel(gen contentGenerator, cfg GeminiConfig) *GeminiChatModel {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &GeminiChatModel{gen: gen, cfg: cfg}
}

func (m *GeminiChatModel) GetType() string { return geminiType }

func (m *GeminiChatModel) IsCallbacksEnabled() bool { return true }

// Generate 单次生成
func (m *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (out *schema.Message, err error) {
	ctx = callbacks.EnsureRunInfo(ctx, m.GetType(), components.ComponentOfChatModel)

	options := m.resolveOptions(opts...)
	cbConfig := &model.Config{Model: *options.Model}
	if options.MaxTokens != nil {
		cbConfig.MaxTokens = *options.MaxTokens
	}
	if options.Temperature != nil {
		cbConfig.Temperature = *options.Temperature
	}

	ctx = callbacks.OnStart(ctx, &model.CallbackInput{Messages: input, Config: cbConfig})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	contents, genCfg := m.buildRequest(input, options)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: no user content in request")
	}

	resp, err := m.gen.GenerateContent(ctx, *options.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini generate: no candidates returned")
	}

	out, usage := toMessage(resp)
	callbacks.OnEnd(ctx, &model.CallbackOutput{Message: out, Config: cbConfig, TokenUsage: usage})
	return out, nil
}

// Stream 以单帧流返回完整结果
func (m *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *GeminiChatModel) resolveOptions(opts ...model.Option) *model.Options {
	base := &model.Options{
		Model:       &m.cfg.Model,
		Temperature: m.cfg.Temperature,
	}
	if m.cfg.MaxTokens > 0 {
		maxTokens := m.cfg.MaxTokens
		base.MaxTokens = &maxTokens
	}
	options := model.GetCommonOptions(base, opts...)
	if options.Model == nil || strings.TrimSpace(*options.Model) == "" {
		options.Model = &m.cfg.Model
	}
	return options
}

// buildRequest system 消息合并为 SystemInstruction，assistant 映射为 model 角色
func (m *GeminiChatModel) buildRequest(input []*schema.Message, options *model.Options) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{
		Temperature:   options.Temperature,
		TopP:          options.TopP,
		StopSequences: options.Stop,
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(*options.MaxTokens)
	}
	if m.cfg.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	var system []string
	contents := make([]*genai.Content, 0, len(input))
	for _, msg := range input {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, cfg
}

func toMessage(resp *genai.GenerateContentResponse) (*schema.Message, *model.TokenUsage) {
	cand := resp.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}

	out := &schema.Message{
		Role:         schema.Assistant,
		Content:      sb.String(),
		ResponseMeta: &schema.ResponseMeta{FinishReason: string(cand.FinishReason)},
	}

	var usage *model.TokenUsage
	if u := resp.UsageMetadata; u != nil {
		usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
		out.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}
	return out, usage
}

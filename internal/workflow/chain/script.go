package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "shortscript-api/internal/domain/service"
	wfmodel "shortscript-api/internal/workflow/model"
	wfnode "shortscript-api/internal/workflow/node"
	workflowport "shortscript-api/internal/workflow/port"
	workflowprompt "shortscript-api/internal/workflow/prompt"
	"shortscript-api/pkg/logger"
)

const WorkflowScriptGenerate = "script_generate"

// ScriptChain 渲染 script_gen_v1 模板并调用模型，返回原始输出消息
type ScriptChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.ScriptGenerateInput, *schema.Message]
	chainErr  error
}

func NewScriptChain(factory workflowport.ChatModelFactory) *ScriptChain {
	return &ScriptChain{factory: factory}
}

func (c *ScriptChain) Invoke(ctx context.Context, in *wfmodel.ScriptGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Idea) == "" {
		return nil, fmt.Errorf("idea is required")
	}
	if in.TargetWords <= 0 {
		return nil, fmt.Errorf("target_words is required")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type scriptChainState struct {
	In       *wfmodel.ScriptGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *ScriptChain) getChain() (compose.Runnable[*wfmodel.ScriptGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *ScriptChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.ScriptGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.ScriptGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.ScriptGenerateInput) (*scriptChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &scriptChainState{In: in}, nil
		}),
		compose.WithNodeName("script.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *scriptChainState) (*scriptChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := FormatScriptMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("script.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *scriptChainState) (*scriptChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			provider := strings.TrimSpace(st.In.Provider)
			ctx = llmctx.WithWorkflowProvider(ctx, WorkflowScriptGenerate, provider)
			chatModel, err := c.factory.Get(ctx, provider)
			if err != nil {
				return nil, err
			}

			enableSchema := !st.In.DisableSchema
			outMsg, err := chatModel.Generate(ctx, st.Messages, buildScriptModelOptions(st.In, enableSchema)...)
			if err != nil && enableSchema && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", provider,
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildScriptModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("script.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *scriptChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("script.finalize"),
	)

	return chain.Compile(ctx)
}

var defaultPromptRegistry = workflowprompt.NewRegistry()

// FormatScriptMessages 渲染 system/user 两条消息
func FormatScriptMessages(ctx context.Context, in *wfmodel.ScriptGenerateInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptScriptGenV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"platform":         strings.TrimSpace(in.Platform),
		"tone":             strings.TrimSpace(in.Tone),
		"script_type":      strings.TrimSpace(in.ScriptType),
		"duration_seconds": in.DurationSeconds,
		"idea":             strings.TrimSpace(in.Idea),
		"target_words":     in.TargetWords,
		"hook_words":       in.HookWords,
		"bridge_words":     in.BridgeWords,
		"nugget_words":     in.NuggetWords,
		"wta_words":        in.WTAWords,
		"duration_guide":   strings.TrimSpace(in.DurationGuide),
		"voice_block":      strings.TrimSpace(in.VoiceBlock),
		"content_block":    strings.TrimSpace(in.ContentBlock),
		"hook_guide":       strings.TrimSpace(in.HookGuide),
		"structure_guide":  strings.TrimSpace(in.StructureGuide),
		"rules_block":      strings.TrimSpace(in.RulesBlock),
		"notes_block":      strings.TrimSpace(in.NotesBlock),
	}
	return tpl.Format(ctx, vars)
}

func buildScriptModelOptions(in *wfmodel.ScriptGenerateInput, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}

	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if m := strings.TrimSpace(in.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}

	if enableSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "short_video_script",
					"strict": true,
					"schema": ScriptJSONSchema(),
				},
			},
		}))
	}
	return opts
}

// ScriptJSONSchema 四段脚本的结构化输出约束
func ScriptJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"hook", "bridge", "golden_nugget", "wta"},
		"properties": map[string]any{
			"hook":          str,
			"bridge":        str,
			"golden_nugget": str,
			"wta":           str,
		},
	}
}

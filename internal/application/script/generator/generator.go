// Package generator 组装生成指令、调用模型并把输出解析为四段式脚本。
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"shortscript-api/internal/application/script/budget"
	"shortscript-api/internal/application/script/enrich"
	"shortscript-api/internal/application/script/library"
	"shortscript-api/internal/application/script/parse"
	"shortscript-api/internal/application/script/rules"
	"shortscript-api/internal/domain/entity"
	llmctx "shortscript-api/internal/domain/service"
	wfmodel "shortscript-api/internal/workflow/model"
	wfnode "shortscript-api/internal/workflow/node"
	workflowprompt "shortscript-api/internal/workflow/prompt"
	apperrors "shortscript-api/pkg/errors"
	"shortscript-api/pkg/logger"
	"shortscript-api/pkg/metrics"
	"shortscript-api/pkg/tracer"
	"shortscript-api/pkg/utils"
)

// Completer 文本生成协作者，ScriptChain 实现该接口
type Completer interface {
	Invoke(ctx context.Context, in *wfmodel.ScriptGenerateInput) (*schema.Message, error)
}

// Backoff 指数退避
type Backoff = utils.Backoff

// DefaultBackoff 默认退避配置
func DefaultBackoff() Backoff {
	return Backoff{Initial: 500 * time.Millisecond, Max: 8 * time.Second, Multiplier: 2}
}

// Options 生成参数
type Options struct {
	Provider         string
	Model            string
	Platform         string
	Temperature      float32
	MaxTokens        int
	CallTimeout      time.Duration
	Backoff          Backoff
	HookExampleLimit int
}

// Generator 脚本生成适配器
type Generator struct {
	chain Completer
	lib   *library.Library
	opts  Options

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New 创建生成器
func New(chain Completer, lib *library.Library, opts Options) *Generator {
	opts.Backoff = opts.Backoff.Normalize(DefaultBackoff())
	return &Generator{
		chain: chain,
		lib:   lib,
		opts:  opts,
		sleep: sleepCtx,
		now:   time.Now,
	}
}

// Generate 生成一份四段式脚本。
//
// 仅超时、限流和服务端错误会重试，最多 r.Constraints.MaxRetries 次；
// 其他模型错误、指令回显和解析失败都立即返回。
func (g *Generator) Generate(ctx context.Context, in enrich.EnrichedInput, r rules.GenerationRules) (*entity.GeneratedScript, error) {
	ctx, span := tracer.Start(ctx, "script.generator.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("script.duration", string(in.Input.Duration)),
		attribute.String("script.type", string(in.Input.Type)),
		attribute.String("script.hook_strategy", string(r.Generators.Hook)),
		attribute.String("script.body_strategy", string(r.Generators.Script)),
	)

	script, err := g.generate(ctx, in, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return script, nil
}

func (g *Generator) generate(ctx context.Context, in enrich.EnrichedInput, r rules.GenerationRules) (*entity.GeneratedScript, error) {
	wfIn := g.BuildInput(in, r)

	msg, err := g.complete(ctx, wfIn, r.Constraints.MaxRetries)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(msg.Content)
	if marker, ok := templateEcho(content); ok {
		logger.Warn(ctx, "model echoed the instruction template", "marker", marker)
		return nil, apperrors.ErrTemplateEcho.WithDetail("output contains " + marker)
	}

	res := parse.ParseText(content)
	if res == nil {
		logger.Warn(ctx, "no parse strategy matched model output", "output_len", len(content))
		return nil, apperrors.ErrParseFailed
	}
	if res.Hook == "" || res.GoldenNugget == "" || res.WTA == "" {
		logger.Warn(ctx, "parsed script is missing sections",
			"parse_strategy", res.Strategy,
			"has_hook", res.Hook != "",
			"has_nugget", res.GoldenNugget != "",
			"has_wta", res.WTA != "",
		)
		return nil, apperrors.ErrParseFailed.WithDetail("incomplete script sections")
	}
	metrics.ScriptParseStrategy.WithLabelValues(string(res.Strategy)).Inc()

	var warnings []string
	if library.StartsWithBannedOpener(res.Hook) {
		logger.Warn(ctx, "generated hook starts with a banned opener", "hook", res.Hook)
		warnings = append(warnings, "hook starts with a generic opener")
	}

	script := &entity.GeneratedScript{
		Hook:         res.Hook,
		Bridge:       res.Bridge,
		GoldenNugget: res.GoldenNugget,
		WTA:          res.WTA,
	}
	words := entity.CountWords(script.FullText())
	script.Metadata = entity.ScriptMetadata{
		Duration:          in.Input.Duration,
		Type:              in.Input.Type,
		Tone:              in.Input.Tone,
		WordCount:         words,
		EstimatedDuration: budget.EstimateSeconds(words),
		GeneratedAt:       g.now().UTC(),
		Warnings:          warnings,
		ParseStrategy:     string(res.Strategy),
		Provider:          g.opts.Provider,
		Model:             g.opts.Model,
	}

	logger.Debug(ctx, "script generated",
		"parse_strategy", res.Strategy,
		"word_count", words,
		"target_words", in.Enrichments.TargetWordCount,
	)
	return script, nil
}

func (g *Generator) complete(ctx context.Context, in *wfmodel.ScriptGenerateInput, maxRetries int) (*schema.Message, error) {
	attempts := 1 + max(0, maxRetries)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx := llmctx.WithLLMCall(ctx, llmctx.LLMCall{Attempt: attempt})
		cancel := context.CancelFunc(func() {})
		if g.opts.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(callCtx, g.opts.CallTimeout)
		}
		msg, err := g.chain.Invoke(callCtx, in)
		cancel()

		if err == nil {
			if msg == nil {
				return nil, apperrors.ErrGenerationRejected.WithDetail("empty model response")
			}
			return msg, nil
		}
		if ctx.Err() != nil {
			return nil, apperrors.ErrGenerationFailed.WithError(ctx.Err())
		}
		if !wfnode.IsRetryableLLMError(err) {
			logger.Error(ctx, "script generation rejected", err, "attempt", attempt)
			return nil, apperrors.ErrGenerationRejected.WithError(err)
		}

		lastErr = err
		if attempt == attempts {
			break
		}
		delay := g.opts.Backoff.Delay(attempt - 1)
		metrics.ScriptGenerationRetries.WithLabelValues(retryReason(err)).Inc()
		logger.Warn(ctx, "script generation attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay.String(),
			"error", err.Error(),
		)
		if err := g.sleep(ctx, delay); err != nil {
			return nil, apperrors.ErrGenerationFailed.WithError(err)
		}
	}

	logger.Error(ctx, "script generation retries exhausted", lastErr, "attempts", attempts)
	return nil, apperrors.ErrGenerationFailed.
		WithDetail(fmt.Sprintf("gave up after %d attempts", attempts)).
		WithError(lastErr)
}

// templateEcho 输出中出现指令分节标题或禁用开场白说明时视为回显
func templateEcho(out string) (string, bool) {
	upper := strings.ToUpper(out)
	for _, m := range workflowprompt.GuidelineMarkers {
		if strings.Contains(upper, m) {
			return m, true
		}
	}
	if strings.Contains(out, library.BannedOpenersInstruction) {
		return "banned openers instruction", true
	}
	return "", false
}

func retryReason(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate"), strings.Contains(msg, "quota"), strings.Contains(msg, "resource_exhausted"):
		return "rate_limit"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"), strings.Contains(msg, "deadline"):
		return "timeout"
	default:
		return "server_error"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

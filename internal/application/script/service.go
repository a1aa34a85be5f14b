// Package script 编排短视频脚本生成流水线：
// 校验 → 加载上下文 → 富化 → 规则 → 生成（含解析）→ 字数检查。
package script

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"shortscript-api/internal/application/script/enrich"
	"shortscript-api/internal/application/script/outcheck"
	"shortscript-api/internal/application/script/rules"
	"shortscript-api/internal/application/script/validate"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/internal/domain/repository"
	"shortscript-api/internal/domain/service"
	apperrors "shortscript-api/pkg/errors"
	"shortscript-api/pkg/logger"
	"shortscript-api/pkg/metrics"
	"shortscript-api/pkg/tracer"
)

// DefaultMaxVariations 单批最多变体数
const DefaultMaxVariations = 5

// ContextLoader 用户上下文来源，scriptctx.Provider 实现该接口
type ContextLoader interface {
	LoadContext(ctx context.Context, userID string) (*entity.ScriptContext, error)
	InvalidateUserCache(ctx context.Context, userID string) error
}

// Generator 脚本生成器，generator.Generator 实现该接口
type Generator interface {
	Generate(ctx context.Context, in enrich.EnrichedInput, r rules.GenerationRules) (*entity.GeneratedScript, error)
}

// Service 统一脚本服务
type Service struct {
	validator *validate.Validator
	contexts  ContextLoader
	engine    *rules.Engine
	generator Generator
	checker   *outcheck.Checker
	events    service.EventPublisher
	scripts   repository.ScriptRepository

	maxVariations int
	now           func() time.Time
}

// Options 服务选项
type Options struct {
	MaxVariations int
}

// NewService 创建脚本服务。events 为 nil 时不发布事件，scripts 为 nil 时不支持保存。
func NewService(
	v *validate.Validator,
	contexts ContextLoader,
	engine *rules.Engine,
	gen Generator,
	checker *outcheck.Checker,
	events service.EventPublisher,
	scripts repository.ScriptRepository,
	opts Options,
) *Service {
	if opts.MaxVariations <= 0 {
		opts.MaxVariations = DefaultMaxVariations
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	return &Service{
		validator:     v,
		contexts:      contexts,
		engine:        engine,
		generator:     gen,
		checker:       checker,
		events:        events,
		scripts:       scripts,
		maxVariations: opts.MaxVariations,
		now:           time.Now,
	}
}

// MaxVariations 单批允许的最大变体数
func (s *Service) MaxVariations() int {
	return s.maxVariations
}

// GenerateScript 运行完整流水线。
//
// 校验失败或档案加载失败时立即中止；生成、回显和解析失败以单个错误返回；
// 字数偏差只写入 metadata.warnings。
func (s *Service) GenerateScript(ctx context.Context, req entity.ScriptRequest, userID string) (*entity.GeneratedScript, error) {
	requestID := uuid.NewString()
	ctx = logger.WithContext(ctx, logger.UserIDKey, userID)
	ctx = logger.WithContext(ctx, logger.ScriptRequestIDKey, requestID)
	ctx, span := tracer.Start(ctx, "script.Service.GenerateScript")
	defer span.End()

	start := time.Now()
	script, report, err := s.run(ctx, req, userID)
	status := "success"
	if err != nil {
		status = statusFor(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.ScriptGenerationTotal.WithLabelValues(string(req.Type), string(req.Duration), status).Inc()
	metrics.ScriptGenerationDuration.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Warn(ctx, "script generation failed", "status", status, "error", err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("script.word_count", script.Metadata.WordCount),
		attribute.Bool("script.within_budget", report.Within),
	)
	logger.Info(ctx, "script generated",
		"duration", script.Metadata.Duration,
		"type", script.Metadata.Type,
		"word_count", script.Metadata.WordCount,
		"within_budget", report.Within,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	s.publishGenerated(ctx, requestID, userID, script, report)
	return script, nil
}

func (s *Service) run(ctx context.Context, req entity.ScriptRequest, userID string) (*entity.GeneratedScript, outcheck.Report, error) {
	res := s.validator.Validate(req)
	if !res.IsValid {
		return nil, outcheck.Report{}, apperrors.ErrValidationFailed.WithDetail(strings.Join(res.Errors, "; "))
	}
	clean := *res.Sanitized

	sc, err := s.contexts.LoadContext(ctx, userID)
	if err != nil {
		if !apperrors.IsAppError(err) {
			err = apperrors.ErrContextLoadFailed.WithError(err)
		}
		return nil, outcheck.Report{}, err
	}

	in := enrich.Enrich(clean, *sc)
	r := s.engine.Apply(in)

	script, err := s.generator.Generate(ctx, in, r)
	if err != nil {
		if !apperrors.IsAppError(err) {
			err = apperrors.ErrGenerationFailed.WithError(err)
		}
		return nil, outcheck.Report{}, err
	}

	report := s.checker.Check(ctx, script, clean.Duration)

	warnings := make([]string, 0, len(res.Warnings)+len(script.Metadata.Warnings)+1)
	warnings = append(warnings, res.Warnings...)
	warnings = append(warnings, script.Metadata.Warnings...)
	if w := report.Warning(); w != "" {
		warnings = append(warnings, w)
	}
	if len(warnings) > 0 {
		script.Metadata.Warnings = warnings
	}
	return script, report, nil
}

// GenerateVariations 并行运行 count 条独立流水线。
//
// 任意一条失败则整批失败并取消其余流水线，不返回部分结果。
func (s *Service) GenerateVariations(ctx context.Context, req entity.ScriptRequest, userID string, count int) ([]*entity.GeneratedScript, error) {
	if count < 1 || count > s.maxVariations {
		return nil, apperrors.ErrInvalidParam.WithDetail(fmt.Sprintf("count must be between 1 and %d", s.maxVariations))
	}
	if res := s.validator.Validate(req); !res.IsValid {
		metrics.ScriptVariationBatches.WithLabelValues("invalid").Inc()
		return nil, apperrors.ErrValidationFailed.WithDetail(strings.Join(res.Errors, "; "))
	}

	ctx, span := tracer.Start(ctx, "script.Service.GenerateVariations")
	defer span.End()
	span.SetAttributes(attribute.Int("script.variations", count))

	results := make([]*entity.GeneratedScript, count)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		g.Go(func() error {
			script, err := s.GenerateScript(gctx, req, userID)
			if err != nil {
				return fmt.Errorf("variation %d: %w", i+1, err)
			}
			results[i] = script
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.ScriptVariationBatches.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.ScriptVariationBatches.WithLabelValues("success").Inc()
	return results, nil
}

// SaveScript 持久化一次生成结果
func (s *Service) SaveScript(ctx context.Context, userID string, req entity.ScriptRequest, script *entity.GeneratedScript) (*entity.ScriptRecord, error) {
	if s.scripts == nil {
		return nil, apperrors.New(apperrors.CodeServiceUnavailable, "script storage is not configured")
	}
	rec := &entity.ScriptRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Idea:      strings.TrimSpace(req.Idea),
		Script:    *script,
		CreatedAt: s.now().UTC(),
	}
	if err := s.scripts.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListScripts 分页列出用户已保存的脚本
func (s *Service) ListScripts(ctx context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.ScriptRecord], error) {
	if s.scripts == nil {
		return repository.NewPagedResult([]*entity.ScriptRecord{}, 0, p), nil
	}
	return s.scripts.ListByUser(ctx, userID, p)
}

// LoadContext 返回用户当前（可能来自缓存）的脚本上下文
func (s *Service) LoadContext(ctx context.Context, userID string) (*entity.ScriptContext, error) {
	return s.contexts.LoadContext(ctx, userID)
}

// InvalidateUserCache 失效用户上下文缓存
func (s *Service) InvalidateUserCache(ctx context.Context, userID string) error {
	return s.contexts.InvalidateUserCache(ctx, userID)
}

func (s *Service) publishGenerated(ctx context.Context, requestID, userID string, script *entity.GeneratedScript, report outcheck.Report) {
	evt := &entity.ScriptGeneratedEvent{
		RequestID:     requestID,
		UserID:        userID,
		Duration:      script.Metadata.Duration,
		Type:          script.Metadata.Type,
		Tone:          script.Metadata.Tone,
		WordCount:     script.Metadata.WordCount,
		WithinBudget:  report.Within,
		ParseStrategy: script.Metadata.ParseStrategy,
		GeneratedAt:   script.Metadata.GeneratedAt,
	}
	if err := s.events.PublishScriptGenerated(ctx, evt); err != nil {
		logger.Warn(ctx, "failed to publish script generated event", "error", err.Error())
	}
}

func statusFor(err error) string {
	var appErr *apperrors.AppError
	if !stderrors.As(err, &appErr) {
		return "error"
	}
	switch appErr.Code {
	case apperrors.CodeValidationFailed:
		return "invalid"
	case apperrors.CodeContextLoadFailed:
		return "context_error"
	case apperrors.CodeTemplateEcho:
		return "template_echo"
	case apperrors.CodeParseFailed:
		return "parse_error"
	case apperrors.CodeGenerationRejected:
		return "rejected"
	default:
		return "generation_error"
	}
}

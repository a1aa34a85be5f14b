// Package rules 根据富化后的输入选择生成策略、质量约束与缓存提示。
package rules

import (
	"math"

	"shortscript-api/internal/application/script/enrich"
	"shortscript-api/internal/domain/entity"
)

// Strategy 分段生成策略
type Strategy string

const (
	StrategyTemplate Strategy = "template"
	StrategyHybrid   Strategy = "hybrid"
	StrategyAI       Strategy = "ai"
)

// Formula 正文结构
type Formula string

const (
	FormulaStandard        Formula = "standard"
	FormulaCompact         Formula = "compact"
	FormulaProblemSolution Formula = "problem-solution"
	FormulaFreeForm        Formula = "free-form"
)

// Enhancement 润色强度
type Enhancement string

const (
	EnhancementNone     Enhancement = "none"
	EnhancementLight    Enhancement = "light"
	EnhancementModerate Enhancement = "moderate"
	EnhancementHeavy    Enhancement = "heavy"
)

const (
	DefaultMaxRetries       = 3
	DefaultQualityThreshold = 0.7
	ViralQualityThreshold   = 0.8
	ReferenceQualityBoost   = 0.1
	MaxQualityThreshold     = 0.95
)

// Generators 各部分的生成策略
type Generators struct {
	Hook        Strategy    `json:"hook"`
	Script      Strategy    `json:"script"`
	Formula     Formula     `json:"formula"`
	Enhancement Enhancement `json:"enhancement"`
}

// Constraints 质量与重试约束
type Constraints struct {
	MaxRetries             int     `json:"max_retries"`
	StrictWordCount        bool    `json:"strict_word_count"`
	AllowCreativeDeviation bool    `json:"allow_creative_deviation"`
	QualityThreshold       float64 `json:"quality_threshold"`
}

// Optimizations 缓存与并行提示
type Optimizations struct {
	CacheStrategy      string `json:"cache_strategy"`
	ParallelGeneration bool   `json:"parallel_generation"`
	UseTemplateCache   bool   `json:"use_template_cache"`
}

// GenerationRules 单次请求的生成规则
type GenerationRules struct {
	Generators    Generators    `json:"generators"`
	Constraints   Constraints   `json:"constraints"`
	Optimizations Optimizations `json:"optimizations"`
}

// Engine 规则引擎，除最大重试次数外无状态
type Engine struct {
	maxRetries int
}

// NewEngine 创建规则引擎，maxRetries < 0 时使用默认值
func NewEngine(maxRetries int) *Engine {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Engine{maxRetries: maxRetries}
}

// Apply 先计算基础规则，再叠加上下文覆盖
func (e *Engine) Apply(in enrich.EnrichedInput) GenerationRules {
	req := in.Input
	r := GenerationRules{
		Generators: Generators{
			Hook:        hookStrategy(req.Type),
			Enhancement: enhancementFor(req.Type),
		},
		Constraints: Constraints{
			MaxRetries:             e.maxRetries,
			StrictWordCount:        true,
			AllowCreativeDeviation: false,
			QualityThreshold:       DefaultQualityThreshold,
		},
		Optimizations: optimizationsFor(req),
	}
	r.Generators.Script, r.Generators.Formula = scriptStrategy(req)

	if req.Type == entity.ScriptTypeViral {
		r.Constraints.QualityThreshold = ViralQualityThreshold
		if !req.Duration.IsShort() {
			r.Constraints.AllowCreativeDeviation = true
			r.Constraints.StrictWordCount = false
		}
	}

	// 上下文覆盖
	if in.Context.HasCustomVoice() {
		r.Generators.Hook = StrategyAI
		r.Generators.Script = StrategyAI
	}
	if req.Notes() != "" {
		r.Constraints.QualityThreshold = math.Min(r.Constraints.QualityThreshold+ReferenceQualityBoost, MaxQualityThreshold)
		r.Constraints.QualityThreshold = math.Round(r.Constraints.QualityThreshold*100) / 100
	}
	if req.ReferenceMode() == entity.ReferenceModeComprehensive {
		r.Constraints.AllowCreativeDeviation = true
		r.Generators.Enhancement = EnhancementHeavy
	}
	return r
}

func hookStrategy(t entity.ScriptType) Strategy {
	switch t {
	case entity.ScriptTypeSpeed:
		return StrategyTemplate
	case entity.ScriptTypeEducational:
		return StrategyHybrid
	default:
		return StrategyAI
	}
}

// scriptStrategy 教育类固定使用问题-解决结构，优先于时长规则
func scriptStrategy(req entity.ScriptRequest) (Strategy, Formula) {
	switch {
	case req.Type == entity.ScriptTypeEducational:
		return StrategyTemplate, FormulaProblemSolution
	case req.Duration.IsShort():
		return StrategyTemplate, FormulaCompact
	case req.Type == entity.ScriptTypeViral && req.Duration.IsLong():
		return StrategyAI, FormulaFreeForm
	default:
		return StrategyHybrid, FormulaStandard
	}
}

func enhancementFor(t entity.ScriptType) Enhancement {
	switch t {
	case entity.ScriptTypeSpeed:
		return EnhancementNone
	case entity.ScriptTypeEducational:
		return EnhancementLight
	default:
		return EnhancementModerate
	}
}

func optimizationsFor(req entity.ScriptRequest) Optimizations {
	o := Optimizations{ParallelGeneration: req.Duration.Seconds() >= 60}
	switch req.Type {
	case entity.ScriptTypeSpeed:
		o.CacheStrategy = "aggressive"
		o.UseTemplateCache = true
	case entity.ScriptTypeEducational:
		o.CacheStrategy = "standard"
		o.UseTemplateCache = true
	default:
		o.CacheStrategy = "none"
	}
	return o
}

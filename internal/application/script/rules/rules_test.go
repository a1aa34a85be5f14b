package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shortscript-api/internal/application/script/enrich"
	"shortscript-api/internal/domain/entity"
)

var (
	allDurations = []entity.Duration{entity.Duration15, entity.Duration20, entity.Duration30, entity.Duration45, entity.Duration60, entity.Duration90}
	allTypes     = []entity.ScriptType{entity.ScriptTypeSpeed, entity.ScriptTypeEducational, entity.ScriptTypeViral}
)

func enriched(d entity.Duration, typ entity.ScriptType, reqCtx *entity.RequestContext, sc entity.ScriptContext) enrich.EnrichedInput {
	req := entity.ScriptRequest{Idea: "How to remember everything you read", Duration: d, Type: typ, Tone: entity.ToneCasual, Context: reqCtx}
	return enrich.Enrich(req, sc)
}

func TestApply_ViralNinetyIsFullAI(t *testing.T) {
	r := NewEngine(3).Apply(enriched(entity.Duration90, entity.ScriptTypeViral, nil, entity.ScriptContext{}))

	assert.Equal(t, StrategyAI, r.Generators.Hook)
	assert.Equal(t, StrategyAI, r.Generators.Script)
	assert.Equal(t, FormulaFreeForm, r.Generators.Formula)
	assert.NotEqual(t, StrategyTemplate, r.Generators.Hook)
	assert.NotEqual(t, StrategyTemplate, r.Generators.Script)
}

func TestApply_CustomVoiceForcesAI(t *testing.T) {
	sc := entity.ScriptContext{Voice: &entity.VoicePersona{ID: "v1", IsCustom: true}}
	engine := NewEngine(3)

	for _, d := range allDurations {
		for _, typ := range allTypes {
			r := engine.Apply(enriched(d, typ, nil, sc))
			assert.Equal(t, StrategyAI, r.Generators.Hook, "%s/%s", d, typ)
			assert.Equal(t, StrategyAI, r.Generators.Script, "%s/%s", d, typ)
		}
	}
}

func TestApply_DefaultVoiceDoesNotForceAI(t *testing.T) {
	sc := entity.ScriptContext{Voice: &entity.VoicePersona{ID: "shared", IsDefault: true}}
	r := NewEngine(3).Apply(enriched(entity.Duration30, entity.ScriptTypeSpeed, nil, sc))

	assert.Equal(t, StrategyTemplate, r.Generators.Hook)
}

func TestApply_BaseStrategies(t *testing.T) {
	tests := []struct {
		duration entity.Duration
		typ      entity.ScriptType
		hook     Strategy
		script   Strategy
		formula  Formula
	}{
		{entity.Duration15, entity.ScriptTypeSpeed, StrategyTemplate, StrategyTemplate, FormulaCompact},
		{entity.Duration20, entity.ScriptTypeViral, StrategyAI, StrategyTemplate, FormulaCompact},
		{entity.Duration15, entity.ScriptTypeEducational, StrategyHybrid, StrategyTemplate, FormulaProblemSolution},
		{entity.Duration90, entity.ScriptTypeEducational, StrategyHybrid, StrategyTemplate, FormulaProblemSolution},
		{entity.Duration60, entity.ScriptTypeViral, StrategyAI, StrategyAI, FormulaFreeForm},
		{entity.Duration45, entity.ScriptTypeViral, StrategyAI, StrategyHybrid, FormulaStandard},
		{entity.Duration30, entity.ScriptTypeSpeed, StrategyTemplate, StrategyHybrid, FormulaStandard},
	}
	engine := NewEngine(3)

	for _, tt := range tests {
		r := engine.Apply(enriched(tt.duration, tt.typ, nil, entity.ScriptContext{}))
		assert.Equal(t, tt.hook, r.Generators.Hook, "%s/%s hook", tt.duration, tt.typ)
		assert.Equal(t, tt.script, r.Generators.Script, "%s/%s script", tt.duration, tt.typ)
		assert.Equal(t, tt.formula, r.Generators.Formula, "%s/%s formula", tt.duration, tt.typ)
	}
}

func TestApply_Constraints(t *testing.T) {
	engine := NewEngine(3)

	r := engine.Apply(enriched(entity.Duration30, entity.ScriptTypeSpeed, nil, entity.ScriptContext{}))
	assert.Equal(t, Constraints{MaxRetries: 3, StrictWordCount: true, AllowCreativeDeviation: false, QualityThreshold: 0.7}, r.Constraints)

	r = engine.Apply(enriched(entity.Duration45, entity.ScriptTypeViral, nil, entity.ScriptContext{}))
	assert.InDelta(t, 0.8, r.Constraints.QualityThreshold, 1e-9)
	assert.True(t, r.Constraints.AllowCreativeDeviation)
	assert.False(t, r.Constraints.StrictWordCount)

	// 短时长保持严格字数
	r = engine.Apply(enriched(entity.Duration15, entity.ScriptTypeViral, nil, entity.ScriptContext{}))
	assert.InDelta(t, 0.8, r.Constraints.QualityThreshold, 1e-9)
	assert.False(t, r.Constraints.AllowCreativeDeviation)
	assert.True(t, r.Constraints.StrictWordCount)
}

func TestApply_ReferenceNotesRaiseThreshold(t *testing.T) {
	engine := NewEngine(3)
	notes := &entity.RequestContext{Notes: "three bullet points from my blog"}

	r := engine.Apply(enriched(entity.Duration30, entity.ScriptTypeSpeed, notes, entity.ScriptContext{}))
	assert.InDelta(t, 0.8, r.Constraints.QualityThreshold, 1e-9)

	r = engine.Apply(enriched(entity.Duration30, entity.ScriptTypeViral, notes, entity.ScriptContext{}))
	assert.InDelta(t, 0.9, r.Constraints.QualityThreshold, 1e-9)
	assert.LessOrEqual(t, r.Constraints.QualityThreshold, MaxQualityThreshold)
}

func TestApply_ComprehensiveMode(t *testing.T) {
	reqCtx := &entity.RequestContext{ReferenceMode: entity.ReferenceModeComprehensive}
	r := NewEngine(3).Apply(enriched(entity.Duration15, entity.ScriptTypeSpeed, reqCtx, entity.ScriptContext{}))

	assert.True(t, r.Constraints.AllowCreativeDeviation)
	assert.Equal(t, EnhancementHeavy, r.Generators.Enhancement)
}

func TestApply_Optimizations(t *testing.T) {
	engine := NewEngine(3)

	r := engine.Apply(enriched(entity.Duration60, entity.ScriptTypeSpeed, nil, entity.ScriptContext{}))
	assert.Equal(t, Optimizations{CacheStrategy: "aggressive", ParallelGeneration: true, UseTemplateCache: true}, r.Optimizations)

	r = engine.Apply(enriched(entity.Duration30, entity.ScriptTypeViral, nil, entity.ScriptContext{}))
	assert.Equal(t, Optimizations{CacheStrategy: "none"}, r.Optimizations)
}

func TestNewEngine_MaxRetries(t *testing.T) {
	in := enriched(entity.Duration30, entity.ScriptTypeSpeed, nil, entity.ScriptContext{})

	assert.Equal(t, DefaultMaxRetries, NewEngine(-1).Apply(in).Constraints.MaxRetries)
	assert.Equal(t, 0, NewEngine(0).Apply(in).Constraints.MaxRetries)
	assert.Equal(t, 5, NewEngine(5).Apply(in).Constraints.MaxRetries)
}

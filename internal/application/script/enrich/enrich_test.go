package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shortscript-api/internal/domain/entity"
)

func request(d entity.Duration, typ entity.ScriptType, tone entity.Tone) entity.ScriptRequest {
	return entity.ScriptRequest{Idea: "How to remember everything you read", Duration: d, Type: typ, Tone: tone}
}

func TestEnrich_Budgets(t *testing.T) {
	out := Enrich(request(entity.Duration30, entity.ScriptTypeSpeed, entity.ToneCasual), entity.ScriptContext{})

	assert.Equal(t, 66, out.Enrichments.TargetWordCount)
	assert.Equal(t, ComponentWordCounts{Hook: 11, Bridge: 13, GoldenNugget: 31, WTA: 11}, out.Enrichments.ComponentWordCounts)
}

func TestEnrich_IsDeterministic(t *testing.T) {
	sc := entity.ScriptContext{
		UserID:           "u1",
		Voice:            &entity.VoicePersona{Name: "Coach", Vocabulary: []string{"reps"}},
		NegativeKeywords: []string{"grind"},
	}
	req := request(entity.Duration45, entity.ScriptTypeViral, entity.ToneEnergetic)

	assert.Equal(t, Enrich(req, sc), Enrich(req, sc))
}

func TestEnrich_PacingRules(t *testing.T) {
	tests := []struct {
		name     string
		duration entity.Duration
		typ      entity.ScriptType
		tone     entity.Tone
		pacing   Pacing
		emphasis string
	}{
		{"educational base is moderate", entity.Duration30, entity.ScriptTypeEducational, entity.ToneCasual, PacingModerate, ""},
		{"energetic shifts one step up", entity.Duration30, entity.ScriptTypeEducational, entity.ToneEnergetic, PacingFast, ""},
		{"professional shifts one step down", entity.Duration45, entity.ScriptTypeSpeed, entity.ToneProfessional, PacingModerate, ""},
		{"shift never goes beyond one step", entity.Duration45, entity.ScriptTypeEducational, entity.ToneProfessional, PacingSlow, ""},
		{"short duration forces fast over tone", entity.Duration15, entity.ScriptTypeEducational, entity.ToneProfessional, PacingFast, EmphasisImmediacy},
		{"20s also forces fast", entity.Duration20, entity.ScriptTypeSpeed, entity.ToneEducational, PacingFast, EmphasisImmediacy},
		{"long duration adds depth", entity.Duration90, entity.ScriptTypeViral, entity.ToneCasual, PacingFast, EmphasisDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Enrich(request(tt.duration, tt.typ, tt.tone), entity.ScriptContext{}).Enrichments.ContentGuidelines
			assert.Equal(t, tt.pacing, g.Pacing)
			if tt.emphasis != "" {
				assert.Contains(t, g.Emphasis, tt.emphasis)
			} else {
				assert.NotContains(t, g.Emphasis, EmphasisImmediacy)
				assert.NotContains(t, g.Emphasis, EmphasisDepth)
			}
		})
	}
}

func TestEnrich_VoiceLayering(t *testing.T) {
	req := request(entity.Duration30, entity.ScriptTypeSpeed, entity.ToneCasual)

	base := Enrich(req, entity.ScriptContext{}).Enrichments.VoiceGuidelines
	assert.Equal(t, entity.ToneCasual, base.Tone)
	assert.Contains(t, base.Vocabulary, "honestly")
	assert.Contains(t, base.AvoidPhrases, "utilize")

	sc := entity.ScriptContext{
		Voice: &entity.VoicePersona{
			Name:         "Mentor",
			Tone:         "warm and direct",
			Vocabulary:   []string{"crush it", "small wins"},
			AvoidPhrases: []string{"synergy"},
		},
		NegativeKeywords: []string{"Crush it", "hack"},
	}
	g := Enrich(req, sc).Enrichments.VoiceGuidelines

	assert.Equal(t, "Mentor", g.PersonaName)
	assert.Equal(t, "warm and direct", g.Style)
	assert.Equal(t, []string{"small wins"}, g.Vocabulary, "negative keywords are removed from vocabulary")
	assert.Contains(t, g.AvoidPhrases, "utilize", "tone defaults stay in the avoid list")
	assert.Contains(t, g.AvoidPhrases, "synergy")
	assert.Contains(t, g.AvoidPhrases, "Crush it")
	assert.Contains(t, g.AvoidPhrases, "hack")
}

func TestEnrich_DoesNotMutateContext(t *testing.T) {
	voice := &entity.VoicePersona{Vocabulary: []string{"a", "b"}}
	sc := entity.ScriptContext{Voice: voice, NegativeKeywords: []string{"a"}}

	Enrich(request(entity.Duration30, entity.ScriptTypeSpeed, entity.ToneCasual), sc)
	assert.Equal(t, []string{"a", "b"}, voice.Vocabulary)
}

func TestEnrich_ProfileAudience(t *testing.T) {
	sc := entity.ScriptContext{Profile: &entity.UserProfile{Audience: "new founders", Niche: "startups"}}
	g := Enrich(request(entity.Duration60, entity.ScriptTypeEducational, entity.ToneCasual), sc).Enrichments.ContentGuidelines

	assert.Equal(t, "new founders", g.Audience)
	assert.Equal(t, "startups", g.Niche)
}

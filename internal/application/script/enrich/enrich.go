// Package enrich 将清洗后的请求与用户上下文合并为生成所需的字数预算和口吻/内容指引。
//
// 该包无 I/O，对同样的输入总是产生同样的输出。
package enrich

import (
	"strings"

	"shortscript-api/internal/application/script/budget"
	"shortscript-api/internal/domain/entity"
)

// Pacing 节奏
type Pacing string

const (
	PacingSlow     Pacing = "slow"
	PacingModerate Pacing = "moderate"
	PacingFast     Pacing = "fast"
)

var pacingSteps = []Pacing{PacingSlow, PacingModerate, PacingFast}

const (
	EmphasisImmediacy = "immediacy"
	EmphasisDepth     = "depth"
)

// ComponentWordCounts 分段字数预算
type ComponentWordCounts struct {
	Hook         int `json:"hook"`
	Bridge       int `json:"bridge"`
	GoldenNugget int `json:"golden_nugget"`
	WTA          int `json:"wta"`
}

// VoiceGuidelines 口吻指引
type VoiceGuidelines struct {
	Tone         entity.Tone `json:"tone"`
	Style        string      `json:"style"`
	PersonaName  string      `json:"persona_name,omitempty"`
	Vocabulary   []string    `json:"vocabulary"`
	AvoidPhrases []string    `json:"avoid_phrases"`
	SampleLines  []string    `json:"sample_lines,omitempty"`
}

// ContentGuidelines 内容结构指引
type ContentGuidelines struct {
	OpeningStyle string   `json:"opening_style"`
	Pacing       Pacing   `json:"pacing"`
	Emphasis     []string `json:"emphasis"`
	Audience     string   `json:"audience,omitempty"`
	Niche        string   `json:"niche,omitempty"`
}

// Enrichments 派生数据
type Enrichments struct {
	TargetWordCount     int                    `json:"target_word_count"`
	ComponentWordCounts ComponentWordCounts    `json:"component_word_counts"`
	Metrics             budget.DurationMetrics `json:"metrics"`
	VoiceGuidelines     VoiceGuidelines        `json:"voice_guidelines"`
	ContentGuidelines   ContentGuidelines      `json:"content_guidelines"`
}

// EnrichedInput 单次生成使用的请求级数据，不持久化
type EnrichedInput struct {
	Input       entity.ScriptRequest `json:"input"`
	Context     entity.ScriptContext `json:"context"`
	Enrichments Enrichments          `json:"enrichments"`
}

type toneDefaults struct {
	style      string
	vocabulary []string
	avoid      []string
	shift      int
}

var toneTable = map[entity.Tone]toneDefaults{
	entity.ToneCasual: {
		style:      "conversational, like talking to a friend",
		vocabulary: []string{"honestly", "here's the thing", "real talk", "you"},
		avoid:      []string{"furthermore", "in conclusion", "utilize"},
		shift:      0,
	},
	entity.ToneProfessional: {
		style:      "clear, credible and concise",
		vocabulary: []string{"key insight", "research shows", "strategy"},
		avoid:      []string{"lol", "crazy", "literally"},
		shift:      -1,
	},
	entity.ToneEnergetic: {
		style:      "high energy with short punchy sentences",
		vocabulary: []string{"let's go", "huge", "game-changer"},
		avoid:      []string{"perhaps", "somewhat", "it depends"},
		shift:      1,
	},
	entity.ToneEducational: {
		style:      "patient and clear, one idea at a time",
		vocabulary: []string{"here's how", "step one", "the reason is"},
		avoid:      []string{"obviously", "everyone knows"},
		shift:      -1,
	},
}

type typeDefaults struct {
	opening  string
	pacing   Pacing
	emphasis []string
}

var typeTable = map[entity.ScriptType]typeDefaults{
	entity.ScriptTypeSpeed: {
		opening:  "state the payoff directly in the first sentence",
		pacing:   PacingFast,
		emphasis: []string{"clarity", "actionability"},
	},
	entity.ScriptTypeEducational: {
		opening:  "open with a surprising fact or question that frames a problem",
		pacing:   PacingModerate,
		emphasis: []string{"understanding", "credibility"},
	},
	entity.ScriptTypeViral: {
		opening:  "open with a bold pattern interrupt",
		pacing:   PacingFast,
		emphasis: []string{"curiosity", "shareability"},
	},
}

// Enrich 合并请求与上下文。duration 必须已通过校验。
func Enrich(input entity.ScriptRequest, sc entity.ScriptContext) EnrichedInput {
	metrics, _ := budget.Lookup(input.Duration)

	return EnrichedInput{
		Input:   input,
		Context: sc,
		Enrichments: Enrichments{
			TargetWordCount: metrics.TotalWords,
			ComponentWordCounts: ComponentWordCounts{
				Hook:         metrics.Hook.Words,
				Bridge:       metrics.Bridge.Words,
				GoldenNugget: metrics.Nugget.Words,
				WTA:          metrics.WTA.Words,
			},
			Metrics:           metrics,
			VoiceGuidelines:   voiceGuidelines(input.Tone, sc),
			ContentGuidelines: contentGuidelines(input, sc),
		},
	}
}

// voiceGuidelines 分层：语气默认 < 口吻画像 < 负面关键词
func voiceGuidelines(tone entity.Tone, sc entity.ScriptContext) VoiceGuidelines {
	def := toneTable[tone]
	g := VoiceGuidelines{
		Tone:         tone,
		Style:        def.style,
		Vocabulary:   append([]string(nil), def.vocabulary...),
		AvoidPhrases: append([]string(nil), def.avoid...),
	}

	if v := sc.Voice; v != nil {
		g.PersonaName = v.Name
		if strings.TrimSpace(v.Tone) != "" {
			g.Style = v.Tone
		}
		if len(v.Vocabulary) > 0 {
			g.Vocabulary = append([]string(nil), v.Vocabulary...)
		}
		g.AvoidPhrases = appendUnique(g.AvoidPhrases, v.AvoidPhrases...)
		g.SampleLines = append([]string(nil), v.SampleLines...)
	}

	if len(sc.NegativeKeywords) > 0 {
		g.AvoidPhrases = appendUnique(g.AvoidPhrases, sc.NegativeKeywords...)
		g.Vocabulary = removeAll(g.Vocabulary, sc.NegativeKeywords)
	}
	return g
}

func contentGuidelines(input entity.ScriptRequest, sc entity.ScriptContext) ContentGuidelines {
	def := typeTable[input.Type]
	g := ContentGuidelines{
		OpeningStyle: def.opening,
		Pacing:       shiftPacing(def.pacing, toneTable[input.Tone].shift),
		Emphasis:     append([]string(nil), def.emphasis...),
	}

	switch {
	case input.Duration.IsShort():
		g.Pacing = PacingFast
		g.Emphasis = append(g.Emphasis, EmphasisImmediacy)
	case input.Duration.IsLong():
		g.Emphasis = append(g.Emphasis, EmphasisDepth)
	}

	if sc.Profile != nil {
		g.Audience = sc.Profile.Audience
		g.Niche = sc.Profile.Niche
	}
	return g
}

func shiftPacing(base Pacing, shift int) Pacing {
	idx := 0
	for i, p := range pacingSteps {
		if p == base {
			idx = i
		}
	}
	if shift > 1 {
		shift = 1
	} else if shift < -1 {
		shift = -1
	}
	idx += shift
	if idx < 0 {
		idx = 0
	}
	if idx >= len(pacingSteps) {
		idx = len(pacingSteps) - 1
	}
	return pacingSteps[idx]
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(items))
	for _, s := range dst {
		seen[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}

func removeAll(list, banned []string) []string {
	if len(list) == 0 {
		return list
	}
	drop := make(map[string]struct{}, len(banned))
	for _, b := range banned {
		drop[strings.ToLower(strings.TrimSpace(b))] = struct{}{}
	}
	out := list[:0]
	for _, s := range list {
		if _, ok := drop[strings.ToLower(s)]; !ok {
			out = append(out, s)
		}
	}
	return out
}

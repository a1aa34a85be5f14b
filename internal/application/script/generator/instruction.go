package generator

import (
	"context"
	"fmt"
	"strings"

	"shortscript-api/internal/application/script/enrich"
	"shortscript-api/internal/application/script/library"
	"shortscript-api/internal/application/script/rules"
	"shortscript-api/internal/domain/entity"
	workflowchain "shortscript-api/internal/workflow/chain"
	wfmodel "shortscript-api/internal/workflow/model"
	wfnode "shortscript-api/internal/workflow/node"
)

const (
	defaultHookExampleLimit = 5
	maxNotesRunes           = 2000
	creativeTemperatureBump = 0.15
)

// BuildInput 将富化输入与规则渲染为模板变量
func (g *Generator) BuildInput(in enrich.EnrichedInput, r rules.GenerationRules) *wfmodel.ScriptGenerateInput {
	req := in.Input
	counts := in.Enrichments.ComponentWordCounts

	out := &wfmodel.ScriptGenerateInput{
		Idea:            req.Idea,
		ScriptType:      string(req.Type),
		Tone:            string(req.Tone),
		Platform:        g.platformFor(in.Context),
		DurationSeconds: req.Duration.Seconds(),
		TargetWords:     in.Enrichments.TargetWordCount,
		HookWords:       counts.Hook,
		BridgeWords:     counts.Bridge,
		NuggetWords:     counts.GoldenNugget,
		WTAWords:        counts.WTA,
		DurationGuide:   g.lib.DurationPrompt(req.Duration),
		VoiceBlock:      voiceBlock(in.Enrichments.VoiceGuidelines),
		ContentBlock:    contentBlock(in.Enrichments.ContentGuidelines),
		HookGuide:       g.hookGuide(req, in.Enrichments.ContentGuidelines, r.Generators.Hook),
		StructureGuide:  g.structureGuide(r),
		RulesBlock:      rulesBlock(in.Enrichments.VoiceGuidelines.AvoidPhrases, r.Constraints),
		NotesBlock:      notesBlock(req.Notes(), req.ReferenceMode()),
		Provider:        g.opts.Provider,
		Model:           g.opts.Model,
	}

	if g.opts.Temperature > 0 {
		temp := g.opts.Temperature
		if r.Constraints.AllowCreativeDeviation {
			temp = min(temp+creativeTemperatureBump, 1)
		}
		out.Temperature = &temp
	}
	if g.opts.MaxTokens > 0 {
		maxTokens := g.opts.MaxTokens
		out.MaxTokens = &maxTokens
	}
	return out
}

// Instruction 返回渲染后的完整指令文本
func (g *Generator) Instruction(ctx context.Context, in enrich.EnrichedInput, r rules.GenerationRules) (string, error) {
	msgs, err := workflowchain.FormatScriptMessages(ctx, g.BuildInput(in, r))
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (g *Generator) platformFor(sc entity.ScriptContext) string {
	if sc.Profile != nil && strings.TrimSpace(sc.Profile.Platform) != "" {
		return strings.TrimSpace(sc.Profile.Platform)
	}
	if g.opts.Platform != "" {
		return g.opts.Platform
	}
	return "TikTok"
}

func voiceBlock(v enrich.VoiceGuidelines) string {
	head := []string{"Style: " + v.Style}
	if v.PersonaName != "" {
		head = append(head, "Persona: "+v.PersonaName)
	}
	return wfnode.JoinBlocks(
		strings.Join(head, "\n"),
		wfnode.BuildBulletBlock("Words and phrases that fit this voice", v.Vocabulary),
		wfnode.BuildBulletBlock("Lines that show how this creator sounds", v.SampleLines),
	)
}

func contentBlock(c enrich.ContentGuidelines) string {
	lines := []string{
		"Opening: " + c.OpeningStyle,
		"Pacing: " + string(c.Pacing),
	}
	if len(c.Emphasis) > 0 {
		lines = append(lines, "Emphasis: "+strings.Join(c.Emphasis, ", "))
	}
	if c.Audience != "" {
		lines = append(lines, "Audience: "+c.Audience)
	}
	if c.Niche != "" {
		lines = append(lines, "Niche: "+c.Niche)
	}
	return strings.Join(lines, "\n")
}

func (g *Generator) hookGuide(req entity.ScriptRequest, c enrich.ContentGuidelines, s rules.Strategy) string {
	if s == rules.StrategyAI {
		return fmt.Sprintf("Write an original hook. %s. Do not use a stock template.", capitalize(c.OpeningStyle))
	}

	limit := g.opts.HookExampleLimit
	if limit <= 0 {
		limit = defaultHookExampleLimit
	}
	examples := g.lib.GetExamples(library.Filter{Tone: string(req.Tone), Limit: limit})
	if len(examples) == 0 {
		examples = g.lib.GetExamples(library.Filter{Limit: limit})
	}

	lines := make([]string, 0, len(examples))
	for _, ex := range examples {
		lines = append(lines, fmt.Sprintf("%s (for example: %s)", ex.Pattern, ex.Example))
	}
	title := "Adapt one of these proven hook patterns to the idea. Fill the slots, never copy an example word for word"
	if s == rules.StrategyHybrid {
		title = "Use these hook patterns as inspiration and paraphrase freely"
	}
	return wfnode.BuildBulletBlock(title, lines)
}

func (g *Generator) structureGuide(r rules.GenerationRules) string {
	var lead string
	switch r.Generators.Script {
	case rules.StrategyTemplate:
		lead = "Follow this structure exactly."
	case rules.StrategyHybrid:
		lead = "Use this structure as a guide and adapt it to the idea."
	default:
		lead = "Structure is up to you as long as all four sections are present."
	}

	lines := []string{lead, g.lib.StructurePrompt(string(r.Generators.Formula))}
	if r.Constraints.StrictWordCount {
		lines = append(lines, "Stay within 10% of each section's word budget.")
	} else {
		lines = append(lines, "Word budgets are targets. Going over or under is fine when it makes the script stronger.")
	}
	switch r.Generators.Enhancement {
	case rules.EnhancementLight:
		lines = append(lines, "Polish lightly. Keep the language plain.")
	case rules.EnhancementModerate:
		lines = append(lines, "Tighten every line and add one vivid detail.")
	case rules.EnhancementHeavy:
		lines = append(lines, "Rework every line for rhythm and surprise. Use concrete images and specific numbers.")
	}
	return strings.Join(lines, "\n")
}

func rulesBlock(avoid []string, c rules.Constraints) string {
	return wfnode.JoinBlocks(
		library.BannedOpenersInstruction,
		wfnode.BuildBulletBlock("Never use these words or phrases", avoid),
		fmt.Sprintf("Quality bar: %.2f on a 0 to 1 scale. Rewrite any line below it before answering.", c.QualityThreshold),
	)
}

func notesBlock(notes string, mode entity.ReferenceMode) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ""
	}
	var lead string
	switch mode {
	case entity.ReferenceModeInspiration:
		lead = "Reference notes. Use them loosely as inspiration:"
	case entity.ReferenceModeTemplate:
		lead = "Reference notes. Follow their structure and phrasing style closely:"
	case entity.ReferenceModeComprehensive:
		lead = "Reference notes. Draw on anything in them freely:"
	default:
		lead = "Reference notes. Treat them as factual reference and do not contradict them:"
	}
	return lead + "\n" + wfnode.TruncateByRunes(notes, maxNotesRunes)
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

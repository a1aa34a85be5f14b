package parse

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Strategy 命中的解析策略
type Strategy string

const (
	StrategyStructured   Strategy = "structured"
	StrategyLabeled      Strategy = "labeled"
	StrategyInlineTags   Strategy = "inline_tags"
	StrategyParagraphs   Strategy = "paragraphs"
	StrategyProportional Strategy = "proportional"
)

type section int

const (
	secHook section = iota
	secBridge
	secNugget
	secWTA
)

// Sections 四段内容
type Sections struct {
	Hook         string `json:"hook"`
	Bridge       string `json:"bridge"`
	GoldenNugget string `json:"golden_nugget"`
	WTA          string `json:"wta"`
}

func (s *Sections) set(sec section, v string) {
	switch sec {
	case secHook:
		s.Hook = v
	case secBridge:
		s.Bridge = v
	case secNugget:
		s.GoldenNugget = v
	case secWTA:
		s.WTA = v
	}
}

func (s *Sections) get(sec section) string {
	switch sec {
	case secHook:
		return s.Hook
	case secBridge:
		return s.Bridge
	case secNugget:
		return s.GoldenNugget
	default:
		return s.WTA
	}
}

func (s *Sections) appendTo(sec section, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if cur := s.get(sec); cur != "" {
		v = cur + " " + v
	}
	s.set(sec, v)
}

func (s Sections) complete() bool {
	return s.Hook != "" && s.Bridge != "" && s.GoldenNugget != "" && s.WTA != ""
}

func (s Sections) clean() Sections {
	c := func(v string) string { return Clean(stripMarkers(v)) }
	return Sections{
		Hook:         c(s.Hook),
		Bridge:       c(s.Bridge),
		GoldenNugget: c(s.GoldenNugget),
		WTA:          c(s.WTA),
	}
}

// Result 解析结果
type Result struct {
	Sections
	Strategy Strategy `json:"strategy"`
}

var (
	pauseMarker = regexp.MustCompile(`(?i)[(\[]\s*(?:(?:long|short|brief|dramatic)\s+)?(?:pause|beat|breath|breathe)[^)\]]*[)\]]`)
	emphasis    = regexp.MustCompile(`\*\*|__`)

	labelPattern = regexp.MustCompile(`(?im)^[ \t>#*_-]*(hook|bridge|golden[ _-]?nugget|nugget|cta|wta|call[ _-]to[ _-]action)[*_ \t]*(?:\([^)\n]*\))?[*_ \t]*:[*_ \t]*`)
	tagPattern   = regexp.MustCompile(`(?i)\(\s*(hook|bridge|golden[ _-]?nugget|nugget|cta|wta|call[ _-]to[ _-]action)\s*\)`)
	paragraphSep = regexp.MustCompile(`\n\s*\n`)
	sentenceRe   = regexp.MustCompile(`[^.!?]+[.!?]+["')\]]*|[^.!?]+$`)

	// 单行输出中的大写标签，如 "HOOK: ... BRIDGE: ..."
	inlineLabelPattern = regexp.MustCompile(`\b(HOOK|BRIDGE|GOLDEN[ _-]?NUGGET|NUGGET|CTA|WTA|CALL[ _-]TO[ _-]ACTION)[*_ \t]*:[*_ \t]*`)
)

// Clean 去除停顿标记并规范空白
func Clean(s string) string {
	s = pauseMarker.ReplaceAllString(s, " ")
	s = emphasis.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// stripMarkers 去除残留的分段标签与标记
func stripMarkers(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = labelPattern.ReplaceAllString(s, "")
	return inlineLabelPattern.ReplaceAllString(s, " ")
}

func sectionFor(label string) (section, bool) {
	l := strings.ToLower(label)
	l = strings.NewReplacer("_", "", "-", "", " ", "").Replace(l)
	switch l {
	case "hook":
		return secHook, true
	case "bridge":
		return secBridge, true
	case "goldennugget", "nugget":
		return secNugget, true
	case "cta", "wta", "calltoaction":
		return secWTA, true
	}
	return 0, false
}

// Parse 依次尝试各策略，全部失败返回 nil
func Parse(p RawCompletionPayload) *Result {
	switch p.Kind {
	case KindEmpty:
		return nil
	case KindObject:
		if s, ok := fromObject(p.Object); ok {
			return &Result{Sections: s, Strategy: StrategyStructured}
		}
	case KindList:
		if s, ok := fromList(p.List); ok {
			return &Result{Sections: s, Strategy: StrategyStructured}
		}
	case KindText:
	default:
		panic(fmt.Sprintf("parse: unknown payload kind %d", p.Kind))
	}

	if strings.TrimSpace(p.Text) == "" {
		return nil
	}
	// 整段输出就是残缺的 JSON 时，文本策略只会切出 JSON 片段
	if p.Kind != KindText && isBareJSON(p.Text) {
		return nil
	}
	return parseText(p.Text)
}

func isBareJSON(text string) bool {
	t := strings.TrimSpace(stripCodeFence(strings.TrimSpace(text)))
	if t == "" {
		return false
	}
	first, last := t[0], t[len(t)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// ParseText 解析纯文本输出
func ParseText(text string) *Result {
	return Parse(FromText(text))
}

func parseText(text string) *Result {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if s, ok := fromLabeled(text); ok {
		return &Result{Sections: s, Strategy: StrategyLabeled}
	}
	if s, ok := fromInlineTags(text); ok {
		return &Result{Sections: s, Strategy: StrategyInlineTags}
	}
	if s, ok := fromParagraphs(text); ok {
		return &Result{Sections: s, Strategy: StrategyParagraphs}
	}
	if s, ok := fromProportional(text); ok {
		return &Result{Sections: s, Strategy: StrategyProportional}
	}
	return nil
}

func fromObject(obj map[string]any) (Sections, bool) {
	var s Sections
	for k, v := range obj {
		norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(k))
		if norm == "script" {
			if inner, ok := v.(map[string]any); ok {
				return fromObject(inner)
			}
			continue
		}
		sec, ok := sectionFor(norm)
		if !ok {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		s.set(sec, str)
	}
	s = s.clean()
	return s, s.complete()
}

// fromList 有序列表：首项 hook，第二项 bridge，末项 wta，中间合并为 golden nugget
func fromList(list []any) (Sections, bool) {
	items := make([]string, 0, len(list))
	for _, v := range list {
		str, ok := v.(string)
		if !ok {
			return Sections{}, false
		}
		if str = strings.TrimSpace(str); str != "" {
			items = append(items, str)
		}
	}
	if len(items) < 4 {
		return Sections{}, false
	}
	s := orderedSections(items).clean()
	return s, s.complete()
}

func orderedSections(items []string) Sections {
	n := len(items)
	return Sections{
		Hook:         items[0],
		Bridge:       items[1],
		GoldenNugget: strings.Join(items[2:n-1], " "),
		WTA:          items[n-1],
	}
}

// fromLabeled 先按行首标签切分，失败再按行内大写标签切分
func fromLabeled(text string) (Sections, bool) {
	if s, ok := splitByLabels(text, labelPattern); ok {
		return s, true
	}
	return splitByLabels(text, inlineLabelPattern)
}

func splitByLabels(text string, re *regexp.Regexp) (Sections, bool) {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return Sections{}, false
	}

	var s Sections
	for i, loc := range locs {
		sec, ok := sectionFor(text[loc[2]:loc[3]])
		if !ok {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		s.appendTo(sec, text[loc[1]:end])
	}
	s = s.clean()
	return s, s.complete()
}

// fromInlineTags 处理 (Hook) / (Bridge) 等行内标记。
//
// 文本以标记开头时标记修饰其后的内容，否则修饰其前的内容。
// 首行包含 (Bridge) 且全文没有 (Hook) 时，首行中 (Bridge) 之前为 hook、之后到下一个标记为 bridge；
// 只有这种情况允许 bridge 为空，其余三段仍必须非空。
func fromInlineTags(text string) (Sections, bool) {
	text = strings.TrimSpace(text)
	locs := tagPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return Sections{}, false
	}

	type tag struct {
		sec        section
		start, end int
	}
	tags := make([]tag, 0, len(locs))
	hasHook := false
	for _, loc := range locs {
		sec, _ := sectionFor(text[loc[2]:loc[3]])
		if sec == secHook {
			hasHook = true
		}
		tags = append(tags, tag{sec: sec, start: loc[0], end: loc[1]})
	}

	var s Sections
	quirk := false
	if tags[0].start == 0 {
		for i, t := range tags {
			end := len(text)
			if i+1 < len(tags) {
				end = tags[i+1].start
			}
			s.appendTo(t.sec, text[t.end:end])
		}
	} else {
		cursor := 0
		firstLineEnd := strings.IndexByte(text, '\n')
		if firstLineEnd < 0 {
			firstLineEnd = len(text)
		}
		if !hasHook && tags[0].sec == secBridge && tags[0].end <= firstLineEnd {
			quirk = true
			s.appendTo(secHook, text[:tags[0].start])
			// 首行其余标记修饰其后的内容，直到下一个标记或行尾
			n := 1
			for n < len(tags) && tags[n].start < firstLineEnd {
				n++
			}
			for i := 0; i < n; i++ {
				end := firstLineEnd
				if i+1 < n {
					end = tags[i+1].start
				}
				s.appendTo(tags[i].sec, text[tags[i].end:end])
			}
			cursor = firstLineEnd
			tags = tags[n:]
		}
		for _, t := range tags {
			if t.start < cursor {
				continue
			}
			s.appendTo(t.sec, text[cursor:t.start])
			cursor = t.end
		}
		if s.WTA == "" {
			s.appendTo(secWTA, text[cursor:])
		}
	}

	s = s.clean()
	if quirk && s.Bridge == "" {
		return s, s.Hook != "" && s.GoldenNugget != "" && s.WTA != ""
	}
	return s, s.complete()
}

func fromParagraphs(text string) (Sections, bool) {
	var paras []string
	for _, p := range paragraphSep.Split(strings.TrimSpace(stripMarkers(text)), -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) < 4 {
		return Sections{}, false
	}
	s := orderedSections(paras).clean()
	return s, s.complete()
}

// fromProportional 按句子比例切分：约 20% hook、20% bridge、15% wta，其余为 golden nugget。
// 这是兜底近似，不保证语义正确。
func fromProportional(text string) (Sections, bool) {
	var sentences []string
	for _, m := range sentenceRe.FindAllString(Clean(stripMarkers(text)), -1) {
		if m = strings.TrimSpace(m); m != "" {
			sentences = append(sentences, m)
		}
	}
	n := len(sentences)
	if n < 4 {
		return Sections{}, false
	}

	share := func(ratio float64) int {
		return max(1, int(math.Round(float64(n)*ratio)))
	}
	hookN, bridgeN, wtaN := share(0.2), share(0.2), share(0.15)
	for n-hookN-bridgeN-wtaN < 1 {
		switch {
		case wtaN > 1:
			wtaN--
		case bridgeN > 1:
			bridgeN--
		default:
			hookN--
		}
	}

	join := func(from, to int) string { return strings.Join(sentences[from:to], " ") }
	s := Sections{
		Hook:         join(0, hookN),
		Bridge:       join(hookN, hookN+bridgeN),
		GoldenNugget: join(hookN+bridgeN, n-wtaN),
		WTA:          join(n-wtaN, n),
	}.clean()
	return s, s.complete()
}

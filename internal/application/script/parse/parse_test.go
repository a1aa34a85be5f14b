package parse

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_StructuredObjectIsIdentity(t *testing.T) {
	obj := map[string]any{
		"hook":         "Stop highlighting your books.",
		"bridge":       "It feels productive but your brain skips it.",
		"goldenNugget": "Close the book after each chapter and explain it out loud in one minute.",
		"wta":          "Try it tonight and tell me what stuck.",
	}

	res := Parse(FromValue(obj))
	require.NotNil(t, res)
	assert.Equal(t, StrategyStructured, res.Strategy)
	assert.Equal(t, obj["hook"], res.Hook)
	assert.Equal(t, obj["bridge"], res.Bridge)
	assert.Equal(t, obj["goldenNugget"], res.GoldenNugget)
	assert.Equal(t, obj["wta"], res.WTA)
}

func TestParse_ObjectAliasesAndWrapper(t *testing.T) {
	res := ParseText("```json\n" + `{"script": {"Hook": "A.", "bridge": "B.", "golden_nugget": "C.", "call_to_action": "D."}}` + "\n```")
	require.NotNil(t, res)
	assert.Equal(t, StrategyStructured, res.Strategy)
	assert.Equal(t, Sections{Hook: "A.", Bridge: "B.", GoldenNugget: "C.", WTA: "D."}, res.Sections)

	res = ParseText(`Here you go: {"hook":"A.","bridge":"B.","nugget":"C.","cta":"D."} Enjoy!`)
	require.NotNil(t, res)
	assert.Equal(t, "D.", res.WTA)
}

func TestParse_IncompleteObjectIsRejected(t *testing.T) {
	res := ParseText(`{"hook": "only a hook"}`)
	assert.Nil(t, res)
}

func TestParse_OrderedList(t *testing.T) {
	res := Parse(FromValue([]string{"Hook line.", "Bridge line.", "Point one.", "Point two.", "Follow for more."}))
	require.NotNil(t, res)
	assert.Equal(t, StrategyStructured, res.Strategy)
	assert.Equal(t, "Hook line.", res.Hook)
	assert.Equal(t, "Bridge line.", res.Bridge)
	assert.Equal(t, "Point one. Point two.", res.GoldenNugget)
	assert.Equal(t, "Follow for more.", res.WTA)

	assert.Nil(t, Parse(FromValue([]string{"a", "b", "c"})))
}

func TestParse_LabeledColon(t *testing.T) {
	text := `**HOOK:** Stop highlighting your books.
BRIDGE (3s): It feels productive, but your brain skips it.
Golden Nugget:
Close the book after each chapter.
Explain it out loud in one minute.
CTA: Try it tonight.`

	res := ParseText(text)
	require.NotNil(t, res)
	assert.Equal(t, StrategyLabeled, res.Strategy)
	assert.Equal(t, "Stop highlighting your books.", res.Hook)
	assert.Equal(t, "It feels productive, but your brain skips it.", res.Bridge)
	assert.Equal(t, "Close the book after each chapter. Explain it out loud in one minute.", res.GoldenNugget)
	assert.Equal(t, "Try it tonight.", res.WTA)
}

func TestParse_InlineTagsFirstLineBridgeQuirk(t *testing.T) {
	res := ParseText("Is AI scary? (Bridge)\nHere's why. (Golden Nugget)\nFollow now! (CTA)")
	require.NotNil(t, res)
	assert.Equal(t, StrategyInlineTags, res.Strategy)

	// 首行 (Bridge) 之前的文本归入 hook，其后为空，bridge 保持未解析
	assert.Equal(t, "Is AI scary?", res.Hook)
	assert.Equal(t, "", res.Bridge)
	assert.Equal(t, "Here's why.", res.GoldenNugget)
	assert.Equal(t, "Follow now!", res.WTA)
}

func TestParse_InlineTagsSuffixStyle(t *testing.T) {
	res := ParseText("Stop scrolling. (Hook) This one habit changed my mornings. (Bridge) Drink water before coffee. (Golden Nugget) Save this for tomorrow. (CTA)")
	require.NotNil(t, res)
	assert.Equal(t, StrategyInlineTags, res.Strategy)
	assert.Equal(t, Sections{
		Hook:         "Stop scrolling.",
		Bridge:       "This one habit changed my mornings.",
		GoldenNugget: "Drink water before coffee.",
		WTA:          "Save this for tomorrow.",
	}, res.Sections)
}

func TestParse_InlineTagsPrefixStyle(t *testing.T) {
	res := ParseText("(Hook) Stop scrolling. (Bridge) Here's the trick. (Golden Nugget) Read one page first. (WTA) Follow for part two.")
	require.NotNil(t, res)
	assert.Equal(t, Sections{
		Hook:         "Stop scrolling.",
		Bridge:       "Here's the trick.",
		GoldenNugget: "Read one page first.",
		WTA:          "Follow for part two.",
	}, res.Sections)
}

func TestParse_InlineTagsTrailingTextOnlyFillsEmptyWTA(t *testing.T) {
	res := ParseText("Stop scrolling. (Hook) Here's the trick. (Bridge) Read one page first. (Golden Nugget) Follow for part two.")
	require.NotNil(t, res)
	assert.Equal(t, "Follow for part two.", res.WTA)

	res = ParseText("Stop scrolling. (Hook) Here's the trick. (Bridge) Read one page first. (Golden Nugget) Follow now. (CTA) Thanks for watching.")
	require.NotNil(t, res)
	assert.Equal(t, "Follow now.", res.WTA)
}

func TestParse_InlineTagsFirstLineBridgeStopsAtNextTag(t *testing.T) {
	res := ParseText("Is AI scary? (Bridge) Here's why it matters. (Golden Nugget) It only predicts words.\nFollow now! (CTA)")
	require.NotNil(t, res)
	assert.Equal(t, StrategyInlineTags, res.Strategy)
	assert.Equal(t, Sections{
		Hook:         "Is AI scary?",
		Bridge:       "Here's why it matters.",
		GoldenNugget: "It only predicts words.",
		WTA:          "Follow now!",
	}, res.Sections)
}

func TestParse_SingleLineLabels(t *testing.T) {
	res := ParseText("HOOK: Stop scrolling now. BRIDGE: Here is why it matters. GOLDEN NUGGET: Read one page a day. CTA: Follow for more.")
	require.NotNil(t, res)
	assert.Equal(t, StrategyLabeled, res.Strategy)
	assert.Equal(t, Sections{
		Hook:         "Stop scrolling now.",
		Bridge:       "Here is why it matters.",
		GoldenNugget: "Read one page a day.",
		WTA:          "Follow for more.",
	}, res.Sections)
}

func TestParse_IncompleteSectionsAreRejected(t *testing.T) {
	cases := map[string]string{
		"two inline tags":        "Stop scrolling right now. (Hook) Read one page before bed every night and summarize it. (Golden Nugget)",
		"two line labels":        "HOOK: Stop scrolling now.\nGOLDEN NUGGET: Read one page a day.",
		"two single-line labels": "HOOK: Stop scrolling now. GOLDEN NUGGET: Read one page a day.",
		"object missing wta":     `{"hook":"Stop scrolling.","bridge":"Here is why.","golden_nugget":"Read one page.","wta":""}`,
		"fenced object missing":  "```json\n{\"hook\":\"A.\",\"bridge\":\"B.\",\"golden_nugget\":\"C.\"}\n```",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, ParseText(text))
		})
	}
}

var leakedMarker = regexp.MustCompile(`(?i)\(\s*(hook|bridge|golden nugget|cta|wta)\s*\)|\b(hook|bridge|golden nugget|cta|wta)\s*:`)

func TestParse_NoSectionMarkersInAnyStrategy(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		strategy Strategy
	}{
		{"labeled", "HOOK: Stop scrolling.\nBRIDGE: Here is why.\nGOLDEN NUGGET: Read one page.\nCTA: Follow for more.", StrategyLabeled},
		{"single-line labels", "HOOK: Stop scrolling. BRIDGE: Here is why. GOLDEN NUGGET: Read one page. WTA: Follow for more.", StrategyLabeled},
		{"inline tags", "Stop scrolling. (Hook) Here is why. (Bridge) Read one page. (Golden Nugget) Follow for more. (CTA)", StrategyInlineTags},
		{"first-line quirk", "Is AI scary? (Bridge) Here's why. (Golden Nugget) It predicts words.\nFollow now! (CTA)", StrategyInlineTags},
		{"paragraphs with stray tags", "Stop scrolling. (Hook)\n\nHere is why.\n\nRead one page.\n\nFollow for more. (CTA)", StrategyParagraphs},
		{"proportional with stray tag", "Stop scrolling now. (Hook) Here is one idea. Another idea follows. Then a third idea. Follow for more.", StrategyProportional},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ParseText(tc.text)
			require.NotNil(t, res)
			assert.Equal(t, tc.strategy, res.Strategy)
			for _, part := range []string{res.Hook, res.Bridge, res.GoldenNugget, res.WTA} {
				assert.NotRegexp(t, leakedMarker, part)
			}
			assert.NotEmpty(t, res.Hook)
			assert.NotEmpty(t, res.GoldenNugget)
			assert.NotEmpty(t, res.WTA)
		})
	}
}

func TestParse_Paragraphs(t *testing.T) {
	text := "Stop highlighting your books.\n\nIt feels productive.\n\nClose the book.\n\nExplain it out loud.\n\nFollow for more."

	res := ParseText(text)
	require.NotNil(t, res)
	assert.Equal(t, StrategyParagraphs, res.Strategy)
	assert.Equal(t, "Stop highlighting your books.", res.Hook)
	assert.Equal(t, "It feels productive.", res.Bridge)
	assert.Equal(t, "Close the book. Explain it out loud.", res.GoldenNugget)
	assert.Equal(t, "Follow for more.", res.WTA)
}

// 比例切分只是近似兜底，这里只断言切分位置而非语义
func TestParse_ProportionalFallbackIsApproximate(t *testing.T) {
	text := "One. Two. Three. Four. Five. Six. Seven. Eight. Nine. Ten."

	res := ParseText(text)
	require.NotNil(t, res)
	assert.Equal(t, StrategyProportional, res.Strategy)
	assert.Equal(t, "One. Two.", res.Hook)
	assert.Equal(t, "Three. Four.", res.Bridge)
	assert.Equal(t, "Five. Six. Seven. Eight.", res.GoldenNugget)
	assert.Equal(t, "Nine. Ten.", res.WTA)

	res = ParseText("Short one. Short two. Short three. Short four.")
	require.NotNil(t, res)
	assert.Equal(t, "Short four.", res.WTA)

	assert.Nil(t, ParseText("Only one sentence. And two. And three."))
}

func TestParse_StripsPauseMarkersAndWhitespace(t *testing.T) {
	res := ParseText("HOOK: Stop   scrolling (pause) now.\nBRIDGE: Here's [beat] why.\nGOLDEN NUGGET: Read\n\tfirst (long pause).\nWTA: Follow (breath) me.")
	require.NotNil(t, res)
	assert.Equal(t, "Stop scrolling now.", res.Hook)
	assert.Equal(t, "Here's why.", res.Bridge)
	assert.Equal(t, "Read first .", res.GoldenNugget)
	assert.Equal(t, "Follow me.", res.WTA)
}

func TestParse_Empty(t *testing.T) {
	assert.Nil(t, ParseText("   "))
	assert.Nil(t, Parse(FromValue(nil)))
	assert.Nil(t, Parse(RawCompletionPayload{Kind: KindEmpty, Text: "ignored"}))
}

func TestFromText_Classification(t *testing.T) {
	assert.Equal(t, KindObject, FromText(`{"a":1}`).Kind)
	assert.Equal(t, KindList, FromText(`["a","b"]`).Kind)
	assert.Equal(t, KindText, FromText("Tip [pause] here").Kind)
	assert.Equal(t, KindEmpty, FromText("").Kind)
}

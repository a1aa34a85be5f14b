// Package parse 从模型输出中提取 hook / bridge / golden nugget / wta 四段。
package parse

import (
	"encoding/json"
	"strings"

	"shortscript-api/internal/workflow/node"
)

// Kind 原始输出形态
type Kind int

const (
	KindEmpty Kind = iota
	KindObject
	KindList
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// RawCompletionPayload 模型输出的显式联合类型
//
// Text 始终保存原始文本（若有），对象或列表无法归一化时回退到文本策略。
type RawCompletionPayload struct {
	Kind   Kind
	Object map[string]any
	List   []any
	Text   string
}

// FromText 将模型文本输出分类为对象、列表或纯文本
func FromText(s string) RawCompletionPayload {
	text := strings.TrimSpace(s)
	if text == "" {
		return RawCompletionPayload{Kind: KindEmpty}
	}

	candidate := node.ExtractJSONObject(stripCodeFence(text))
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err == nil {
		switch val := v.(type) {
		case map[string]any:
			return RawCompletionPayload{Kind: KindObject, Object: val, Text: text}
		case []any:
			return RawCompletionPayload{Kind: KindList, List: val, Text: text}
		}
	}
	return RawCompletionPayload{Kind: KindText, Text: text}
}

// FromValue 将已解码的结构化输出分类
func FromValue(v any) RawCompletionPayload {
	switch val := v.(type) {
	case nil:
		return RawCompletionPayload{Kind: KindEmpty}
	case map[string]any:
		if len(val) == 0 {
			return RawCompletionPayload{Kind: KindEmpty}
		}
		return RawCompletionPayload{Kind: KindObject, Object: val}
	case []any:
		if len(val) == 0 {
			return RawCompletionPayload{Kind: KindEmpty}
		}
		return RawCompletionPayload{Kind: KindList, List: val}
	case []string:
		list := make([]any, len(val))
		for i, s := range val {
			list[i] = s
		}
		return FromValue(list)
	case string:
		return FromText(val)
	default:
		return RawCompletionPayload{Kind: KindEmpty}
	}
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

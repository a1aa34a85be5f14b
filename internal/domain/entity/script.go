// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// Duration 目标口播时长（秒），以字符串枚举传输
type Duration string

const (
	Duration15 Duration = "15"
	Duration20 Duration = "20"
	Duration30 Duration = "30"
	Duration45 Duration = "45"
	Duration60 Duration = "60"
	Duration90 Duration = "90"
)

// Seconds 返回时长秒数，未知值返回 0
func (d Duration) Seconds() int {
	switch d {
	case Duration15:
		return 15
	case Duration20:
		return 20
	case Duration30:
		return 30
	case Duration45:
		return 45
	case Duration60:
		return 60
	case Duration90:
		return 90
	}
	return 0
}

// IsShort 15/20 秒
func (d Duration) IsShort() bool { return d == Duration15 || d == Duration20 }

// IsLong 60/90 秒
func (d Duration) IsLong() bool { return d == Duration60 || d == Duration90 }

// ScriptType 脚本类型
type ScriptType string

const (
	ScriptTypeSpeed       ScriptType = "speed"
	ScriptTypeEducational ScriptType = "educational"
	ScriptTypeViral       ScriptType = "viral"
)

// Tone 语气
type Tone string

const (
	ToneCasual       Tone = "casual"
	ToneProfessional Tone = "professional"
	ToneEnergetic    Tone = "energetic"
	ToneEducational  Tone = "educational"
)

// ReferenceMode 参考资料使用方式
type ReferenceMode string

const (
	ReferenceModeInspiration   ReferenceMode = "inspiration"
	ReferenceModeReference     ReferenceMode = "reference"
	ReferenceModeTemplate      ReferenceMode = "template"
	ReferenceModeComprehensive ReferenceMode = "comprehensive"
)

// RequestContext 请求附带的可选上下文
type RequestContext struct {
	Notes         string        `json:"notes,omitempty"`
	VoiceID       string        `json:"voice_id,omitempty"`
	ReferenceMode ReferenceMode `json:"reference_mode,omitempty" validate:"omitempty,oneof=inspiration reference template comprehensive"`
}

// ScriptRequest 脚本生成请求（调用方提供，只读）
type ScriptRequest struct {
	Idea     string          `json:"idea" validate:"required,idea_len,idea_text"`
	Duration Duration        `json:"duration" validate:"required,oneof=15 20 30 45 60 90"`
	Type     ScriptType      `json:"type" validate:"required,oneof=speed educational viral"`
	Tone     Tone            `json:"tone" validate:"required,oneof=casual professional energetic educational"`
	Context  *RequestContext `json:"context,omitempty"`
}

// Notes 返回参考笔记，无上下文时为空
func (r ScriptRequest) Notes() string {
	if r.Context == nil {
		return ""
	}
	return r.Context.Notes
}

// ReferenceMode 返回参考模式，无上下文时为空
func (r ScriptRequest) ReferenceMode() ReferenceMode {
	if r.Context == nil {
		return ""
	}
	return r.Context.ReferenceMode
}

// ScriptMetadata 生成结果元数据
type ScriptMetadata struct {
	Duration          Duration   `json:"duration"`
	Type              ScriptType `json:"type"`
	Tone              Tone       `json:"tone"`
	WordCount         int        `json:"word_count"`
	EstimatedDuration float64    `json:"estimated_duration"`
	GeneratedAt       time.Time  `json:"generated_at"`
	Warnings          []string   `json:"warnings,omitempty"`
	ParseStrategy     string     `json:"parse_strategy,omitempty"`
	Provider          string     `json:"provider,omitempty"`
	Model             string     `json:"model,omitempty"`
}

// GeneratedScript 四段式口播脚本
type GeneratedScript struct {
	Hook         string         `json:"hook"`
	Bridge       string         `json:"bridge"`
	GoldenNugget string         `json:"golden_nugget"`
	WTA          string         `json:"wta"`
	Metadata     ScriptMetadata `json:"metadata"`
}

// FullText 按顺序拼接四段
func (s *GeneratedScript) FullText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{s.Hook, s.Bridge, s.GoldenNugget, s.WTA} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// CountWords 按空白切分统计单词数
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ScriptRecord 已保存的脚本
type ScriptRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Idea      string          `json:"idea"`
	Script    GeneratedScript `json:"script"`
	CreatedAt time.Time       `json:"created_at"`
}

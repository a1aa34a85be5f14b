package entity

import "time"

// UserProfile 用户创作档案
type UserProfile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Niche       string    `json:"niche,omitempty"`
	Audience    string    `json:"audience,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VoicePersona 口吻画像
type VoicePersona struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	Name         string    `json:"name"`
	Tone         string    `json:"tone,omitempty"`
	Vocabulary   []string  `json:"vocabulary,omitempty"`
	AvoidPhrases []string  `json:"avoid_phrases,omitempty"`
	SampleLines  []string  `json:"sample_lines,omitempty"`
	IsCustom     bool      `json:"is_custom"`
	IsDefault    bool      `json:"is_default"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScriptContext 个性化生成所需的用户上下文
type ScriptContext struct {
	UserID           string        `json:"user_id"`
	Profile          *UserProfile  `json:"profile"`
	Voice            *VoicePersona `json:"voice"`
	NegativeKeywords []string      `json:"negative_keywords"`
}

// HasCustomVoice 是否使用用户自定义口吻
func (c *ScriptContext) HasCustomVoice() bool {
	return c != nil && c.Voice != nil && c.Voice.IsCustom
}

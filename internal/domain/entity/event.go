package entity

import "time"

// 事件类型
const (
	EventScriptGenerated = "script.generated"
	EventProfileUpdated  = "profile.updated"
)

// ScriptGeneratedEvent 脚本生成完成
type ScriptGeneratedEvent struct {
	RequestID     string     `json:"request_id"`
	UserID        string     `json:"user_id"`
	Duration      Duration   `json:"duration"`
	Type          ScriptType `json:"type"`
	Tone          Tone       `json:"tone"`
	WordCount     int        `json:"word_count"`
	WithinBudget  bool       `json:"within_budget"`
	ParseStrategy string     `json:"parse_strategy"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

// ProfileUpdatedEvent 用户档案或口吻设置已变更，订阅方应失效该用户的上下文缓存
type ProfileUpdatedEvent struct {
	UserID    string    `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

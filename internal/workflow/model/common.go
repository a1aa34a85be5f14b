package model

import "time"

// LLMUsageMeta 单次生成的模型信息
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Temperature      float32
	GeneratedAt      time.Time
}

package model

// ScriptGenerateInput 脚本生成链的输入，字段与 script_gen_v1 模板变量一一对应
type ScriptGenerateInput struct {
	Idea            string
	ScriptType      string
	Tone            string
	Platform        string
	DurationSeconds int

	TargetWords int
	HookWords   int
	BridgeWords int
	NuggetWords int
	WTAWords    int

	DurationGuide  string
	VoiceBlock     string
	ContentBlock   string
	HookGuide      string
	StructureGuide string
	RulesBlock     string
	NotesBlock     string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int

	// DisableSchema 为 true 时不请求 json_schema 结构化输出
	DisableSchema bool
}

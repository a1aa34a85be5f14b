// Package prompt 管理内置的对话模板。
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptScriptGenV1 PromptID = "script_gen_v1"
)

// 模板中的分节标题。模型输出若包含这些标题，说明它回显了指令而非生成内容。
const (
	SectionWordBudget = "## WORD BUDGET"
	SectionDuration   = "## DURATION GUIDANCE"
	SectionVoice      = "## VOICE GUIDELINES"
	SectionContent    = "## CONTENT GUIDELINES"
	SectionHook       = "## HOOK GUIDANCE"
	SectionStructure  = "## STRUCTURE GUIDANCE"
	SectionRules      = "## RULES"
)

// GuidelineMarkers 用于回显检测的全部分节标题
var GuidelineMarkers = []string{
	SectionWordBudget,
	SectionDuration,
	SectionVoice,
	SectionContent,
	SectionHook,
	SectionStructure,
	SectionRules,
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptScriptGenV1:
		return "templates/script_gen_v1.system.txt", "templates/script_gen_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

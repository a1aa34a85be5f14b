// Package validate 对脚本生成请求做清洗与校验。
//
// 校验失败的请求不会触发任何 I/O；校验通过后下游只使用清洗后的副本。
package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"shortscript-api/internal/domain/entity"
)

const (
	MinIdeaLength  = 10
	MaxIdeaLength  = 1000
	MaxNotesLength = 5000
)

// Result 校验结果
type Result struct {
	IsValid   bool                  `json:"is_valid"`
	Errors    []string              `json:"errors"`
	Warnings  []string              `json:"warnings"`
	Sanitized *entity.ScriptRequest `json:"sanitized,omitempty"`
}

// Validator 请求校验器
type Validator struct {
	v *validator.Validate
}

// New 创建校验器并注册 idea 自定义规则
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("idea_len", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(fl.Field().String())
		return n >= MinIdeaLength && n <= MaxIdeaLength
	})
	_ = v.RegisterValidation("idea_text", func(fl validator.FieldLevel) bool {
		return hasLetterOrDigit(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate 清洗并校验请求
func (val *Validator) Validate(req entity.ScriptRequest) Result {
	sanitized := sanitize(req)
	res := Result{Errors: []string{}, Warnings: warnings(sanitized)}

	if err := val.v.Struct(sanitized); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			res.Errors = append(res.Errors, err.Error())
			return res
		}
		for _, fe := range verrs {
			res.Errors = append(res.Errors, message(fe, sanitized))
		}
		return res
	}

	res.IsValid = true
	res.Sanitized = &sanitized
	return res
}

func sanitize(req entity.ScriptRequest) entity.ScriptRequest {
	out := entity.ScriptRequest{
		Idea:     strings.TrimSpace(req.Idea),
		Duration: entity.Duration(strings.TrimSpace(string(req.Duration))),
		Type:     entity.ScriptType(strings.TrimSpace(string(req.Type))),
		Tone:     entity.Tone(strings.TrimSpace(string(req.Tone))),
	}
	if req.Context != nil {
		out.Context = &entity.RequestContext{
			Notes:         strings.TrimSpace(req.Context.Notes),
			VoiceID:       strings.TrimSpace(req.Context.VoiceID),
			ReferenceMode: entity.ReferenceMode(strings.TrimSpace(string(req.Context.ReferenceMode))),
		}
	}
	return out
}

func warnings(req entity.ScriptRequest) []string {
	out := []string{}
	if n := utf8.RuneCountInString(req.Notes()); n > MaxNotesLength {
		out = append(out, fmt.Sprintf("context notes are %d characters; only the first part is likely to be used (limit %d)", n, MaxNotesLength))
	}
	if req.Duration == entity.Duration15 && req.Type == entity.ScriptTypeEducational {
		out = append(out, "15-second educational scripts leave little room for explanation")
	}
	if req.Tone == entity.ToneProfessional && req.Type == entity.ScriptTypeViral {
		out = append(out, "professional tone may reduce the impact of a viral script")
	}
	if req.ReferenceMode() == entity.ReferenceModeComprehensive && req.Notes() == "" {
		out = append(out, "comprehensive reference mode without notes has nothing to reference")
	}
	if req.Type == entity.ScriptTypeSpeed && req.Duration == entity.Duration90 {
		out = append(out, "speed scripts usually work better under 60 seconds")
	}
	return out
}

func message(fe validator.FieldError, req entity.ScriptRequest) string {
	field := strings.ToLower(fe.Field())
	if fe.StructNamespace() == "ScriptRequest.Context.ReferenceMode" {
		field = "referenceMode"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "idea_len":
		if utf8.RuneCountInString(req.Idea) < MinIdeaLength {
			return fmt.Sprintf("idea must be at least %d characters", MinIdeaLength)
		}
		return fmt.Sprintf("idea must be at most %d characters", MaxIdeaLength)
	case "idea_text":
		return "idea must contain letters or digits, not only emoji, symbols or whitespace"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

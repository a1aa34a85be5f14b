// Package library 提供钩子示例、结构子提示与开场白禁用表。
package library

import (
	"embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"shortscript-api/internal/domain/entity"
)

//go:embed catalog/hooks.yaml
var catalogFS embed.FS

// Effectiveness 示例效果等级
type Effectiveness string

const (
	EffectivenessHigh   Effectiveness = "high"
	EffectivenessMedium Effectiveness = "medium"
	EffectivenessLow    Effectiveness = "low"
)

var tierOrder = []Effectiveness{EffectivenessHigh, EffectivenessMedium, EffectivenessLow}

// Example 钩子示例
type Example struct {
	ID            string        `yaml:"id" json:"id"`
	Category      string        `yaml:"category" json:"category"`
	Tones         []string      `yaml:"tones" json:"tones"`
	Effectiveness Effectiveness `yaml:"effectiveness" json:"effectiveness"`
	Pattern       string        `yaml:"pattern" json:"pattern"`
	Example       string        `yaml:"example" json:"example"`
}

func (e Example) hasTone(tone string) bool {
	for _, t := range e.Tones {
		if t == tone {
			return true
		}
	}
	return false
}

// Filter 示例筛选条件，零值字段不参与筛选
type Filter struct {
	Category      string
	Tone          string
	Effectiveness Effectiveness
	Limit         int
}

type catalog struct {
	Hooks      []Example         `yaml:"hooks"`
	Structures map[string]string `yaml:"structures"`
	Durations  map[string]string `yaml:"durations"`
}

// Library 只读示例库。随机源受锁保护，其余字段加载后不再修改。
type Library struct {
	examples   []Example
	structures map[string]string
	durations  map[string]string

	mu  sync.Mutex
	rnd *rand.Rand
}

// Load 加载内置示例库，使用基于时间的随机源
func Load() (*Library, error) {
	seed := uint64(time.Now().UnixNano())
	return LoadWithRand(rand.New(rand.NewPCG(seed, seed>>1|1)))
}

// LoadWithRand 使用指定随机源加载内置示例库
func LoadWithRand(rnd *rand.Rand) (*Library, error) {
	data, err := catalogFS.ReadFile("catalog/hooks.yaml")
	if err != nil {
		return nil, fmt.Errorf("read hook catalog: %w", err)
	}
	return Parse(data, rnd)
}

// MustLoad 加载失败时 panic
func MustLoad() *Library {
	lib, err := Load()
	if err != nil {
		panic(err)
	}
	return lib
}

// Parse 从 YAML 构建示例库
func Parse(data []byte, rnd *rand.Rand) (*Library, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse hook catalog: %w", err)
	}
	for i, ex := range c.Hooks {
		switch ex.Effectiveness {
		case EffectivenessHigh, EffectivenessMedium, EffectivenessLow:
		default:
			return nil, fmt.Errorf("hook %d (%s): invalid effectiveness %q", i, ex.ID, ex.Effectiveness)
		}
		if StartsWithBannedOpener(ex.Example) {
			return nil, fmt.Errorf("hook %d (%s): example uses a banned opener", i, ex.ID)
		}
	}
	return &Library{
		examples:   c.Hooks,
		structures: c.Structures,
		durations:  c.Durations,
		rnd:        rnd,
	}, nil
}

// GetExamples 按效果等级 high→medium→low 排序返回，同一等级内随机打乱
func (l *Library) GetExamples(f Filter) []Example {
	tiers := make(map[Effectiveness][]Example, len(tierOrder))
	for _, ex := range l.examples {
		if f.Category != "" && ex.Category != f.Category {
			continue
		}
		if f.Tone != "" && !ex.hasTone(f.Tone) {
			continue
		}
		if f.Effectiveness != "" && ex.Effectiveness != f.Effectiveness {
			continue
		}
		tiers[ex.Effectiveness] = append(tiers[ex.Effectiveness], ex)
	}

	out := make([]Example, 0, len(l.examples))
	l.mu.Lock()
	for _, tier := range tierOrder {
		group := tiers[tier]
		l.rnd.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		out = append(out, group...)
	}
	l.mu.Unlock()

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Categories 返回示例分类（按首次出现顺序）
func (l *Library) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, ex := range l.examples {
		if !seen[ex.Category] {
			seen[ex.Category] = true
			out = append(out, ex.Category)
		}
	}
	return out
}

// StructurePrompt 返回正文结构子提示
func (l *Library) StructurePrompt(formula string) string {
	if p, ok := l.structures[formula]; ok {
		return strings.TrimSpace(p)
	}
	return strings.TrimSpace(l.structures["standard"])
}

// DurationPrompt 返回时长子提示
func (l *Library) DurationPrompt(d entity.Duration) string {
	return strings.TrimSpace(l.durations[string(d)])
}

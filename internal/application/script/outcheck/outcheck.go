// Package outcheck 检查生成脚本的字数是否落在时长预算的容差内。只记录，不拒绝。
package outcheck

import (
	"context"
	"fmt"

	"shortscript-api/internal/application/script/budget"
	"shortscript-api/internal/domain/entity"
	"shortscript-api/pkg/logger"
	"shortscript-api/pkg/metrics"
)

// DefaultTolerance 默认容差 ±20%
const DefaultTolerance = 0.2

// Report 字数检查结果
type Report struct {
	Actual int  `json:"actual"`
	Target int  `json:"target"`
	Min    int  `json:"min"`
	Max    int  `json:"max"`
	Within bool `json:"within"`
}

// Warning 超出容差时的提示文本，未超出时为空
func (r Report) Warning() string {
	switch {
	case r.Within:
		return ""
	case r.Actual < r.Min:
		return fmt.Sprintf("script is short: %d words, expected %d-%d", r.Actual, r.Min, r.Max)
	default:
		return fmt.Sprintf("script is long: %d words, expected %d-%d", r.Actual, r.Min, r.Max)
	}
}

// Checker 字数检查器
type Checker struct {
	tolerance float64
}

// New 创建检查器，tolerance 不在 (0,1) 内时使用默认值
func New(tolerance float64) *Checker {
	if tolerance <= 0 || tolerance >= 1 {
		tolerance = DefaultTolerance
	}
	return &Checker{tolerance: tolerance}
}

// Check 统计字数并与预算比较，超出容差时记录日志和指标
func (c *Checker) Check(ctx context.Context, script *entity.GeneratedScript, d entity.Duration) Report {
	m, ok := budget.Lookup(d)
	if !ok || script == nil {
		return Report{Within: true}
	}

	actual := entity.CountWords(script.FullText())
	lo, hi := m.Range(c.tolerance)
	rep := Report{
		Actual: actual,
		Target: m.TotalWords,
		Min:    lo,
		Max:    hi,
		Within: actual >= lo && actual <= hi,
	}

	metrics.ScriptWordCount.WithLabelValues(string(d)).Observe(float64(actual))
	if !rep.Within {
		direction := "over"
		if actual < lo {
			direction = "under"
		}
		metrics.ScriptWordCountDrift.WithLabelValues(string(d), direction).Inc()
		logger.Warn(ctx, "script word count outside budget",
			"duration", d,
			"actual_words", actual,
			"target_words", m.TotalWords,
			"min_words", lo,
			"max_words", hi,
		)
	}
	return rep
}

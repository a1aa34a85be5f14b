// Package budget 提供时长到分段字数预算的静态映射（语速 2.2 词/秒）。
package budget

import (
	"math"

	"shortscript-api/internal/domain/entity"
)

// WordsPerSecond 固定语速
const WordsPerSecond = 2.2

// Section 单个分段的时间与字数预算
type Section struct {
	Seconds int `json:"seconds"`
	Words   int `json:"words"`
}

// DurationMetrics 某一时长的预算行
type DurationMetrics struct {
	Duration   entity.Duration `json:"duration"`
	TotalWords int             `json:"total_words"`
	Hook       Section         `json:"hook"`
	Bridge     Section         `json:"bridge"`
	Nugget     Section         `json:"golden_nugget"`
	WTA        Section         `json:"wta"`
}

// SectionWords 四段字数之和
func (m DurationMetrics) SectionWords() int {
	return m.Hook.Words + m.Bridge.Words + m.Nugget.Words + m.WTA.Words
}

// Range 返回给定容差下的字数上下限
func (m DurationMetrics) Range(tolerance float64) (lo, hi int) {
	lo = int(math.Floor(float64(m.TotalWords) * (1 - tolerance)))
	hi = int(math.Ceil(float64(m.TotalWords) * (1 + tolerance)))
	return lo, hi
}

var table = [...]DurationMetrics{
	{Duration: entity.Duration15, TotalWords: 33, Hook: Section{3, 7}, Bridge: Section{3, 7}, Nugget: Section{6, 13}, WTA: Section{3, 7}},
	{Duration: entity.Duration20, TotalWords: 44, Hook: Section{4, 9}, Bridge: Section{4, 9}, Nugget: Section{8, 18}, WTA: Section{4, 9}},
	{Duration: entity.Duration30, TotalWords: 66, Hook: Section{5, 11}, Bridge: Section{6, 13}, Nugget: Section{14, 31}, WTA: Section{5, 11}},
	{Duration: entity.Duration45, TotalWords: 99, Hook: Section{7, 15}, Bridge: Section{8, 18}, Nugget: Section{22, 48}, WTA: Section{8, 18}},
	{Duration: entity.Duration60, TotalWords: 132, Hook: Section{8, 18}, Bridge: Section{10, 22}, Nugget: Section{32, 70}, WTA: Section{10, 22}},
	{Duration: entity.Duration90, TotalWords: 198, Hook: Section{10, 22}, Bridge: Section{15, 33}, Nugget: Section{50, 110}, WTA: Section{15, 33}},
}

// Lookup 查找时长对应的预算行
func Lookup(d entity.Duration) (DurationMetrics, bool) {
	for _, m := range table {
		if m.Duration == d {
			return m, true
		}
	}
	return DurationMetrics{}, false
}

// All 返回全部预算行（副本）
func All() []DurationMetrics {
	out := make([]DurationMetrics, len(table))
	copy(out, table[:])
	return out
}

// SupportedDurations 支持的时长，升序
func SupportedDurations() []entity.Duration {
	out := make([]entity.Duration, 0, len(table))
	for _, m := range table {
		out = append(out, m.Duration)
	}
	return out
}

// EstimateSeconds 按固定语速估算口播秒数，保留一位小数
func EstimateSeconds(words int) float64 {
	return math.Round(float64(words)/WordsPerSecond*10) / 10
}

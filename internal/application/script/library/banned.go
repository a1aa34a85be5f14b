package library

import (
	"strings"
	"unicode"
)

// BannedOpeners 钩子禁止使用的泛化开场白
var BannedOpeners = []string{
	"Want a",
	"Want to",
	"Do you want",
	"Would you like",
	"Have you ever wanted",
	"Are you looking for",
}

// BannedOpenersInstruction 每条生成指令都必须原样包含的禁用说明
const BannedOpenersInstruction = `NEVER start the hook with a generic opener such as "Want a...?", "Want to...?", "Do you want...?", "Would you like...?", "Have you ever wanted...?" or "Are you looking for...?". Open with a specific claim, number, contrast or scene instead.`

// StartsWithBannedOpener 检查钩子的前四个词是否以禁用开场白开头
func StartsWithBannedOpener(hook string) bool {
	words := strings.FieldsFunc(strings.ToLower(hook), func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'')
	})
	if len(words) > 4 {
		words = words[:4]
	}
	head := strings.Join(words, " ")

	for _, b := range BannedOpeners {
		banned := strings.ToLower(b)
		if head == banned || strings.HasPrefix(head, banned+" ") {
			return true
		}
	}
	return false
}

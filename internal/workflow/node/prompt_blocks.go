package node

import "strings"

// BuildBulletBlock 渲染 "标题: \n- a\n- b"，空项跳过，全部为空时返回空串
func BuildBulletBlock(title string, items []string) string {
	lines := make([]string, 0, len(items)+1)
	if t := strings.TrimSpace(title); t != "" {
		lines = append(lines, t+":")
	}
	n := 0
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		lines = append(lines, "- "+it)
		n++
	}
	if n == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// JoinBlocks 以空行连接非空段落
func JoinBlocks(blocks ...string) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, "\n\n")
}

package assistant

import (
	"strings"

	"github.com/insightloop/backend/internal/domain/knowledge"
)

// GroundingContext 单轮对话的接地上下文
// 每轮重新构建，轮结束即丢弃
type GroundingContext struct {
	Preamble  string
	Facts     []string
	Snippets  []knowledge.Snippet
	WorkItems []string
}

// Render 序列化为注入推理后端的文本
// 相同输入必须产生字节一致的输出，不掺入时钟或随机性
func (g *GroundingContext) Render() string {
	var b strings.Builder
	b.WriteString(g.Preamble)

	if len(g.Facts) > 0 {
		b.WriteString("\n\nCompany facts:\n")
		for _, fact := range g.Facts {
			b.WriteString("- ")
			b.WriteString(fact)
			b.WriteString("\n")
		}
	}

	if len(g.Snippets) > 0 {
		b.WriteString("\nRelevant knowledge:\n")
		for _, snippet := range g.Snippets {
			b.WriteString("### ")
			b.WriteString(snippet.Title)
			b.WriteString("\n")
			b.WriteString(snippet.Excerpt)
			b.WriteString("\n")
		}
	}

	if len(g.WorkItems) > 0 {
		b.WriteString("\nOpen work items:\n")
		for _, item := range g.WorkItems {
			b.WriteString("- ")
			b.WriteString(item)
			b.WriteString("\n")
		}
	}

	return b.String()
}

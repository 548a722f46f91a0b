package assistant

import (
	"strings"

	domain "github.com/insightloop/backend/internal/domain/assistant"
	"github.com/insightloop/backend/internal/domain/knowledge"
)

// 路由谓词使用的词表
// 全部小写，匹配前消息先行小写化
var (
	setupVocabulary = []string{
		"configure", "setup", "set up", "onboarding",
		"company profile", "business profile", "tell you about my business",
	}
	helpVocabulary = []string{
		"help", "how do i", "how to", "what can you do",
		"不会用", "怎么用",
	}
	// 完成词表中的单词用词边界匹配，避免 "completely" 这类误命中
	completionWords   = []string{"done", "complete", "completed", "finished"}
	completionPhrases = []string{"mark as done", "task is done", "i am done", "i'm done"}
)

// Router 意图路由器
// 按固定谓词顺序对消息分类，首个命中即生效，必有兜底流程
type Router struct{}

// NewRouter 创建意图路由器
func NewRouter() *Router {
	return &Router{}
}

// Route 将一条用户消息归类到一个对话流程
// 会话处于结构化流程中时不应调用本方法，编排器直接续走流程引擎
func (r *Router) Route(message string, snap *knowledge.Snapshot) domain.FlowID {
	lowered := strings.ToLower(strings.TrimSpace(message))
	if snap == nil {
		snap = knowledge.EmptySnapshot()
	}

	// 1. 消息引用未完成工作项的引导关键词
	for _, ticket := range snap.OpenTickets {
		if !ticket.IsOpen() {
			continue
		}
		if kw := leadingKeyword(ticket.Title); kw != "" && strings.Contains(lowered, kw) {
			return domain.FlowTicketFollowup
		}
	}

	// 2. 消息引用已知知识条目的引导关键词
	for _, note := range snap.Notes {
		if kw := leadingKeyword(note.Title); kw != "" && strings.Contains(lowered, kw) {
			return domain.FlowKnowledgeInquiry
		}
	}

	// 3. 结构化采集词表
	for _, vocab := range setupVocabulary {
		if strings.Contains(lowered, vocab) {
			return domain.FlowProfileSetup
		}
	}

	// 4. 求助词表
	for _, vocab := range helpVocabulary {
		if strings.Contains(lowered, vocab) {
			return domain.FlowGeneralHelp
		}
	}

	// 5. 完成词表
	for _, phrase := range completionPhrases {
		if strings.Contains(lowered, phrase) {
			return domain.FlowTaskCompletion
		}
	}
	for _, word := range completionWords {
		if containsWord(lowered, word) {
			return domain.FlowTaskCompletion
		}
	}

	// 6. 兜底自由对话
	return domain.FlowGeneralConversation
}

// leadingKeyword 取标题中第一个足够长的词作为引导关键词
func leadingKeyword(title string) string {
	for _, word := range strings.Fields(strings.ToLower(title)) {
		trimmed := strings.Trim(word, ".,!?:;\"'()")
		if len(trimmed) > 3 {
			return trimmed
		}
	}
	return ""
}

// containsWord 词边界包含判断
func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return ('a' <= c && c <= 'z') || ('0' <= c && c <= '9')
}

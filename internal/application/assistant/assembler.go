package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domain "github.com/insightloop/backend/internal/domain/assistant"
	"github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// contextPreamble 接地上下文固定开场白，预算压缩时永不丢弃
const contextPreamble = "You are the InsightLoop assistant. You help business users understand " +
	"their company data and you answer strictly from the facts and knowledge provided below. " +
	"If something is not covered, say so instead of guessing."

// AssemblerConfig 上下文组装配置
// 数值阈值属于配置而非契约，按部署调优
type AssemblerConfig struct {
	// MaxSnippets 保留的知识片段上限
	MaxSnippets int
	// MinKeywordLength 关键词回退时参与匹配的最小词长
	MinKeywordLength int
	// MaxWorkItems 附带的未完成工作项上限
	MaxWorkItems int
	// WorkItemDescLimit 工作项描述截断长度
	WorkItemDescLimit int
	// TokenBudget 序列化上下文的 Token 预算
	TokenBudget int
	// RetrievalTimeout 语义检索超时，超时即回退关键词匹配
	RetrievalTimeout time.Duration
}

// DefaultAssemblerConfig 返回默认配置
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		MaxSnippets:       5,
		MinKeywordLength:  3,
		MaxWorkItems:      3,
		WorkItemDescLimit: 120,
		TokenBudget:       2000,
		RetrievalTimeout:  2 * time.Second,
	}
}

// Assembler 接地上下文组装器
type Assembler struct {
	retriever Retriever
	estimator TokenEstimator
	config    AssemblerConfig
	logger    *slog.Logger
}

// NewAssembler 创建上下文组装器
func NewAssembler(retriever Retriever, estimator TokenEstimator, config AssemblerConfig) *Assembler {
	return &Assembler{
		retriever: retriever,
		estimator: estimator,
		config:    config,
		logger:    log.NewModuleLogger("assistant", "assembler"),
	}
}

// Assemble 为一轮自由对话构建接地上下文
// 协作方失败一律降级，本方法不返回错误
func (a *Assembler) Assemble(ctx context.Context, snap *knowledge.Snapshot, orgID, message string) *domain.GroundingContext {
	if snap == nil {
		snap = knowledge.EmptySnapshot()
	}

	gc := &domain.GroundingContext{
		Preamble: contextPreamble,
		Facts:    buildFacts(snap.Profile),
	}

	gc.Snippets = a.retrieveSnippets(ctx, snap, orgID, message)
	gc.WorkItems = a.buildWorkItems(snap.OpenTickets)

	a.enforceBudget(gc)
	return gc
}

// retrieveSnippets 语义检索优先，失败、超时或空结果回退关键词匹配
func (a *Assembler) retrieveSnippets(ctx context.Context, snap *knowledge.Snapshot, orgID, message string) []knowledge.Snippet {
	queryCtx, cancel := context.WithTimeout(ctx, a.config.RetrievalTimeout)
	defer cancel()

	type result struct {
		snippets []knowledge.Snippet
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		snippets, err := a.retriever.Query(queryCtx, orgID, message, a.config.MaxSnippets)
		ch <- result{snippets: snippets, err: err}
	}()

	select {
	case r := <-ch:
		if r.err == nil && len(r.snippets) > 0 {
			return r.snippets
		}
		if r.err != nil {
			a.logger.Debug("Semantic retrieval failed, falling back to keywords", "error", r.err)
		}
	case <-queryCtx.Done():
		a.logger.Debug("Semantic retrieval timed out, falling back to keywords")
	}

	return a.keywordFallback(snap.Notes, message)
}

// keywordFallback 按消息分词对笔记标题和正文做包含匹配，保持笔记原序
func (a *Assembler) keywordFallback(notes []*knowledge.Note, message string) []knowledge.Snippet {
	keywords := extractKeywords(message, a.config.MinKeywordLength)
	if len(keywords) == 0 {
		return nil
	}

	var snippets []knowledge.Snippet
	for _, note := range notes {
		if len(snippets) >= a.config.MaxSnippets {
			break
		}
		title := strings.ToLower(note.Title)
		body := strings.ToLower(note.Body)
		for _, kw := range keywords {
			if strings.Contains(title, kw) || strings.Contains(body, kw) {
				snippets = append(snippets, knowledge.Snippet{
					Title:   note.Title,
					Excerpt: note.Excerpt(500),
					Origin:  knowledge.OriginKeyword,
				})
				break
			}
		}
	}
	return snippets
}

// buildWorkItems 汇总未完成工作项，标题加截断描述
func (a *Assembler) buildWorkItems(tickets []*knowledge.Ticket) []string {
	var items []string
	for _, ticket := range tickets {
		if len(items) >= a.config.MaxWorkItems {
			break
		}
		if !ticket.IsOpen() {
			continue
		}
		desc := ticket.Description
		if len(desc) > a.config.WorkItemDescLimit {
			desc = desc[:a.config.WorkItemDescLimit] + "..."
		}
		if desc == "" {
			items = append(items, ticket.Title)
		} else {
			items = append(items, fmt.Sprintf("%s: %s", ticket.Title, desc))
		}
	}
	return items
}

// enforceBudget 执行 Token 预算
// 丢弃顺序：工作项、知识片段（相关度最低的在后，从尾部丢）、事实；开场白永不丢
func (a *Assembler) enforceBudget(gc *domain.GroundingContext) {
	for a.estimator.CountTokens(gc.Render()) > a.config.TokenBudget {
		switch {
		case len(gc.WorkItems) > 0:
			gc.WorkItems = gc.WorkItems[:len(gc.WorkItems)-1]
		case len(gc.Snippets) > 0:
			gc.Snippets = gc.Snippets[:len(gc.Snippets)-1]
		case len(gc.Facts) > 0:
			gc.Facts = gc.Facts[:len(gc.Facts)-1]
		default:
			return
		}
	}
}

// buildFacts 从企业画像提取非空事实，绝不虚构缺失字段
func buildFacts(profile *knowledge.CompanyProfile) []string {
	if profile == nil {
		return nil
	}

	var facts []string
	if profile.CompanyName != "" {
		facts = append(facts, "Company: "+profile.CompanyName)
	}
	if profile.ContactName != "" {
		fact := "Contact: " + profile.ContactName
		if profile.ContactRole != "" {
			fact += " (" + profile.ContactRole + ")"
		}
		facts = append(facts, fact)
	}
	if profile.Industry != "" {
		facts = append(facts, "Industry: "+profile.Industry)
	}
	if profile.TeamSize != "" {
		facts = append(facts, "Team size: "+profile.TeamSize)
	}
	if profile.Mission != "" {
		facts = append(facts, "Mission: "+profile.Mission)
	}
	if profile.Vision != "" {
		facts = append(facts, "Vision: "+profile.Vision)
	}
	if len(profile.DataSources) > 0 {
		facts = append(facts, "Connected data sources: "+strings.Join(profile.DataSources, ", "))
	}
	return facts
}

// extractKeywords 抽取长度超过下限的消息分词，统一小写
func extractKeywords(message string, minLength int) []string {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	var keywords []string
	for _, word := range words {
		if len(word) > minLength {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

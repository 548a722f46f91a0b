package assistant

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightloop/backend/internal/domain/knowledge"
)

// fakeRetriever 可编排结果的语义检索假实现
type fakeRetriever struct {
	snippets []knowledge.Snippet
	err      error
	delay    time.Duration
	calls    int
}

func (f *fakeRetriever) Query(ctx context.Context, orgID, text string, limit int) ([]knowledge.Snippet, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.snippets, nil
}

// wordEstimator 以词数近似 Token 数，测试里可精确控制预算
type wordEstimator struct{}

func (wordEstimator) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func assemblerSnapshot() *knowledge.Snapshot {
	return &knowledge.Snapshot{
		Profile: &knowledge.CompanyProfile{
			OrgID:       "org-1",
			CompanyName: "Acme Retail",
			Industry:    "retail",
			Mission:     "Help small retailers understand their sales data",
		},
		Notes: []*knowledge.Note{
			{ID: "n1", Title: "Churn definition", Body: "A customer counts as churned after 60 days without a paid invoice."},
			{ID: "n2", Title: "Revenue reporting", Body: "Weekly revenue is summed from Stripe payouts."},
			{ID: "n3", Title: "Team rituals", Body: "Standup happens every Monday."},
		},
		OpenTickets: []*knowledge.Ticket{
			{ID: "t1", Title: "Dashboard shows no revenue data", Description: "No data after the Stripe connector re-auth", Status: knowledge.TicketOpen},
		},
	}
}

func testConfig() AssemblerConfig {
	cfg := DefaultAssemblerConfig()
	cfg.TokenBudget = 10000
	cfg.RetrievalTimeout = 100 * time.Millisecond
	return cfg
}

func TestAssembler_SemanticPrimary(t *testing.T) {
	retriever := &fakeRetriever{
		snippets: []knowledge.Snippet{
			{Title: "Revenue reporting", Excerpt: "Weekly revenue is summed from Stripe payouts.", Score: 0.91, Origin: knowledge.OriginSemantic},
		},
	}
	assembler := NewAssembler(retriever, wordEstimator{}, testConfig())

	gc := assembler.Assemble(context.Background(), assemblerSnapshot(), "org-1", "how is revenue calculated?")

	require.Len(t, gc.Snippets, 1)
	assert.Equal(t, knowledge.OriginSemantic, gc.Snippets[0].Origin)
	assert.NotEmpty(t, gc.Preamble)
	assert.Contains(t, gc.Facts, "Company: Acme Retail")
	require.Len(t, gc.WorkItems, 1)
	assert.Contains(t, gc.WorkItems[0], "Dashboard shows no revenue data")
}

func TestAssembler_KeywordFallbackOnFailure(t *testing.T) {
	retriever := &fakeRetriever{err: fmt.Errorf("vector store unavailable")}
	assembler := NewAssembler(retriever, wordEstimator{}, testConfig())

	gc := assembler.Assemble(context.Background(), assemblerSnapshot(), "org-1", "how is revenue calculated?")

	// 回退片段只来自消息分词的关键词匹配
	require.NotEmpty(t, gc.Snippets)
	for _, snippet := range gc.Snippets {
		assert.Equal(t, knowledge.OriginKeyword, snippet.Origin)
	}
	assert.Equal(t, "Revenue reporting", gc.Snippets[0].Title)
}

func TestAssembler_KeywordFallbackOnEmptyResults(t *testing.T) {
	retriever := &fakeRetriever{snippets: nil}
	assembler := NewAssembler(retriever, wordEstimator{}, testConfig())

	gc := assembler.Assemble(context.Background(), assemblerSnapshot(), "org-1", "churn numbers please")

	require.Len(t, gc.Snippets, 1)
	assert.Equal(t, knowledge.OriginKeyword, gc.Snippets[0].Origin)
	assert.Equal(t, "Churn definition", gc.Snippets[0].Title)
}

func TestAssembler_RetrievalTimeout(t *testing.T) {
	retriever := &fakeRetriever{
		delay: 500 * time.Millisecond,
		snippets: []knowledge.Snippet{
			{Title: "too late", Origin: knowledge.OriginSemantic},
		},
	}
	cfg := testConfig()
	cfg.RetrievalTimeout = 20 * time.Millisecond
	assembler := NewAssembler(retriever, wordEstimator{}, cfg)

	start := time.Now()
	gc := assembler.Assemble(context.Background(), assemblerSnapshot(), "org-1", "revenue question")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 300*time.Millisecond, "回退不应等待慢检索")
	for _, snippet := range gc.Snippets {
		assert.Equal(t, knowledge.OriginKeyword, snippet.Origin)
	}
}

func TestAssembler_Determinism(t *testing.T) {
	snap := assemblerSnapshot()
	retriever := &fakeRetriever{
		snippets: []knowledge.Snippet{
			{Title: "Revenue reporting", Excerpt: "Weekly revenue is summed from Stripe payouts.", Score: 0.91, Origin: knowledge.OriginSemantic},
		},
	}
	assembler := NewAssembler(retriever, wordEstimator{}, testConfig())

	first := assembler.Assemble(context.Background(), snap, "org-1", "how is revenue calculated?")
	second := assembler.Assemble(context.Background(), snap, "org-1", "how is revenue calculated?")

	// 相同输入与相同检索结果必须产生字节一致的序列化输出
	assert.Equal(t, first.Render(), second.Render())
}

func TestAssembler_BudgetDropOrder(t *testing.T) {
	retriever := &fakeRetriever{
		snippets: []knowledge.Snippet{
			{Title: "High", Excerpt: "most relevant snippet", Score: 0.9, Origin: knowledge.OriginSemantic},
			{Title: "Low", Excerpt: "least relevant snippet", Score: 0.2, Origin: knowledge.OriginSemantic},
		},
	}

	cfg := testConfig()
	// 预算足够开场白和事实，但容不下工作项和第二个片段
	preambleTokens := wordEstimator{}.CountTokens(contextPreamble)
	cfg.TokenBudget = preambleTokens + 40
	assembler := NewAssembler(retriever, wordEstimator{}, cfg)

	gc := assembler.Assemble(context.Background(), assemblerSnapshot(), "org-1", "revenue")

	// 工作项最先丢，然后是相关度最低的片段；开场白永不丢
	assert.Empty(t, gc.WorkItems)
	if len(gc.Snippets) > 0 {
		assert.Equal(t, "High", gc.Snippets[0].Title)
	}
	assert.Equal(t, contextPreamble, gc.Preamble)
	assert.LessOrEqual(t, wordEstimator{}.CountTokens(gc.Render()), cfg.TokenBudget)
}

func TestAssembler_NilSnapshot(t *testing.T) {
	retriever := &fakeRetriever{err: fmt.Errorf("down")}
	assembler := NewAssembler(retriever, wordEstimator{}, testConfig())

	gc := assembler.Assemble(context.Background(), nil, "org-1", "anything at all")

	require.NotNil(t, gc)
	assert.NotEmpty(t, gc.Preamble)
	assert.Empty(t, gc.Snippets)
	assert.Empty(t, gc.Facts)
}

// Package assistant 对话助手运行时
// 路由意图、组装接地上下文、驱动结构化流程，并把流式生成委托给传输层
package assistant

import (
	"context"

	"github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/llm"
	"github.com/insightloop/backend/internal/infrastructure/stream"
)

// Retriever 语义检索协作方
// 可能失败或超时，失败由调用方降级处理
type Retriever interface {
	Query(ctx context.Context, orgID, text string, limit int) ([]knowledge.Snippet, error)
}

// ChatStreamer 推理后端流式生成协作方
type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []llm.Message, cb stream.Callbacks) error
}

// TokenEstimator 上下文预算所用的 Token 计数器
type TokenEstimator interface {
	CountTokens(text string) int
}

// SnapshotProvider 知识库快照协作方
// 失败时返回空快照即可，不应让单轮对话失败
type SnapshotProvider interface {
	Snapshot(ctx context.Context, orgID string) (*knowledge.Snapshot, error)
}

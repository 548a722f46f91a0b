package vector

import (
	"context"
	"fmt"

	"github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/embedding"
)

// Retriever 语义检索协作方
// 先将查询文本向量化，再到向量库做近邻检索
type Retriever struct {
	embedder *embedding.Client
	store    *Store
}

// NewRetriever 创建语义检索器
func NewRetriever(embedder *embedding.Client, store *Store) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

// Query 按用户消息原文检索相关知识片段
func (r *Retriever) Query(ctx context.Context, orgID, text string, limit int) ([]knowledge.Snippet, error) {
	vectors, err := r.embedder.EmbedTexts([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("invalid embedding result")
	}

	return r.store.Query(ctx, vectors[0], orgID, limit)
}

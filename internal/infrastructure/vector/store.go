package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/insightloop/backend/internal/domain/knowledge"
	"github.com/insightloop/backend/internal/infrastructure/log"
)

// knowledgeCollection 知识片段集合名
const knowledgeCollection = "insightloop_knowledge"

// excerptLimit 入库摘录长度上限
const excerptLimit = 500

// Store 知识片段向量存储
// 写入侧由索引器调用，查询侧由语义检索调用
type Store struct {
	manager *Manager
	logger  *slog.Logger
}

// NewStore 创建向量存储
func NewStore(manager *Manager) *Store {
	return &Store{
		manager: manager,
		logger:  log.NewModuleLogger("vector", "store"),
	}
}

// EnsureCollection 确保知识集合存在
func (s *Store) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	client := s.manager.GetClient()
	if client == nil {
		return fmt.Errorf("qdrant client not initialized")
	}

	existing, err := client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range existing {
		if name == knowledgeCollection {
			return nil
		}
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: knowledgeCollection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", knowledgeCollection, err)
	}

	s.logger.Info("Created knowledge collection",
		"collection", knowledgeCollection,
		"vector_size", vectorSize,
	)
	return nil
}

// UpsertNotes 写入或更新笔记向量
// notes 与 vectors 按下标对应
func (s *Store) UpsertNotes(ctx context.Context, notes []*knowledge.Note, vectors [][]float32) error {
	if len(notes) != len(vectors) {
		return fmt.Errorf("notes and vectors length mismatch: %d vs %d", len(notes), len(vectors))
	}
	if len(notes) == 0 {
		return nil
	}

	client := s.manager.GetClient()
	if client == nil {
		return fmt.Errorf("qdrant client not initialized")
	}

	points := make([]*qdrant.PointStruct, len(notes))
	for i, note := range notes {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(note.ID),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"note_id": note.ID,
				"org_id":  note.OrgID,
				"title":   note.Title,
				"excerpt": note.Excerpt(excerptLimit),
			}),
		}
	}

	_, err := client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: knowledgeCollection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert notes: %w", err)
	}

	s.logger.Debug("Upserted note vectors", "count", len(points))
	return nil
}

// DeleteNote 删除笔记对应的向量点
func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	client := s.manager.GetClient()
	if client == nil {
		return fmt.Errorf("qdrant client not initialized")
	}

	_, err := client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: knowledgeCollection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("note_id", noteID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete note %s: %w", noteID, err)
	}
	return nil
}

// Query 按查询向量检索组织内的知识片段，按相关度降序返回
func (s *Store) Query(ctx context.Context, vector []float32, orgID string, limit int) ([]knowledge.Snippet, error) {
	client := s.manager.GetClient()
	if client == nil {
		return nil, fmt.Errorf("qdrant client not initialized")
	}

	queryLimit := uint64(limit)
	hits, err := client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: knowledgeCollection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &queryLimit,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("org_id", orgID),
			},
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	snippets := make([]knowledge.Snippet, 0, len(hits))
	for _, hit := range hits {
		payload := hit.GetPayload()
		if payload == nil {
			continue
		}
		snippets = append(snippets, knowledge.Snippet{
			Title:   payload["title"].GetStringValue(),
			Excerpt: payload["excerpt"].GetStringValue(),
			Score:   hit.GetScore(),
			Origin:  knowledge.OriginSemantic,
		})
	}

	s.logger.Debug("Semantic query completed",
		"org_id", orgID,
		"hits", len(snippets),
	)
	return snippets, nil
}

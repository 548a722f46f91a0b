package vector

import (
	"github.com/google/wire"

	"github.com/insightloop/backend/internal/infrastructure/config"
)

// NewManagerFromConfig 从配置创建 Qdrant 连接管理器
func NewManagerFromConfig(cfg *config.VectorConfig) *Manager {
	return NewManager(cfg.Host, cfg.Port)
}

// ProviderSet 向量存储 ProviderSet
var ProviderSet = wire.NewSet(
	NewManagerFromConfig,
	NewStore,
	NewRetriever,
)

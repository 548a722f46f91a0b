package embedding

import (
	"github.com/google/wire"

	"github.com/insightloop/backend/internal/infrastructure/config"
)

// NewClientFromConfig 从配置创建 Embedding 客户端
func NewClientFromConfig(cfg *config.EmbeddingConfig) *Client {
	return NewClient(cfg.URL, cfg.APIKey, cfg.Model)
}

// ProviderSet Embedding 客户端 ProviderSet
var ProviderSet = wire.NewSet(
	NewClientFromConfig,
)

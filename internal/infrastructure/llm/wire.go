package llm

import (
	"github.com/google/wire"

	"github.com/insightloop/backend/internal/infrastructure/config"
)

// NewClientFromConfig 从配置创建推理客户端
func NewClientFromConfig(cfg *config.InferenceConfig) *Client {
	return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
}

// ProviderSet 推理客户端 ProviderSet
var ProviderSet = wire.NewSet(
	NewClientFromConfig,
)

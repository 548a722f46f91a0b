package knowledge

import (
	"github.com/google/wire"

	"github.com/insightloop/backend/internal/infrastructure/embedding"
	"github.com/insightloop/backend/internal/infrastructure/vector"
)

// ProviderSet 知识库应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewService,
	NewIndexer,

	// 协作方接口绑定
	wire.Bind(new(VectorIndex), new(*vector.Store)),
	wire.Bind(new(Embedder), new(*embedding.Client)),
)

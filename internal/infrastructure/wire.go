package infrastructure

import (
	"github.com/google/wire"

	"github.com/insightloop/backend/internal/infrastructure/config"
	"github.com/insightloop/backend/internal/infrastructure/embedding"
	"github.com/insightloop/backend/internal/infrastructure/llm"
	"github.com/insightloop/backend/internal/infrastructure/storage"
	"github.com/insightloop/backend/internal/infrastructure/tokenizer"
	"github.com/insightloop/backend/internal/infrastructure/vector"
	"github.com/insightloop/backend/internal/infrastructure/watcher"
	"github.com/insightloop/backend/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	llm.ProviderSet,
	embedding.ProviderSet,
	vector.ProviderSet,
	tokenizer.ProviderSet,
	watcher.ProviderSet,
	websocket.ProviderSet,
)

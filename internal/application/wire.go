package application

import (
	"github.com/google/wire"

	"github.com/insightloop/backend/internal/application/assistant"
	"github.com/insightloop/backend/internal/application/knowledge"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	assistant.ProviderSet,
	knowledge.ProviderSet,
)

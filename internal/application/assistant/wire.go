package assistant

import (
	"github.com/google/wire"

	"github.com/insightloop/backend/internal/infrastructure/llm"
	"github.com/insightloop/backend/internal/infrastructure/tokenizer"
	"github.com/insightloop/backend/internal/infrastructure/vector"

	appKnowledge "github.com/insightloop/backend/internal/application/knowledge"
)

// ProviderSet 对话助手应用层 ProviderSet
var ProviderSet = wire.NewSet(
	NewSessionManager,
	NewRouter,
	DefaultAssemblerConfig,
	NewAssembler,
	NewFlowRegistry,
	NewFlowEngine,
	NewService,

	// 协作方接口绑定
	wire.Bind(new(Retriever), new(*vector.Retriever)),
	wire.Bind(new(TokenEstimator), new(*tokenizer.Estimator)),
	wire.Bind(new(ChatStreamer), new(*llm.Client)),
	wire.Bind(new(SnapshotProvider), new(*appKnowledge.Service)),
)

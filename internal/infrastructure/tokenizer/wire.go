package tokenizer

import "github.com/google/wire"

// ProviderSet Token 计数器 ProviderSet
var ProviderSet = wire.NewSet(
	GetEstimator,
)

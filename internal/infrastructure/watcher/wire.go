package watcher

import "github.com/google/wire"

// ProviderSet 事件总线与文件监听 ProviderSet
var ProviderSet = wire.NewSet(
	NewEventBus,
)

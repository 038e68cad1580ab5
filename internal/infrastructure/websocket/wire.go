package websocket

import "github.com/google/wire"

// ProviderSet WebSocket 基础设施层依赖注入
var ProviderSet = wire.NewSet(
	NewHub,
)

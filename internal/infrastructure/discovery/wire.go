package discovery

import "github.com/google/wire"

// ProviderSet 服务发现基础设施层依赖注入
var ProviderSet = wire.NewSet(
	NewAdvertiser,
)

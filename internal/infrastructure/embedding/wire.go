package embedding

import "github.com/google/wire"

// ProviderSet Embedding 基础设施层依赖注入
var ProviderSet = wire.NewSet(
	NewClient,
)

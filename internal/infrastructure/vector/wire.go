package vector

import "github.com/google/wire"

// ProviderSet 向量索引基础设施层依赖注入
var ProviderSet = wire.NewSet(
	NewSnapshotIndex,
)

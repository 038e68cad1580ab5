package settings

import "github.com/google/wire"

// ProviderSet 设置存储依赖注入
var ProviderSet = wire.NewSet(
	NewStore,
)

package tokenizer

import "github.com/google/wire"

// ProviderSet token 估算器依赖注入
var ProviderSet = wire.NewSet(
	GetEstimator,
)

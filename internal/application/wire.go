package application

import (
	"github.com/google/wire"

	"github.com/homebase/backend/internal/application/chat"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	chat.ProviderSet,
)
